package message

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/aripalo/go-delightful"
	"github.com/enescakir/emoji"
)

var message = delightful.New("resetctl")

// ErrInterrupted is returned by prompts the operator answered with Ctrl-C.
var ErrInterrupted = errors.New("interrupted by operator")

func SetSilentMode(flag bool) {
	message.SetSilentMode(flag)
}

func SetVerboseMode(flag bool) {
	message.SetVerboseMode(flag)
}

func SetEmojiMode(flag bool) {
	message.SetEmojiMode(flag)
}

func SetColorMode(flag bool) {
	message.SetColorMode(flag)
}

func BoolSelect(message string) (bool, error) {
	var answer bool
	prompt := &survey.Confirm{
		Message: message,
	}

	err := survey.AskOne(prompt, &answer)
	if err != nil {
		return false, askErr(err)
	}

	return answer, nil
}

// Pause blocks until the operator presses enter.
func Pause(message string) error {
	var answer string
	prompt := &survey.Input{
		Message: message + " Press [ENTER] to continue",
	}

	err := survey.AskOne(prompt, &answer)
	if err != nil {
		return askErr(err)
	}

	return nil
}

// The terminal is in raw mode while survey prompts, so Ctrl-C arrives as
// terminal.InterruptErr instead of SIGINT.
func askErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrInterrupted
	}
	return fmt.Errorf("failed to ask question: %w", err)
}

func Debug(format string, args ...any) {
	message.Debugln(emoji.HammerAndWrench, fmt.Sprintf(format, args...))
}

func Warning(format string, args ...any) {
	message.Warningln(emoji.Warning, fmt.Sprintf(format, args...))
}

func Info(format string, args ...any) {
	message.Infoln(emoji.Information, fmt.Sprintf(format, args...))
}

func Title(format string, args ...any) {
	message.HorizontalRuler()
	message.Titleln(emoji.Gear, fmt.Sprintf(format, args...))
}

func Success(format string, args ...any) {
	message.Infoln(emoji.CheckMarkButton, fmt.Sprintf(format, args...))
}

func Error(format string, args ...any) {
	message.Failureln(emoji.CrossMark, fmt.Sprintf(format, args...))
}
