package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ps "github.com/shirou/gopsutil/v4/process"

	"github.com/resetctl/resetctl/internal/message"
	"github.com/resetctl/resetctl/internal/utils"
)

const (
	defaultPollInterval = 200 * time.Millisecond
	reapTimeout         = 5 * time.Second
)

type TerminateOutcome int

const (
	NotRunning TerminateOutcome = iota
	Killed
)

func (o TerminateOutcome) String() string {
	if o == Killed {
		return "killed"
	}
	return "not running"
}

type ExitKind int

const (
	Exited ExitKind = iota
	TimedOut
	Cancelled
)

type ExitStatus struct {
	Kind ExitKind
	Code int
	Err  error
}

func (s ExitStatus) String() string {
	switch s.Kind {
	case TimedOut:
		return "timed out"
	case Cancelled:
		return "cancelled"
	}
	if s.Err != nil {
		return fmt.Sprintf("exited: %v", s.Err)
	}
	return fmt.Sprintf("exited with code %d", s.Code)
}

func (s ExitStatus) Success() bool {
	return s.Kind == Exited && s.Code == 0 && s.Err == nil
}

type Controller struct {
	PollInterval time.Duration
}

func NewController() *Controller {
	return &Controller{PollInterval: defaultPollInterval}
}

// Terminate kills every process whose name matches name. Finding none is
// the NotRunning outcome, not an error.
func (c *Controller) Terminate(ctx context.Context, name string) (TerminateOutcome, error) {
	procs, err := ps.ProcessesWithContext(ctx)
	if err != nil {
		return NotRunning, fmt.Errorf("failed to list processes: %w", err)
	}

	self := int32(os.Getpid())
	outcome := NotRunning
	var errs []error
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		procName, err := p.NameWithContext(ctx)
		if err != nil || !matchesName(procName, name) {
			continue
		}
		if err := p.KillWithContext(ctx); err != nil {
			if running, _ := p.IsRunningWithContext(ctx); !running {
				continue
			}
			errs = append(errs, fmt.Errorf("pid %d: %w", p.Pid, err))
			continue
		}
		message.Debug("Killed %s (pid %d)", procName, p.Pid)
		outcome = Killed
	}

	if len(errs) > 0 {
		return outcome, fmt.Errorf("%w %s: %w", ErrTerminateFailed, name, errors.Join(errs...))
	}
	return outcome, nil
}

// Launch starts path without waiting for it. A bare command name is looked
// up in PATH.
func (c *Controller) Launch(path string, args ...string) (*Handle, error) {
	resolved, err := resolveExecutable(path)
	if err != nil {
		return nil, err
	}

	h, err := start(exec.Command(resolved, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", resolved, err)
	}
	return h, nil
}

// AwaitExit polls h until it exits, timeout elapses or ctx is done. A zero
// timeout waits on ctx alone.
func (c *Controller) AwaitExit(ctx context.Context, h *Handle, timeout time.Duration) ExitStatus {
	var timeoutAfter <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutAfter = timer.C
	}

	ticker := time.NewTicker(c.pollInterval())
	defer ticker.Stop()

	for {
		if h.Exited() {
			code, err := h.exitCode()
			return ExitStatus{Kind: Exited, Code: code, Err: err}
		}
		select {
		case <-ctx.Done():
			return ExitStatus{Kind: Cancelled, Code: -1, Err: ctx.Err()}
		case <-timeoutAfter:
			return ExitStatus{Kind: TimedOut, Code: -1}
		case <-ticker.C:
		}
	}
}

// SmokeLaunch starts the application, lets it run for delay and closes it
// again.
func (c *Controller) SmokeLaunch(ctx context.Context, path, name string, delay time.Duration, args ...string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotInstalled, path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	outcome, err := c.Terminate(ctx, name)
	if err != nil {
		message.Warning("Failed to close previous instance of %s: %v", name, err)
	} else if outcome == Killed {
		message.Info("Closed previous instance of %s", name)
	}

	h, err := c.Launch(path, args...)
	if err != nil {
		return err
	}
	message.Info("%s launched, waiting %s", name, delay)

	if err := utils.Sleep(ctx, delay); err != nil {
		_ = h.Kill()
		return fmt.Errorf("smoke launch interrupted: %w", err)
	}

	alive := !h.Exited()
	outcome, err = c.Terminate(ctx, name)
	if err != nil {
		_ = h.Kill()
		return err
	}
	if !h.Exited() {
		if err := h.Kill(); err != nil {
			return fmt.Errorf("%w %s: %v", ErrTerminateFailed, name, err)
		}
	}
	if status := c.AwaitExit(ctx, h, reapTimeout); status.Kind != Exited {
		message.Warning("%s did not exit after being terminated: %s", name, status)
	}

	if outcome == NotRunning && !alive {
		return fmt.Errorf("%w: %s", ErrNothingToTerminate, name)
	}
	message.Info("%s closed", name)
	return nil
}

func (c *Controller) pollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return defaultPollInterval
	}
	return c.PollInterval
}

func resolveExecutable(path string) (string, error) {
	if !strings.ContainsAny(path, `/\`) {
		resolved, err := exec.LookPath(path)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotInstalled, path)
		}
		return resolved, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotInstalled, path)
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return path, nil
}

// matchesName compares process names case-insensitively and ignores a
// trailing ".exe" on either side.
func matchesName(procName, name string) bool {
	normalize := func(s string) string {
		s = strings.ToLower(filepath.Base(s))
		return strings.TrimSuffix(s, ".exe")
	}
	return name != "" && normalize(procName) == normalize(name)
}
