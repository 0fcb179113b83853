package maintenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/resetctl/resetctl/internal/cleanup"
	"github.com/resetctl/resetctl/internal/message"
	"github.com/resetctl/resetctl/internal/pipeline"
	"github.com/resetctl/resetctl/internal/process"
)

const (
	StepSmokeLaunch   = "smoke-launch"
	StepResetIdentity = "reset-identity"
	StepCleanTemp     = "clean-temp"
	StepUninstall     = "uninstall"
	StepAccountPause  = "account-pause"
	StepInstall       = "install"
	StepRelaunch      = "relaunch"
)

const pausePrompt = "Sign out and prepare a new account in your browser"

// Steps is the full maintenance run: reset the current install, reinstall
// the latest release and reset again once it has started.
func (t *Toolkit) Steps() []pipeline.Step {
	return []pipeline.Step{
		t.step(StepSmokeLaunch, t.smokeLaunch),
		t.step(StepResetIdentity, t.resetIdentities(true)),
		t.step(StepCleanTemp, t.cleanTemp),
		t.step(StepUninstall, t.uninstall),
		t.step(StepCleanTemp, t.cleanTemp),
		{Name: StepAccountPause, Severity: pipeline.Advisory, Interactive: true, Run: t.accountPause},
		t.step(StepInstall, t.install),
		t.step(StepCleanTemp, t.cleanTemp),
		t.step(StepResetIdentity, t.resetIdentities(true)),
		t.step(StepRelaunch, t.smokeLaunch),
		t.step(StepResetIdentity, t.resetIdentities(true)),
	}
}

// ResetSteps only rewrites the identity state files.
func (t *Toolkit) ResetSteps(full bool) []pipeline.Step {
	return []pipeline.Step{t.step(StepResetIdentity, t.resetIdentities(full))}
}

func (t *Toolkit) CleanSteps() []pipeline.Step {
	return []pipeline.Step{t.step(StepCleanTemp, t.cleanTemp)}
}

func (t *Toolkit) step(name string, run func(ctx context.Context) error) pipeline.Step {
	return pipeline.Step{Name: name, Severity: pipeline.Advisory, Run: run}
}

func (t *Toolkit) smokeLaunch(ctx context.Context) error {
	app := t.Config.Application
	return t.Processes.SmokeLaunch(ctx, app.Executable, app.ProcessName, t.Config.SmokeDelay)
}

func (t *Toolkit) resetIdentities(full bool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		var errs []error
		for _, result := range t.Identities.ResetAll(t.Targets, full) {
			if result.Err != nil {
				message.Warning("%s: %v", result.Target.Product.Name, result.Err)
				errs = append(errs, fmt.Errorf("%s: %w", result.Target.Product.Name, result.Err))
				continue
			}
			message.Success("%s identity reset", result.Target.Product.Name)
			message.Debug("%s", result.Identity)
		}
		return errors.Join(errs...)
	}
}

func (t *Toolkit) cleanTemp(ctx context.Context) error {
	report := t.Sweeper.Sweep(t.Config.TempDir)
	for _, failure := range report.Failed {
		message.Debug("Could not remove %s: %v", failure.Path, failure.Err)
	}
	message.Info("Temporary files: %s", report)
	return report.Err()
}

func (t *Toolkit) uninstall(ctx context.Context) error {
	app := t.Config.Application
	outcome, err := t.Processes.Terminate(ctx, app.ProcessName)
	switch {
	case err != nil:
		message.Warning("Failed to close %s: %v", app.ProcessName, err)
	case outcome == process.Killed:
		message.Info("Closed %s", app.ProcessName)
	}

	removals := t.Sweeper.RemovePaths(app.InstallPaths)
	for _, removal := range removals {
		if removal.Outcome == cleanup.RemovalFailed {
			message.Warning("%s: %s: %v", removal.Path, removal.Outcome, removal.Err)
			continue
		}
		message.Info("%s: %s", removal.Path, removal.Outcome)
	}
	return cleanup.RemovalsErr(removals)
}

func (t *Toolkit) accountPause(ctx context.Context) error {
	if t.Pause == nil {
		return nil
	}
	err := t.Pause(pausePrompt)
	if errors.Is(err, message.ErrInterrupted) {
		return fmt.Errorf("%w: %w", pipeline.ErrAborted, err)
	}
	return err
}

func (t *Toolkit) install(ctx context.Context) error {
	result, err := t.Installer.InstallLatest(ctx)
	if err != nil {
		return err
	}
	if result.Release.Version != "" {
		message.Success("Installed version %s", result.Release.Version)
	}
	return nil
}
