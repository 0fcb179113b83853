package cmd

import (
	"context"
	"fmt"

	"github.com/resetctl/resetctl/internal/config"
	"github.com/resetctl/resetctl/internal/maintenance"
	"github.com/resetctl/resetctl/internal/message"
	"github.com/resetctl/resetctl/internal/pipeline"
	"github.com/resetctl/resetctl/internal/storage"
)

var toolkit *maintenance.Toolkit

func loadToolkit(explicit bool) error {
	env, err := storage.CurrentEnv()
	if err != nil {
		return err
	}

	path := configPath
	if path == "" {
		path = config.DefaultPath(env)
	}
	cfg, err := config.Load(path, explicit, env)
	if err != nil {
		return err
	}
	targets, err := cfg.Targets(env)
	if err != nil {
		return err
	}
	for _, target := range targets {
		message.Debug("%s state file: %s", target.Product.Name, target.Path)
	}

	toolkit = maintenance.NewToolkit(cfg, targets, env.GOOS, message.Pause)
	return nil
}

func runSteps(ctx context.Context, title string, steps []pipeline.Step) error {
	message.Title(title)

	report := pipeline.New(steps, !nonInteractive, reportResult).Run(ctx)
	if err := report.Err(); err != nil {
		return err
	}

	if failures := report.Failures(); len(failures) > 0 {
		message.Warning("Finished with %d of %d steps failed", len(failures), len(report.Results))
		return nil
	}
	message.Success("All %d steps finished", len(report.Results))
	return nil
}

func reportResult(result pipeline.Result) {
	switch {
	case result.Status == pipeline.Succeeded:
		message.Success("%s", result)
	case result.Status == pipeline.Skipped:
		message.Info("%s", result)
	case result.Severity == pipeline.Fatal:
		message.Error("%s", result)
	default:
		message.Warning("%s", result)
	}
}

func confirm(question string) (bool, error) {
	if nonInteractive {
		return true, nil
	}
	proceed, err := message.BoolSelect(question)
	if err != nil {
		return false, fmt.Errorf("failed to confirm: %w", err)
	}
	return proceed, nil
}
