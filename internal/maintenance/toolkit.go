package maintenance

import (
	"context"
	"time"

	"github.com/resetctl/resetctl/internal/cleanup"
	"github.com/resetctl/resetctl/internal/config"
	"github.com/resetctl/resetctl/internal/identity"
	"github.com/resetctl/resetctl/internal/installer"
	"github.com/resetctl/resetctl/internal/process"
	"github.com/resetctl/resetctl/internal/storage"
)

type Processes interface {
	Terminate(ctx context.Context, name string) (process.TerminateOutcome, error)
	SmokeLaunch(ctx context.Context, path, name string, delay time.Duration, args ...string) error
}

type Identities interface {
	ResetAll(targets []storage.Target, full bool) []identity.Result
}

type Sweeper interface {
	Sweep(dir string) cleanup.Report
	RemovePaths(paths []string) []cleanup.Removal
}

type Installer interface {
	InstallLatest(ctx context.Context) (*installer.Result, error)
}

// Toolkit holds the collaborators the maintenance steps act through.
type Toolkit struct {
	Config     *config.Config
	Targets    []storage.Target
	Processes  Processes
	Identities Identities
	Sweeper    Sweeper
	Installer  Installer
	// Pause blocks until the operator confirms.
	Pause func(message string) error
}

// NewToolkit wires the real implementations for cfg.
func NewToolkit(cfg *config.Config, targets []storage.Target, goos string, pause func(string) error) *Toolkit {
	controller := process.NewController()

	opts := installer.Options{
		Endpoint:       cfg.Download.Endpoint,
		Platform:       cfg.Download.Platform,
		ReleaseTrack:   cfg.Download.ReleaseTrack,
		MinimumVersion: cfg.Download.MinimumVersion,
		Retries:        cfg.Download.Retries,
		Timeout:        cfg.InstallTimeout,
		TempDir:        cfg.TempDir,
		GOOS:           goos,
	}
	if cfg.Application.Place {
		opts.Placement = cfg.Application.Executable
	}

	return &Toolkit{
		Config:     cfg,
		Targets:    targets,
		Processes:  controller,
		Identities: identity.NewStore(),
		Sweeper:    cleanup.NewSweeper(),
		Installer:  installer.NewService(opts, controller),
		Pause:      pause,
	}
}
