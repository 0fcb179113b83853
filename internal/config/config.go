package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/resetctl/resetctl/internal/storage"
	"github.com/resetctl/resetctl/internal/utils"
)

const (
	FileName = ".resetctl.yaml"

	defaultEndpoint = "https://www.cursor.com/api/download"
)

type Download struct {
	Endpoint       string `yaml:"endpoint"`
	Platform       string `yaml:"platform"`
	ReleaseTrack   string `yaml:"releaseTrack"`
	MinimumVersion string `yaml:"minimumVersion"`
	Retries        int    `yaml:"retries"`
}

type Application struct {
	Executable   string   `yaml:"executable"`
	ProcessName  string   `yaml:"processName"`
	InstallPaths []string `yaml:"installPaths"`
	// Place installs by copying the downloaded payload to Executable.
	Place bool `yaml:"place"`
}

type Config struct {
	Products       []storage.Product `yaml:"products"`
	Download       Download          `yaml:"download"`
	Application    Application       `yaml:"application"`
	SmokeDelay     time.Duration     `yaml:"smokeDelay"`
	InstallTimeout time.Duration     `yaml:"installTimeout"`
	TempDir        string            `yaml:"tempDir"`
}

func DefaultPath(env storage.Env) string {
	return filepath.Join(env.HomeDir, FileName)
}

// Default returns the configuration for the given environment.
func Default(env storage.Env) (*Config, error) {
	cfg := &Config{
		Products: []storage.Product{
			{Name: "Cursor", MacMachineID: true},
			{Name: "Windsurf"},
		},
		Download: Download{
			Endpoint:     defaultEndpoint,
			ReleaseTrack: "stable",
			Retries:      2,
		},
		SmokeDelay:     3 * time.Second,
		InstallTimeout: 30 * time.Minute,
		TempDir:        env.TempDir,
	}

	arch := "x64"
	if env.GOARCH == "arm64" {
		arch = "arm64"
	}

	switch env.GOOS {
	case "windows":
		programs := filepath.Join(env.HomeDir, "AppData", "Local", "Programs", "cursor")
		cfg.Download.Platform = "win32-" + arch
		cfg.Application = Application{
			Executable:  filepath.Join(programs, "Cursor.exe"),
			ProcessName: "Cursor.exe",
			InstallPaths: []string{
				filepath.Join(env.HomeDir, "AppData", "Roaming", "Microsoft", "Windows", "Start Menu", "Programs", "Cursor"),
				programs,
				filepath.Join(env.HomeDir, "AppData", "Roaming", "Cursor"),
			},
		}
	case "darwin":
		cfg.Download.Platform = "darwin-universal"
		cfg.Application = Application{
			Executable:  "/Applications/Cursor.app/Contents/MacOS/Cursor",
			ProcessName: "Cursor",
			InstallPaths: []string{
				"/Applications/Cursor.app",
				filepath.Join(env.HomeDir, "Library", "Application Support", "Cursor"),
			},
		}
	case "linux":
		executable := filepath.Join(env.HomeDir, "Applications", "cursor.AppImage")
		cfg.Download.Platform = "linux-" + arch
		cfg.Application = Application{
			Executable:  executable,
			ProcessName: "cursor",
			InstallPaths: []string{
				executable,
				filepath.Join(env.HomeDir, ".config", "Cursor"),
			},
			Place: true,
		}
	default:
		return nil, fmt.Errorf("%w: %s", storage.ErrUnsupportedPlatform, env.GOOS)
	}
	return cfg, nil
}

// Load overlays the YAML file at path onto the defaults for env. A missing
// file is only an error when explicit is set.
func Load(path string, explicit bool, env storage.Env) (*Config, error) {
	cfg, err := Default(env)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	cfg.expand(env.HomeDir)
	if err := cfg.validate(env.HomeDir); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Targets resolves the identity state files of the configured products.
func (c *Config) Targets(env storage.Env) ([]storage.Target, error) {
	return storage.ResolveTargets(c.Products, env)
}

func (c *Config) expand(home string) {
	c.TempDir = utils.ExpandHome(c.TempDir, home)
	c.Application.Executable = utils.ExpandHome(c.Application.Executable, home)
	for i, p := range c.Application.InstallPaths {
		c.Application.InstallPaths[i] = utils.ExpandHome(p, home)
	}
}

func (c *Config) validate(home string) error {
	if len(c.Products) == 0 {
		return fmt.Errorf("%w: no products configured", ErrInvalidConfig)
	}
	for _, p := range c.Products {
		if p.Name == "" {
			return fmt.Errorf("%w: product without name", ErrInvalidConfig)
		}
	}
	if c.Download.Endpoint == "" {
		return fmt.Errorf("%w: download endpoint is empty", ErrInvalidConfig)
	}
	if c.Download.Retries < 0 {
		return fmt.Errorf("%w: download retries must not be negative", ErrInvalidConfig)
	}
	// Every child of tempDir is deleted.
	tempDir := filepath.Clean(c.TempDir)
	switch {
	case c.TempDir == "":
		return fmt.Errorf("%w: tempDir is empty", ErrInvalidConfig)
	case tempDir == filepath.Clean(home), filepath.Dir(tempDir) == tempDir:
		return fmt.Errorf("%w: tempDir %s would delete more than temporary files", ErrInvalidConfig, c.TempDir)
	}
	if c.SmokeDelay < 0 {
		return fmt.Errorf("%w: smokeDelay must not be negative", ErrInvalidConfig)
	}
	if c.InstallTimeout <= 0 {
		return fmt.Errorf("%w: installTimeout must be positive", ErrInvalidConfig)
	}
	return nil
}
