package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const stateFileName = "storage.json"

// Env is the part of the machine environment paths are derived from.
type Env struct {
	GOOS    string
	GOARCH  string
	HomeDir string
	AppData string
	TempDir string
}

type Product struct {
	Name         string `yaml:"name"`
	MacMachineID bool   `yaml:"macMachineId"`
}

// Target is a product's identity state file.
type Target struct {
	Product Product
	Path    string
}

func CurrentEnv() (Env, error) {
	dirname, err := os.UserHomeDir()
	if err != nil {
		return Env{}, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return Env{
		GOOS:    runtime.GOOS,
		GOARCH:  runtime.GOARCH,
		HomeDir: dirname,
		AppData: os.Getenv("APPDATA"),
		TempDir: os.TempDir(),
	}, nil
}

// ConfigDir returns the per-user directory desktop applications keep their data in.
func ConfigDir(env Env) (string, error) {
	switch env.GOOS {
	case "windows":
		if env.AppData != "" {
			return env.AppData, nil
		}
		return filepath.Join(env.HomeDir, "AppData", "Roaming"), nil
	case "darwin":
		return filepath.Join(env.HomeDir, "Library", "Application Support"), nil
	case "linux":
		return filepath.Join(env.HomeDir, ".config"), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, env.GOOS)
	}
}

func Resolve(product string, env Env) (string, error) {
	dirname, err := ConfigDir(env)
	if err != nil {
		return "", err
	}
	return filepath.Join(dirname, product, "User", "globalStorage", stateFileName), nil
}

func ResolveTargets(products []Product, env Env) ([]Target, error) {
	targets := make([]Target, 0, len(products))
	for _, product := range products {
		path, err := Resolve(product.Name, env)
		if err != nil {
			return nil, err
		}
		targets = append(targets, Target{Product: product, Path: path})
	}
	return targets, nil
}
