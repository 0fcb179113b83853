package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resetctl/resetctl/internal/storage"
)

func testEnv(t *testing.T, goos string) storage.Env {
	home := t.TempDir()
	return storage.Env{
		GOOS:    goos,
		GOARCH:  "amd64",
		HomeDir: home,
		TempDir: filepath.Join(home, "tmp"),
	}
}

func TestDefault(t *testing.T) {
	var tests = []struct {
		goos        string
		platform    string
		processName string
		place       bool
	}{
		{goos: "windows", platform: "win32-x64", processName: "Cursor.exe"},
		{goos: "darwin", platform: "darwin-universal", processName: "Cursor"},
		{goos: "linux", platform: "linux-x64", processName: "cursor", place: true},
	}

	for _, tc := range tests {
		t.Run(tc.goos, func(t *testing.T) {
			env := testEnv(t, tc.goos)
			cfg, err := Default(env)
			require.NoError(t, err)

			assert.Equal(t, tc.platform, cfg.Download.Platform)
			assert.Equal(t, tc.processName, cfg.Application.ProcessName)
			assert.Equal(t, tc.place, cfg.Application.Place)
			assert.Equal(t, "stable", cfg.Download.ReleaseTrack)
			assert.Equal(t, env.TempDir, cfg.TempDir)
			assert.NotEmpty(t, cfg.Application.InstallPaths)
			assert.Equal(t, []storage.Product{{Name: "Cursor", MacMachineID: true}, {Name: "Windsurf"}}, cfg.Products)
		})
	}
}

func TestDefaultArm64(t *testing.T) {
	env := testEnv(t, "linux")
	env.GOARCH = "arm64"

	cfg, err := Default(env)
	require.NoError(t, err)
	assert.Equal(t, "linux-arm64", cfg.Download.Platform)
}

func TestDefaultUnsupportedPlatform(t *testing.T) {
	_, err := Default(testEnv(t, "plan9"))
	assert.ErrorIs(t, err, storage.ErrUnsupportedPlatform)
}

func TestLoad(t *testing.T) {
	env := testEnv(t, "linux")
	path := filepath.Join(env.HomeDir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
products:
  - name: Cursor
    macMachineId: true
download:
  releaseTrack: latest
  minimumVersion: 0.45.0
smokeDelay: 500ms
tempDir: ~/scratch
application:
  installPaths:
    - ~/Applications/cursor.AppImage
`), 0644))

	cfg, err := Load(path, true, env)
	require.NoError(t, err)

	assert.Equal(t, []storage.Product{{Name: "Cursor", MacMachineID: true}}, cfg.Products)
	assert.Equal(t, "latest", cfg.Download.ReleaseTrack)
	assert.Equal(t, "0.45.0", cfg.Download.MinimumVersion)
	assert.Equal(t, defaultEndpoint, cfg.Download.Endpoint, "unset keys keep their default")
	assert.Equal(t, 500*time.Millisecond, cfg.SmokeDelay)
	assert.Equal(t, 30*time.Minute, cfg.InstallTimeout)
	assert.Equal(t, filepath.Join(env.HomeDir, "scratch"), cfg.TempDir)
	assert.Equal(t, []string{filepath.Join(env.HomeDir, "Applications", "cursor.AppImage")}, cfg.Application.InstallPaths)

	targets, err := cfg.Targets(env)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, filepath.Join(env.HomeDir, ".config", "Cursor", "User", "globalStorage", "storage.json"), targets[0].Path)
}

func TestLoadMissingFile(t *testing.T) {
	env := testEnv(t, "darwin")
	path := filepath.Join(env.HomeDir, FileName)

	cfg, err := Load(path, false, env)
	require.NoError(t, err)
	assert.Equal(t, "darwin-universal", cfg.Download.Platform)

	_, err = Load(path, true, env)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadInvalid(t *testing.T) {
	var tests = []struct {
		name    string
		content string
	}{
		{name: "malformed yaml", content: "products: ["},
		{name: "unknown key", content: "unknown: true"},
		{name: "no products", content: "products: []"},
		{name: "product without name", content: "products:\n  - macMachineId: true"},
		{name: "negative retries", content: "download:\n  retries: -1"},
		{name: "zero install timeout", content: "installTimeout: 0s"},
		{name: "empty temp dir", content: `tempDir: ""`},
		{name: "home as temp dir", content: `tempDir: "~"`},
		{name: "home with trailing slash as temp dir", content: `tempDir: "~/"`},
		{name: "root as temp dir", content: `tempDir: "/"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := testEnv(t, "windows")
			path := filepath.Join(env.HomeDir, FileName)
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0644))

			_, err := Load(path, true, env)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
