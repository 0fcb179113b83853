package installer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resetctl/resetctl/internal/process"
)

const payload = "installer-bytes"

type fakeLauncher struct {
	launched  []string
	content   string
	status    process.ExitStatus
	launchErr error
}

func (f *fakeLauncher) Launch(path string, args ...string) (*process.Handle, error) {
	if f.launchErr != nil {
		return nil, f.launchErr
	}
	f.launched = append(f.launched, path)
	data, err := os.ReadFile(path)
	if err == nil {
		f.content = string(data)
	}
	return nil, nil
}

func (f *fakeLauncher) AwaitExit(_ context.Context, _ *process.Handle, _ time.Duration) process.ExitStatus {
	return f.status
}

func newEndpoint(t *testing.T, releaseBody func(serverURL string) string) *httptest.Server {
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/api/download", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "linux-x64", r.URL.Query().Get("platform"))
		assert.Equal(t, "stable", r.URL.Query().Get("releaseTrack"))
		_, _ = fmt.Fprint(w, releaseBody(server.URL))
	})
	mux.HandleFunc("/files/installer.AppImage", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, payload)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testOptions(t *testing.T, endpoint string) Options {
	return Options{
		Endpoint:     endpoint,
		Platform:     "linux-x64",
		ReleaseTrack: "stable",
		Timeout:      time.Minute,
		TempDir:      t.TempDir(),
		GOOS:         "linux",
	}
}

func TestInstallLatest(t *testing.T) {
	server := newEndpoint(t, func(serverURL string) string {
		return fmt.Sprintf(`{"downloadUrl": "%s/files/installer.AppImage", "version": "1.2.3"}`, serverURL)
	})
	opts := testOptions(t, server.URL+"/api/download")
	launcher := &fakeLauncher{status: process.ExitStatus{Kind: process.Exited}}

	result, err := NewService(opts, launcher).InstallLatest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1.2.3", result.Release.Version)
	assert.Equal(t, int64(len(payload)), result.Bytes)
	require.Len(t, launcher.launched, 1)
	assert.Equal(t, ".AppImage", filepath.Ext(launcher.launched[0]))
	assert.Equal(t, payload, launcher.content)

	_, err = os.Stat(launcher.launched[0])
	assert.ErrorIs(t, err, os.ErrNotExist, "temp installer is removed")
}

func TestInstallLatestPlacement(t *testing.T) {
	server := newEndpoint(t, func(serverURL string) string {
		return fmt.Sprintf(`{"downloadUrl": "%s/files/installer.AppImage"}`, serverURL)
	})
	opts := testOptions(t, server.URL+"/api/download")
	opts.Placement = filepath.Join(t.TempDir(), "Applications", "cursor.AppImage")
	launcher := &fakeLauncher{}

	_, err := NewService(opts, launcher).InstallLatest(context.Background())
	require.NoError(t, err)
	assert.Empty(t, launcher.launched)

	data, err := os.ReadFile(opts.Placement)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))

	entries, err := os.ReadDir(opts.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInstallLatestFailures(t *testing.T) {
	var tests = []struct {
		name     string
		handler  http.HandlerFunc
		minimum  string
		launcher *fakeLauncher
		expected error
	}{
		{
			name: "endpoint returns 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expected: ErrBadResponse,
		},
		{
			name: "body is not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, "<html>")
			},
			expected: ErrBadResponse,
		},
		{
			name: "no download url",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, `{"version": "1.0.0"}`)
			},
			expected: ErrBadResponse,
		},
		{
			name: "release older than minimum",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprintf(w, `{"downloadUrl": "http://%s/files/installer", "version": "0.9.1"}`, r.Host)
			},
			minimum:  "1.0.0",
			expected: ErrBadResponse,
		},
		{
			name: "payload missing",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/files/installer" {
					http.NotFound(w, r)
					return
				}
				_, _ = fmt.Fprintf(w, `{"downloadUrl": "http://%s/files/installer"}`, r.Host)
			},
			expected: ErrBadResponse,
		},
		{
			name: "payload truncated",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/files/installer" {
					w.Header().Set("Content-Length", "1000")
					_, _ = fmt.Fprint(w, payload)
					return
				}
				_, _ = fmt.Fprintf(w, `{"downloadUrl": "http://%s/files/installer"}`, r.Host)
			},
			expected: ErrDownloadIncomplete,
		},
		{
			name: "installer cannot start",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/files/installer" {
					_, _ = fmt.Fprint(w, payload)
					return
				}
				_, _ = fmt.Fprintf(w, `{"downloadUrl": "http://%s/files/installer"}`, r.Host)
			},
			launcher: &fakeLauncher{launchErr: process.ErrNotInstalled},
			expected: ErrInstallerLaunchFailed,
		},
		{
			name: "installer times out",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/files/installer" {
					_, _ = fmt.Fprint(w, payload)
					return
				}
				_, _ = fmt.Fprintf(w, `{"downloadUrl": "http://%s/files/installer"}`, r.Host)
			},
			launcher: &fakeLauncher{status: process.ExitStatus{Kind: process.TimedOut, Code: -1}},
			expected: ErrInstallerFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			opts := testOptions(t, server.URL+"/api/download")
			opts.MinimumVersion = tc.minimum
			launcher := tc.launcher
			if launcher == nil {
				launcher = &fakeLauncher{}
			}

			_, err := NewService(opts, launcher).InstallLatest(context.Background())
			assert.ErrorIs(t, err, tc.expected)

			entries, err := os.ReadDir(opts.TempDir)
			require.NoError(t, err)
			assert.Empty(t, entries, "temp installer is removed")
		})
	}
}

func TestInstallLatestEndpointUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL + "/api/download"
	server.Close()

	_, err := NewService(testOptions(t, endpoint), &fakeLauncher{}).InstallLatest(context.Background())
	assert.ErrorIs(t, err, ErrEndpointUnreachable)
}
