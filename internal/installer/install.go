package installer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-version"
	"github.com/justinrixx/retryhttp"
	"github.com/moby/sys/atomicwriter"

	"github.com/resetctl/resetctl/internal/message"
	"github.com/resetctl/resetctl/internal/process"
)

const tempFilePrefix = "resetctl-installer-*"

type Options struct {
	Endpoint       string
	Platform       string
	ReleaseTrack   string
	MinimumVersion string
	Retries        int
	Timeout        time.Duration
	TempDir        string
	GOOS           string
	// Placement, when set, installs the payload by copying it to this path
	// instead of running it.
	Placement string
}

type Launcher interface {
	Launch(path string, args ...string) (*process.Handle, error)
	AwaitExit(ctx context.Context, h *process.Handle, timeout time.Duration) process.ExitStatus
}

type Release struct {
	DownloadURL string `json:"downloadUrl"`
	Version     string `json:"version"`
}

type Result struct {
	Release Release
	Bytes   int64
	Exit    process.ExitStatus
}

type Service struct {
	opts      Options
	client    *http.Client
	processes Launcher
}

func NewService(opts Options, processes Launcher) *Service {
	return &Service{
		opts: opts,
		client: &http.Client{
			Transport: retryhttp.New(retryhttp.WithMaxRetries(opts.Retries)),
		},
		processes: processes,
	}
}

func (s *Service) InstallLatest(ctx context.Context) (*Result, error) {
	release, err := s.FetchRelease(ctx)
	if err != nil {
		return nil, err
	}
	if release.Version != "" {
		message.Info("Latest %s release: %s", s.opts.ReleaseTrack, release.Version)
	}

	message.Info("Downloading %s", release.DownloadURL)
	installerPath, n, err := s.download(ctx, release.DownloadURL)
	if installerPath != "" {
		defer removeArtifact(installerPath)
	}
	if err != nil {
		return nil, err
	}
	message.Success("Download complete (%s)", humanize.Bytes(uint64(n)))

	result := &Result{Release: *release, Bytes: n}
	if s.opts.Placement != "" {
		if err := place(installerPath, s.opts.Placement); err != nil {
			return nil, err
		}
		message.Success("Installed to %s", s.opts.Placement)
		return result, nil
	}

	name, args, err := installerCommand(s.opts.GOOS, installerPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInstallerLaunchFailed, err)
	}
	h, err := s.processes.Launch(name, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInstallerLaunchFailed, err)
	}

	message.Info("Installation in progress")
	result.Exit = s.processes.AwaitExit(ctx, h, s.opts.Timeout)
	if !result.Exit.Success() {
		return result, fmt.Errorf("%w: installer %s", ErrInstallerFailed, result.Exit)
	}
	message.Success("Installation complete")
	return result, nil
}

// FetchRelease asks the download endpoint for the latest release of the
// configured platform and release track.
func (s *Service) FetchRelease(ctx context.Context) (*Release, error) {
	endpoint, err := url.Parse(s.opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endpoint %q: %v", ErrEndpointUnreachable, s.opts.Endpoint, err)
	}
	query := endpoint.Query()
	query.Set("platform", s.opts.Platform)
	query.Set("releaseTrack", s.opts.ReleaseTrack)
	endpoint.RawQuery = query.Encode()

	resp, err := s.get(ctx, endpoint.String())
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("%w: failed to decode body: %v", ErrBadResponse, err)
	}
	if release.DownloadURL == "" {
		return nil, fmt.Errorf("%w: no downloadUrl in response", ErrBadResponse)
	}
	if err := s.checkVersion(release.Version); err != nil {
		return nil, err
	}
	return &release, nil
}

func (s *Service) checkVersion(releaseVersion string) error {
	if s.opts.MinimumVersion == "" {
		return nil
	}
	minimum, err := version.NewVersion(s.opts.MinimumVersion)
	if err != nil {
		return fmt.Errorf("invalid minimum version %q: %w", s.opts.MinimumVersion, err)
	}
	if releaseVersion == "" {
		message.Debug("Release has no version, skipping minimum version check")
		return nil
	}
	current, err := version.NewVersion(releaseVersion)
	if err != nil {
		return fmt.Errorf("%w: invalid release version %q: %v", ErrBadResponse, releaseVersion, err)
	}
	if current.LessThan(minimum) {
		return fmt.Errorf("%w: release %s is older than minimum version %s", ErrBadResponse, current, minimum)
	}
	return nil
}

func (s *Service) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrEndpointUnreachable, err)
	}
	req.Header.Set("User-Agent", "resetctl")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEndpointUnreachable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned unexpected status code: %d", ErrBadResponse, req.URL.Host, resp.StatusCode)
	}
	return resp, nil
}

// download streams rawURL into a new temp file. The returned path is set
// whenever a file was created, even on error, so the caller can remove it.
func (s *Service) download(ctx context.Context, rawURL string) (string, int64, error) {
	resp, err := s.get(ctx, rawURL)
	if err != nil {
		return "", 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	out, err := os.CreateTemp(s.opts.TempDir, tempFilePrefix+artifactExt(rawURL))
	if err != nil {
		return "", 0, fmt.Errorf("%w: failed to create file: %v", ErrDownloadIncomplete, err)
	}

	n, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return out.Name(), n, fmt.Errorf("%w: after %s: %v", ErrDownloadIncomplete, humanize.Bytes(uint64(n)), err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return out.Name(), n, fmt.Errorf("%w: got %d of %d bytes", ErrDownloadIncomplete, n, resp.ContentLength)
	}
	return out.Name(), n, nil
}

// place copies src over dest. The copy is staged in a write set next to
// dest and renamed into place only once complete; a failed copy leaves dest
// untouched and nothing behind.
func place(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open installer: %w", err)
	}
	defer func() {
		_ = in.Close()
	}()

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create install directory: %w", err)
	}
	ws, err := atomicwriter.NewWriteSet(dir)
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", dest, err)
	}
	defer func() {
		_ = ws.Cancel()
	}()

	name := filepath.Base(dest)
	out, err := ws.FileWriter(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", dest, err)
	}
	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	staged := filepath.Join(ws.String(), name)
	if err := os.Chmod(staged, 0755); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := os.Rename(staged, dest); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}

func removeArtifact(artifact string) {
	if err := os.Remove(artifact); err != nil && !errors.Is(err, os.ErrNotExist) {
		message.Warning("Failed to remove temporary installer %s: %v", artifact, err)
		return
	}
	message.Debug("Removed temporary installer %s", artifact)
}

func artifactExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return path.Ext(u.Path)
}
