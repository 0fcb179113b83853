package cleanup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/resetctl/resetctl/internal/message"
)

type Failure struct {
	Path string
	Err  error
}

type Report struct {
	Dir     string
	Deleted []string
	Failed  []Failure
	// Bytes counts regular files removed at the top level only.
	Bytes int64
}

// Err reports whether anything failed to be removed.
func (r Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, failure := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", failure.Path, failure.Err))
	}
	return fmt.Errorf("%w: %d of %d in %s: %w", ErrPartialSweep, len(r.Failed), len(r.Failed)+len(r.Deleted), r.Dir, errors.Join(errs...))
}

func (r Report) String() string {
	return fmt.Sprintf("%d removed (%s), %d failed in %s", len(r.Deleted), humanize.Bytes(uint64(r.Bytes)), len(r.Failed), r.Dir)
}

type Sweeper struct {
	// Remove deletes a file or directory tree. Defaults to os.RemoveAll.
	Remove func(path string) error
}

func NewSweeper() *Sweeper {
	return &Sweeper{Remove: os.RemoveAll}
}

// Sweep removes the direct children of dir. It never fails as a whole:
// every problem ends up in the report.
func (s *Sweeper) Sweep(dir string) Report {
	report := Report{Dir: dir}

	entries, err := os.ReadDir(dir)
	if err != nil && len(entries) == 0 {
		if !errors.Is(err, os.ErrNotExist) {
			report.Failed = append(report.Failed, Failure{Path: dir, Err: err})
		}
		return report
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		var size int64
		if info, err := entry.Info(); err == nil && info.Mode().IsRegular() {
			size = info.Size()
		}

		if err := s.remove(path); err != nil {
			message.Debug("Failed to remove %s: %v", path, err)
			report.Failed = append(report.Failed, Failure{Path: path, Err: err})
			continue
		}
		message.Debug("Removed %s", path)
		report.Deleted = append(report.Deleted, path)
		report.Bytes += size
	}
	return report
}

func (s *Sweeper) remove(path string) error {
	if s.Remove == nil {
		return os.RemoveAll(path)
	}
	return s.Remove(path)
}
