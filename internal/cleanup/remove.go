package cleanup

import (
	"errors"
	"fmt"
	"os"
)

type RemovalOutcome int

const (
	Removed RemovalOutcome = iota
	AlreadyAbsent
	RemovalFailed
)

func (o RemovalOutcome) String() string {
	switch o {
	case Removed:
		return "removed"
	case AlreadyAbsent:
		return "not found"
	default:
		return "failed"
	}
}

type Removal struct {
	Path    string
	Outcome RemovalOutcome
	Err     error
}

// RemovePaths deletes each path, file or directory. Paths that do not
// exist are reported as AlreadyAbsent.
func (s *Sweeper) RemovePaths(paths []string) []Removal {
	removals := make([]Removal, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Lstat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				removals = append(removals, Removal{Path: path, Outcome: AlreadyAbsent})
				continue
			}
			removals = append(removals, Removal{Path: path, Outcome: RemovalFailed, Err: err})
			continue
		}
		if err := s.remove(path); err != nil {
			removals = append(removals, Removal{Path: path, Outcome: RemovalFailed, Err: err})
			continue
		}
		removals = append(removals, Removal{Path: path, Outcome: Removed})
	}
	return removals
}

// RemovalsErr summarizes removals: failures are joined, and a list where
// nothing was present yields ErrNothingRemoved.
func RemovalsErr(removals []Removal) error {
	var errs []error
	absent := 0
	for _, removal := range removals {
		switch removal.Outcome {
		case RemovalFailed:
			errs = append(errs, fmt.Errorf("%s: %w", removal.Path, removal.Err))
		case AlreadyAbsent:
			absent++
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if len(removals) > 0 && absent == len(removals) {
		return ErrNothingRemoved
	}
	return nil
}
