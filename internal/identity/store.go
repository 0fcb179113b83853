package identity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/moby/sys/atomicwriter"

	"github.com/resetctl/resetctl/internal/message"
	"github.com/resetctl/resetctl/internal/storage"
)

const (
	KeyMachineID    = "telemetry.machineId"
	KeyMacMachineID = "telemetry.macMachineId"
	KeyDevDeviceID  = "telemetry.devDeviceId"
	KeySqmID        = "telemetry.sqmId"
)

const defaultFileMode os.FileMode = 0644

type Options struct {
	IncludeMacMachineID bool
	IncludeSqmID        bool
}

type Identity struct {
	MachineID    string `json:"machineId"`
	MacMachineID string `json:"macMachineId,omitempty"`
	DevDeviceID  string `json:"devDeviceId"`
	SqmID        string `json:"sqmId,omitempty"`
}

type Result struct {
	Target   storage.Target
	Identity *Identity
	Err      error
}

type Store struct {
	Generator Generator
	Now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		Generator: RandomGenerator{},
		Now:       time.Now,
	}
}

func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewRecord(), nil
		}
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrIOFailure, path, err)
	}

	record, err := parseRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, path, err)
	}
	return record, nil
}

func Save(path string, record *Record) error {
	data, err := encode(record)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal state: %v", ErrIOFailure, err)
	}

	perm := defaultFileMode
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	if err := atomicwriter.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIOFailure, path, err)
	}
	return nil
}

// Reset rotates the managed identifiers of target and keeps every other key.
func (s *Store) Reset(target storage.Target, opts Options) (*Identity, error) {
	if err := os.MkdirAll(filepath.Dir(target.Path), os.ModePerm); err != nil {
		return nil, fmt.Errorf("%w: failed to create state file directory: %v", ErrIOFailure, err)
	}

	backupPath, err := storage.Backup(target.Path, s.Now())
	if err != nil {
		message.Warning("Failed to back up %s, continuing without a backup: %v", target.Path, err)
	} else if backupPath != "" {
		message.Debug("Backed up %s to %s", target.Path, backupPath)
	}

	record, err := Load(target.Path)
	if err != nil {
		return nil, err
	}

	identity, err := s.generate(opts)
	if err != nil {
		return nil, err
	}
	if err := identity.apply(record); err != nil {
		return nil, err
	}

	if err := Save(target.Path, record); err != nil {
		return nil, err
	}
	return identity, nil
}

// ResetAll resets every target; a failing target does not stop the others.
func (s *Store) ResetAll(targets []storage.Target, full bool) []Result {
	results := make([]Result, 0, len(targets))
	for _, target := range targets {
		identity, err := s.Reset(target, Options{
			IncludeMacMachineID: target.Product.MacMachineID,
			IncludeSqmID:        full,
		})
		results = append(results, Result{Target: target, Identity: identity, Err: err})
	}
	return results
}

func (s *Store) generate(opts Options) (*Identity, error) {
	machineId, err := s.Generator.MachineID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate machine id: %w", err)
	}
	identity := &Identity{
		MachineID:   machineId,
		DevDeviceID: s.Generator.DeviceID(),
	}
	if opts.IncludeMacMachineID {
		identity.MacMachineID, err = s.Generator.MachineID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate mac machine id: %w", err)
		}
	}
	if opts.IncludeSqmID {
		identity.SqmID = s.Generator.SqmID()
	}
	return identity, nil
}

func (i *Identity) apply(record *Record) error {
	values := []struct{ key, value string }{
		{KeyMachineID, i.MachineID},
		{KeyMacMachineID, i.MacMachineID},
		{KeyDevDeviceID, i.DevDeviceID},
		{KeySqmID, i.SqmID},
	}
	for _, v := range values {
		if v.value == "" {
			continue
		}
		raw, err := json.Marshal(v.value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", v.key, err)
		}
		record.Set(v.key, raw)
	}
	return nil
}

func (i *Identity) String() string {
	data, err := encode(i)
	if err != nil {
		return fmt.Sprintf("%+v", *i)
	}
	return string(data)
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
