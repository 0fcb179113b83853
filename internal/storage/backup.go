package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const backupTimeLayout = "20060102_150405"

func BackupPath(path string, now time.Time) string {
	return path + ".backup_" + now.Format(backupTimeLayout)
}

// Backup copies path next to itself with a timestamp suffix. A missing
// file is not an error and yields an empty backup path.
func Backup(path string, now time.Time) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = src.Close()
	}()

	info, err := src.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	backupPath := BackupPath(path, now)
	out, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}

	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close backup file: %w", err)
	}

	if err := os.Chtimes(backupPath, info.ModTime(), info.ModTime()); err != nil {
		return "", fmt.Errorf("failed to preserve modification time: %w", err)
	}
	return backupPath, nil
}
