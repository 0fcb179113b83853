package installer

import (
	"fmt"
	"os"
)

// installerCommand returns how a downloaded installer is run on goos.
func installerCommand(goos, path string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{"-W", path}, nil
	case "windows":
		return path, nil, nil
	default:
		if err := os.Chmod(path, 0755); err != nil {
			return "", nil, fmt.Errorf("failed to make installer executable: %w", err)
		}
		return path, nil, nil
	}
}
