package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dirvault/dirvault/internal/config"
	derrors "github.com/dirvault/dirvault/internal/errors"
)

// Validate confirms that root exists, is a readable directory, and carries
// the .dirvault marker. Every mutating operation calls this first; it is the
// sole safety gate preventing dirvault from encrypting or committing in an
// unintended directory.
func Validate(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", derrors.ErrInvalidProjectRoot, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", derrors.ErrInvalidProjectRoot, root)
	}

	if _, err := os.ReadDir(root); err != nil {
		return fmt.Errorf("%w: %s is not readable: %v", derrors.ErrInvalidProjectRoot, root, err)
	}

	markerPath := filepath.Join(root, config.MarkerDir, "config.toml")
	if _, err := os.Stat(markerPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s has no %s marker", derrors.ErrInvalidProjectRoot, root, config.MarkerDir)
		}
		return fmt.Errorf("%w: checking marker at %s: %v", derrors.ErrInvalidProjectRoot, markerPath, err)
	}

	return nil
}

// FindRoot traverses up from the working directory to find the project root.
// Returns the path to the project root if found, empty string otherwise.
// Stops searching when it reaches one level above the user's home directory.
func FindRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	for {
		if currentDir == filepath.Dir(homeDir) {
			return "", nil
		}

		markerDir := filepath.Join(currentDir, config.MarkerDir)
		fileInfo, err := os.Stat(markerDir)
		if err == nil {
			if fileInfo.IsDir() {
				return currentDir, nil
			}
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("error checking for %s at %s: %w", config.MarkerDir, currentDir, err)
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", nil
		}
		currentDir = parentDir
	}
}
