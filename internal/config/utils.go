package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindProjectRoot walks up from startDir to the first directory holding a
// go.mod and returns its absolute path.
func FindProjectRoot(startDir string) (string, error) {
	return findUp(startDir, "go.mod")
}

// FindEnvFile walks up from startDir to the first .env file. The walk stops
// at the project root so a stray file above the module is never picked up.
func FindEnvFile(startDir string) (string, error) {
	dir, err := findUp(startDir, ".env", "go.mod")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf(".env not found below %s", dir)
	}
	return path, nil
}

// findUp returns the first directory, starting at startDir, that holds any of
// names.
func findUp(startDir string, names ...string) (string, error) {
	current, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	for {
		for _, name := range names {
			if _, err := os.Stat(filepath.Join(current, name)); err == nil {
				return current, nil
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("%s not found in any parent directory", names[0])
		}
		current = parent
	}
}
