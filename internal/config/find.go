package config

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when no configuration file exists in a directory
// or any of its parents.
var ErrNotFound = errors.New(DefaultFileName + " not found in the current directory or any parent")

// Find walks up from the current working directory until it finds a
// configuration file.
func Find() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindFrom(cwd)
}

// FindFrom walks up from startDir until it finds a configuration file and
// returns its path.
func FindFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		path := filepath.Join(dir, DefaultFileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// ResolveRoot makes a relative report root relative to the directory of
// the configuration file at path.
func ResolveRoot(cfg *Config, path string) {
	if filepath.IsAbs(cfg.Root) {
		return
	}
	cfg.Root = filepath.Join(filepath.Dir(path), cfg.Root)
}
