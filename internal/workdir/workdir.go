// Package workdir owns the scratch and output directories of a run.
package workdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrNotDirectory = errors.New("workdir: path exists and is not a directory")

// Reset deletes dir with everything in it and creates it again empty.
// It succeeds whether or not dir existed before.
func Reset(dir string) error {
	if info, err := os.Lstat(dir); err == nil && !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("workdir: remove %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("workdir: create %s: %w", dir, err)
	}
	return nil
}

// Remove deletes dir and its contents. A missing dir is not an error.
func Remove(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("workdir: remove %s: %w", dir, err)
	}
	return nil
}

// List returns the names of regular files in dir that start with prefix.
// os.ReadDir sorts by name, so the result is in lexicographic order.
func List(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Path joins dir and name.
func Path(dir, name string) string {
	return filepath.Join(dir, name)
}
