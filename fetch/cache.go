package fetch

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// CleanupOlderThan deletes files in dir matching pattern whose modification
// time is more than maxAge before now. A missing dir is not an error.
func CleanupOlderThan(dir, pattern string, maxAge time.Duration, now time.Time) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	cutoff := now.Add(-maxAge)
	deleted := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return deleted, fmt.Errorf("failed to delete %s: %w", path, err)
		}
		log.Printf("Deleting old file: %s", filepath.Base(path))
		deleted++
	}
	return deleted, nil
}

// RemoveObsolete deletes the PDFs in dir whose names are not in keep.
func RemoveObsolete(dir string, keep map[string]bool) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range matches {
		if keep[filepath.Base(path)] {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to delete %s: %w", path, err)
		}
		log.Printf("Removing obsolete standard schedule: %s", filepath.Base(path))
		removed++
	}
	return removed, nil
}
