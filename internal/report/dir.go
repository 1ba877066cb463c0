// Package report writes the per-run detection outputs: the fake attendance
// spreadsheet, the detection log and a markdown summary.
package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// maxSuffix bounds the search for a free folder name.
const maxSuffix = 10000

// UniqueDir creates parent/base, or parent/base-1, parent/base-2, ... when
// the name is taken, and returns the created path. Existing folders are never reused.
func UniqueDir(parent, base string) (string, error) {
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", parent, err)
	}

	for i := 0; i < maxSuffix; i++ {
		name := base
		if i > 0 {
			name = base + "-" + strconv.Itoa(i)
		}
		dir := filepath.Join(parent, name)

		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return "", fmt.Errorf("no free folder name for %s after %d attempts", base, maxSuffix)
}
