// Package delivery runs the pipeline steps. Each step reads the data/ tree left by the previous
// ones and writes its own outputs there.
package delivery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

func globSorted(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// moveFile renames src into dir, keeping its base name.
func moveFile(src, dir string) (string, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	target := filepath.Join(dir, filepath.Base(src))
	if err := os.Rename(src, target); err != nil {
		return "", fmt.Errorf("failed to move %s to %s: %w", src, dir, err)
	}
	return target, nil
}
