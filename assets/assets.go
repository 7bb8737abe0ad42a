// Package assets holds the scene description files of the simulated
// environments
package assets

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

//go:embed sawyer_xyz/*.xml
var files embed.FS

// SawyerWindowHorizontal is the scene of a Sawyer hand in front of a
// horizontally sliding window
const SawyerWindowHorizontal = "sawyer_xyz/sawyer_window_horizontal.xml"

// IsFile returns whether path refers to the file system rather than
// to an embedded asset. Absolute paths and paths starting with ./ or
// ../ refer to the file system.
func IsFile(path string) bool {
	return filepath.IsAbs(path) || strings.HasPrefix(path, "./") ||
		strings.HasPrefix(path, "../")
}

// Open opens the asset at path. Embedded assets are looked up by
// their name relative to the asset directory.
func Open(path string) (io.ReadCloser, error) {
	if IsFile(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open: %v", err)
		}
		return f, nil
	}

	f, err := files.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: no such asset '%v': %v", path, err)
	}
	return f, nil
}

// FullPath returns a path on the file system holding the asset. Assets
// already on the file system are returned unchanged, embedded assets
// are written to a temporary directory. This is needed by engines
// which can only load scenes from disk.
func FullPath(path string) (string, error) {
	if IsFile(path) {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("fullPath: no such path '%v'", path)
		}
		return path, nil
	}

	data, err := files.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("fullPath: no such asset '%v': %v", path, err)
	}

	dir, err := os.MkdirTemp("", "multiworld-assets")
	if err != nil {
		return "", fmt.Errorf("fullPath: could not create asset dir: %v", err)
	}
	full := filepath.Join(dir, filepath.Base(path))
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("fullPath: could not write asset: %v", err)
	}
	return full, nil
}
