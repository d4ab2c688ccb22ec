package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jpsoriano/permit-extractor/constants"
)

// ScanDirectory walks root and returns the absolute paths of every supported
// document, sorted for stable pass ordering. Hidden files and directories are
// skipped. Unwalkable subtrees are skipped rather than aborting the scan.
func ScanDirectory(root string) ([]string, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("input directory is required")
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(path) && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !Allowed(path) {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil
		}
		paths = append(paths, abs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Allowed reports whether path carries a supported document extension.
func Allowed(path string) bool {
	ext := constants.NormalizeExt(filepath.Ext(path))
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
