package util

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CollectFiles expands files and directories into a sorted, de-duplicated list of files
// whose extension matches one of exts (case-insensitive, with leading dot).
// Files named explicitly are always included regardless of extension.
// Directories are only descended into when recursive is true.
func CollectFiles(paths []string, exts []string, recursive bool) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		clean := filepath.Clean(path)
		if !seen[clean] {
			seen[clean] = true
			files = append(files, clean)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat path: %w", err)
		}

		if !info.IsDir() {
			add(root)
			continue
		}

		walkFunc := func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				if !recursive && path != root {
					return filepath.SkipDir
				}
				return nil
			}

			if HasExtension(path, exts) {
				add(path)
			}
			return nil
		}

		if err := filepath.WalkDir(root, walkFunc); err != nil {
			return nil, fmt.Errorf("failed to walk directory: %w", err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// HasExtension reports whether path ends in one of exts (case-insensitive)
func HasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// OutputPath returns the path for a derived file of src with the extension replaced by ext.
// When outDir is empty the file sits next to src.
func OutputPath(src, outDir, ext string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ext
	if outDir == "" {
		return filepath.Join(filepath.Dir(src), base)
	}
	return filepath.Join(outDir, base)
}
