package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/castor/internal/errors"
)

// skipDirs are never scanned for packages
var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"testdata":     true,
	"_examples":    true,
}

// DirectoryScanner resolves directory arguments into package directories
type DirectoryScanner struct{}

// NewDirectoryScanner creates a new directory scanner
func NewDirectoryScanner() *DirectoryScanner {
	return &DirectoryScanner{}
}

// ScanDirectories returns the directories holding non-test Go files. A plain
// path names one directory; "dir/..." walks dir and its subdirectories.
// Results are absolute and deduplicated, in walk order.
func (s *DirectoryScanner) ScanDirectories(patterns []string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, pattern := range patterns {
		base, recursive := splitPattern(pattern)
		absBase, err := filepath.Abs(base)
		if err != nil {
			return nil, errors.WrapFileSystemError("resolve", base, err)
		}
		info, err := os.Stat(absBase)
		if err != nil {
			return nil, errors.WrapFileSystemError("stat", base, err)
		}
		if !info.IsDir() {
			return nil, errors.New(errors.FileSystemErrorCode, absBase+" is not a directory")
		}

		if !recursive {
			if ok, err := hasGoFiles(absBase); err != nil {
				return nil, err
			} else if ok {
				add(absBase)
			}
			continue
		}

		err = filepath.WalkDir(absBase, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			name := d.Name()
			if path != absBase && (skipDirs[name] || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			ok, err := hasGoFiles(path)
			if err != nil {
				return err
			}
			if ok {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.WrapFileSystemError("walk", absBase, err)
		}
	}
	return dirs, nil
}

// splitPattern separates a Go-style "dir/..." pattern into its base
func splitPattern(pattern string) (string, bool) {
	if pattern == "..." {
		return ".", true
	}
	if base, ok := strings.CutSuffix(pattern, "/..."); ok {
		if base == "" {
			base = "."
		}
		return base, true
	}
	return pattern, false
}

// hasGoFiles checks if a directory contains .go files other than tests
func hasGoFiles(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, errors.WrapFileSystemError("read directory", dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
			return true, nil
		}
	}
	return false, nil
}
