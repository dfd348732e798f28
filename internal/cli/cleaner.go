package cli

import (
	"github.com/toyz/castor/internal/generator"
)

// Cleaner removes generated manifests
type Cleaner struct {
	scanner *DirectoryScanner
}

// NewCleaner creates a new cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{scanner: NewDirectoryScanner()}
}

// CleanGeneratedFiles removes castor_manifest.go from every package matched by
// patterns and returns the directories that had one
func (c *Cleaner) CleanGeneratedFiles(patterns []string) ([]string, error) {
	dirs, err := c.scanner.ScanDirectories(patterns)
	if err != nil {
		return nil, err
	}

	var cleaned []string
	for _, dir := range dirs {
		removed, err := generator.Remove(dir)
		if err != nil {
			return cleaned, err
		}
		if removed {
			cleaned = append(cleaned, dir)
		}
	}
	return cleaned, nil
}
