package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

// ModuleInfo is what the generator needs to know about the enclosing module
type ModuleInfo struct {
	Path     string // module path
	Dir      string // directory holding go.mod
	requires map[string]bool
}

// FindGoModFile searches for go.mod starting from startDir and walking up
func FindGoModFile(startDir string) (string, error) {
	currentDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(currentDir, "go.mod")
		if info, err := os.Stat(goModPath); err == nil && !info.IsDir() {
			return goModPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", fmt.Errorf("go.mod file not found")
}

// ParseGoMod parses a go.mod file with the official modfile parser
func ParseGoMod(goModPath string) (*ModuleInfo, error) {
	content, err := os.ReadFile(goModPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read go.mod file: %w", err)
	}

	modFile, err := modfile.Parse(goModPath, content, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod file: %w", err)
	}
	if modFile.Module == nil {
		return nil, fmt.Errorf("no module declaration found in %s", goModPath)
	}

	info := &ModuleInfo{
		Path:     modFile.Module.Mod.Path,
		Dir:      filepath.Dir(goModPath),
		requires: make(map[string]bool, len(modFile.Require)),
	}
	for _, r := range modFile.Require {
		info.requires[r.Mod.Path] = true
	}
	return info, nil
}

// FindModule locates and parses the go.mod enclosing dir
func FindModule(dir string) (*ModuleInfo, error) {
	goModPath, err := FindGoModFile(dir)
	if err != nil {
		return nil, err
	}
	return ParseGoMod(goModPath)
}

// Requires reports whether the module is, or depends on, modulePath
func (m *ModuleInfo) Requires(modulePath string) bool {
	return m.Path == modulePath || m.requires[modulePath]
}

// ImportPath builds the import path of a package directory inside the module
func (m *ModuleInfo) ImportPath(packageDir string) (string, error) {
	absDir, err := filepath.Abs(packageDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(m.Dir, absDir)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside module %s", packageDir, m.Path)
	}

	importPath := m.Path
	if rel != "." {
		importPath = m.Path + "/" + rel
	}
	if err := module.CheckImportPath(importPath); err != nil {
		return "", err
	}
	return importPath, nil
}
