package utils

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

// Module is the Go module enclosing a directory
type Module struct {
	Path string // module path from the module directive
	Dir  string // directory holding go.mod
}

// FindModule searches for go.mod starting from startDir and walking up
func FindModule(startDir string) (Module, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return Module{}, fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			name, err := ParseModuleName(goModPath)
			if err != nil {
				return Module{}, err
			}
			return Module{Path: name, Dir: dir}, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Module{}, fmt.Errorf("go.mod file not found above %s", startDir)
		}
		dir = parent
	}
}

// ParseModuleName extracts the module path from a go.mod file
func ParseModuleName(goModPath string) (string, error) {
	cleanPath := filepath.Clean(goModPath)
	if filepath.Base(cleanPath) != "go.mod" {
		return "", fmt.Errorf("file is not a go.mod file: %s", goModPath)
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod file: %w", err)
	}

	modFile, err := modfile.ParseLax(cleanPath, content, nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse go.mod file: %w", err)
	}
	if modFile.Module == nil {
		return "", fmt.Errorf("no module declaration found in %s", goModPath)
	}
	return modFile.Module.Mod.Path, nil
}

// ValidateModulePath rejects strings that cannot be module paths
func ValidateModulePath(p string) error {
	return module.CheckImportPath(p)
}

// Shorten rewrites component identities inside s relative to the module,
// so example.com/app/weather.Clock becomes weather.Clock
func (m Module) Shorten(s string) string {
	if m.Path == "" {
		return s
	}
	s = strings.ReplaceAll(s, m.Path+"/", "")
	return strings.ReplaceAll(s, m.Path+".", path.Base(m.Path)+".")
}

// Expand is the inverse of Shorten for a single identity or package path.
// Values whose first path element looks like a host are already qualified.
func (m Module) Expand(s string) string {
	if m.Path == "" || s == "" || isQualified(s) {
		return s
	}
	if base := path.Base(m.Path); s == base || strings.HasPrefix(s, base+".") {
		return m.Path + s[len(base):]
	}
	return m.Path + "/" + s
}

func isQualified(s string) bool {
	first, _, hasSlash := strings.Cut(s, "/")
	return hasSlash && strings.Contains(first, ".")
}
