package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/servicereg/internal/errors"
	"github.com/toyz/servicereg/internal/utils"
)

// ModuleResolver handles resolving Go module information
type ModuleResolver struct{}

// NewModuleResolver creates a new module resolver
func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{}
}

// ResolveModule finds the module enclosing dir. A non-empty customModule
// replaces the path read from go.mod, which is how identities are shortened
// when the tool runs against a checkout under a different name.
func (r *ModuleResolver) ResolveModule(dir, customModule string) (utils.Module, error) {
	mod, err := utils.FindModule(dir)
	if err != nil {
		if customModule == "" {
			return utils.Module{}, errors.WrapConfigurationError("go.mod", "locate", err).
				WithSuggestion("run from inside a Go module or pass --module")
		}
		abs, absErr := filepath.Abs(dir)
		if absErr != nil {
			return utils.Module{}, errors.WrapFileSystemError("resolve", dir, absErr)
		}
		mod = utils.Module{Dir: abs}
	}

	if customModule != "" {
		if err := utils.ValidateModulePath(customModule); err != nil {
			return utils.Module{}, errors.WrapConfigurationError("--module", "validate", err)
		}
		mod.Path = customModule
	}
	return mod, nil
}

// BuildPackagePath builds the import path for a package directory inside mod
func (r *ModuleResolver) BuildPackagePath(mod utils.Module, packageDir string) (string, error) {
	abs, err := filepath.Abs(packageDir)
	if err != nil {
		return "", errors.WrapFileSystemError("resolve", packageDir, err)
	}

	rel, err := filepath.Rel(mod.Dir, abs)
	if err != nil {
		return "", errors.WrapFileSystemError("relate", packageDir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", errors.Newf(errors.ConfigurationErrorCode, "%s is outside module %s", packageDir, mod.Path)
	}

	importPath := filepath.ToSlash(rel)
	if importPath == "." {
		return mod.Path, nil
	}
	return mod.Path + "/" + importPath, nil
}
