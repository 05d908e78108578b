package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/toyz/servicereg/internal/config"
	"github.com/toyz/servicereg/internal/errors"
	"github.com/toyz/servicereg/internal/manifest"
	"github.com/toyz/servicereg/internal/utils"
	"github.com/toyz/servicereg/pkg/servicereg"
)

// RunOptions selects what to compose
type RunOptions struct {
	Dir      string   // working directory, "." when empty
	Patterns []string // overrides config packages.patterns when set
	Module   string   // overrides config module when set
	Config   config.Config
}

// Result is a composed plan together with the source it came from
type Result struct {
	Module   utils.Module
	Manifest *manifest.Manifest
	Plan     *servicereg.Plan
}

// Composer runs the load, scan and resolve pipeline behind the plan and
// generate commands
type Composer struct {
	moduleResolver *ModuleResolver
	diagnostics    *utils.DiagnosticSystem
}

// NewComposer creates a composer reporting through diagnostics
func NewComposer(diagnostics *utils.DiagnosticSystem) *Composer {
	if diagnostics == nil {
		diagnostics = utils.NewQuietDiagnostics()
	}
	return &Composer{
		moduleResolver: NewModuleResolver(),
		diagnostics:    diagnostics,
	}
}

// Run loads the annotated packages and composes them into a plan
func (c *Composer) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	start := time.Now()
	d := c.diagnostics

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = opts.Config.Packages.Patterns
	}
	custom := opts.Module
	if custom == "" {
		custom = opts.Config.Module
	}

	mod, err := c.moduleResolver.ResolveModule(dir, custom)
	if err != nil {
		return nil, err
	}
	d.Debug("module %s at %s", mod.Path, mod.Dir)
	d.Verbose("configuration: %s", opts.Config)

	m, err := manifest.Load(ctx, manifest.Options{Dir: dir, Patterns: patterns, Logger: d})
	if err != nil {
		return nil, err
	}
	m.Module = mod

	annotated := 0
	for _, pkg := range m.Packages {
		annotated += pkg.Annotated
	}
	d.PhaseItem("Loaded " + plural(len(m.Packages), "package") + ", " + plural(annotated, "annotated type"))

	plan, err := servicereg.ComposeDescriptors(m.Descriptors, opts.Config.ComposeOptions(mod, d))
	if err != nil {
		return nil, err
	}
	d.PhaseItem("Composed " + plural(plan.Len(), "binding"))
	d.Debug("composition took %s", time.Since(start).Round(time.Millisecond))

	return &Result{Module: mod, Manifest: m, Plan: plan}, nil
}

// TargetPackage picks the package name for a generated file in dir. The
// loaded packages are consulted first so the name matches the source.
func (r *Result) TargetPackage(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.WrapFileSystemError("resolve", dir, err)
	}
	for _, pkg := range r.Manifest.Packages {
		if pkg.Dir == abs {
			return pkg.Name, nil
		}
	}
	return "", errors.Newf(errors.GenerationErrorCode, "no loaded package in %s", dir).
		WithSuggestion("include the target directory in the package patterns")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
