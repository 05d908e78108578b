// Package manifest builds composition candidates from annotated Go source.
// Packages are loaded with golang.org/x/tools/go/packages; the contracts a
// type exposes are the interfaces of the loaded packages it implements.
package manifest

import (
	"context"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/toyz/servicereg/internal/annotations"
	"github.com/toyz/servicereg/internal/errors"
	"github.com/toyz/servicereg/internal/models"
	"github.com/toyz/servicereg/internal/utils"
)

// Options controls which packages are loaded
type Options struct {
	Dir      string   // directory patterns are relative to
	Patterns []string // package patterns, "./..." when empty
	Logger   utils.Logger
}

// Manifest is everything learned from the loaded source
type Manifest struct {
	Module      utils.Module
	Packages    []*Package
	Descriptors []models.TypeDescriptor
}

// Package is one loaded package and the annotated types found in it
type Package struct {
	Path      string
	Name      string
	Dir       string
	Annotated int
}

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo

// Load type-checks the packages matched by opts and describes every named
// non-interface type in them, in package path then declaration order
func Load(ctx context.Context, opts Options) (*Manifest, error) {
	log := utils.LoggerOrNop(opts.Logger)
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	mod, err := utils.FindModule(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ConfigurationErrorCode, "failed to locate module", err).
			WithSuggestion("run inside a Go module or pass --module")
	}

	fset := token.NewFileSet()
	pkgs, err := packages.Load(&packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     dir,
		Fset:    fset,
	}, patterns...)
	if err != nil {
		return nil, errors.Wrapf(errors.GenerationErrorCode, err, "failed to load packages %s", strings.Join(patterns, " "))
	}
	if err := packageErrors(pkgs); err != nil {
		return nil, err
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].PkgPath < pkgs[j].PkgPath })
	log.Verbose("manifest: loaded %d packages from %s", len(pkgs), mod.Path)

	l := &loader{fset: fset, pkgs: pkgs, log: log, errs: errors.NewMultipleErrors()}
	l.collectInterfaces()

	m := &Manifest{Module: mod}
	for _, pkg := range pkgs {
		found := l.describePackage(pkg)
		annotated := 0
		for _, td := range found {
			if td.Kind != models.NoMetadata {
				annotated++
			}
		}
		m.Descriptors = append(m.Descriptors, found...)
		m.Packages = append(m.Packages, &Package{
			Path:      pkg.PkgPath,
			Name:      pkg.Name,
			Dir:       packageDir(pkg),
			Annotated: annotated,
		})
	}

	if err := l.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return m, nil
}

func packageErrors(pkgs []*packages.Package) error {
	errs := errors.NewMultipleErrors()
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		for _, e := range pkg.Errors {
			errs.Add(errors.Newf(errors.GenerationErrorCode, "%s: %s", pkg.PkgPath, e.Msg).
				WithLocation(parsePos(e.Pos)))
		}
	})
	return errs.ErrorOrNil()
}

// parsePos turns "file:line:col" into a location, keeping what it can
func parsePos(pos string) errors.SourceLocation {
	var loc errors.SourceLocation
	parts := strings.Split(pos, ":")
	if len(parts) == 0 || parts[0] == "" || parts[0] == "-" {
		return loc
	}
	loc.File = parts[0]
	if len(parts) > 1 {
		loc.Line, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		loc.Column, _ = strconv.Atoi(parts[2])
	}
	return loc
}

func packageDir(pkg *packages.Package) string {
	if len(pkg.GoFiles) == 0 {
		return ""
	}
	return filepath.Dir(pkg.GoFiles[0])
}

type contract struct {
	id    models.ContractID
	iface *types.Interface
}

type loader struct {
	fset       *token.FileSet
	pkgs       []*packages.Package
	interfaces []contract
	log        utils.Logger
	errs       *errors.MultipleErrors
}

// collectInterfaces records the non-empty, non-generic interfaces declared
// in the loaded packages
func (l *loader) collectInterfaces() {
	for _, pkg := range l.pkgs {
		for _, name := range declaredTypeNames(pkg) {
			obj, ok := pkg.Types.Scope().Lookup(name).(*types.TypeName)
			if !ok {
				continue
			}
			named, ok := obj.Type().(*types.Named)
			if !ok || named.TypeParams().Len() > 0 {
				continue
			}
			iface, ok := named.Underlying().(*types.Interface)
			if !ok || iface.NumMethods() == 0 {
				continue
			}
			l.interfaces = append(l.interfaces, contract{id: models.ContractID(qualify(pkg.PkgPath, name)), iface: iface})
		}
	}
	l.log.Debug("manifest: %d candidate contracts", len(l.interfaces))
}

// declaredTypeNames lists package-level type names in file then source order
func declaredTypeNames(pkg *packages.Package) []string {
	var names []string
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				names = append(names, spec.(*ast.TypeSpec).Name.Name)
			}
		}
	}
	return names
}

func (l *loader) describePackage(pkg *packages.Package) []models.TypeDescriptor {
	var out []models.TypeDescriptor
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && len(gen.Specs) == 1 {
					doc = gen.Doc
				}
				if td, ok := l.describe(pkg, ts, doc); ok {
					out = append(out, td)
				}
			}
		}
	}
	return out
}

func (l *loader) describe(pkg *packages.Package, ts *ast.TypeSpec, doc *ast.CommentGroup) (models.TypeDescriptor, bool) {
	obj, ok := pkg.Types.Scope().Lookup(ts.Name.Name).(*types.TypeName)
	if !ok {
		return models.TypeDescriptor{}, false
	}

	annotation, err := l.annotationOf(doc)
	if err != nil {
		l.fail(err)
		return models.TypeDescriptor{}, false
	}

	_, isInterface := obj.Type().Underlying().(*types.Interface)
	generic := ts.TypeParams != nil && ts.TypeParams.NumFields() > 0
	if isInterface || generic || obj.IsAlias() {
		if annotation != nil {
			l.errs.Add(errors.Newf(errors.AnnotationErrorCode,
				"%s annotation on %s: only non-generic concrete types can be components", annotation.Type, ts.Name.Name).
				WithLocation(location(annotation.Location)))
		}
		return models.TypeDescriptor{}, false
	}

	td := models.TypeDescriptor{
		ID:        models.ImplementationID(qualify(pkg.PkgPath, ts.Name.Name)),
		Unit:      pkg.PkgPath,
		Kind:      models.NoMetadata,
		Contracts: l.exposed(obj.Type()),
	}
	if annotation == nil {
		return td, true
	}
	td.Kind = annotation.Type.Kind()

	if td.Lifetime, err = annotation.Lifetime(); err != nil {
		l.errs.Add(errors.Wrap(errors.AnnotationErrorCode, "invalid lifetime", err).WithLocation(location(annotation.Location)))
		return models.TypeDescriptor{}, false
	}
	if name := annotation.GetString(annotations.ContractParam); name != "" {
		td.Contract = models.ContractID(l.resolveName(pkg, name))
	}
	if name := annotation.GetString(annotations.WrapsParam); name != "" {
		td.Wraps = models.ImplementationID(l.resolveName(pkg, name))
	}

	l.log.Debug("manifest: %s %s (%v)", td.Kind, td.ID, td.Contracts)
	return td, true
}

// annotationOf parses the single servicereg annotation of a doc comment, if any
func (l *loader) annotationOf(doc *ast.CommentGroup) (*annotations.ParsedAnnotation, error) {
	if doc == nil {
		return nil, nil
	}
	var found *annotations.ParsedAnnotation
	for _, c := range doc.List {
		if !annotations.IsAnnotation(c.Text) {
			continue
		}
		pos := l.fset.Position(c.Pos())
		parsed, err := annotations.Parse(c.Text, annotations.SourceLocation{File: pos.Filename, Line: pos.Line, Column: pos.Column})
		if err != nil {
			return nil, err
		}
		if found != nil {
			return nil, errors.Newf(errors.AnnotationErrorCode, "type carries both %s and %s annotations", found.Type, parsed.Type).
				WithLocation(location(parsed.Location))
		}
		found = parsed
	}
	return found, nil
}

// exposed lists the known contracts implemented by T or *T
func (l *loader) exposed(t types.Type) []models.ContractID {
	ptr := types.NewPointer(t)
	var out []models.ContractID
	for _, c := range l.interfaces {
		if types.Implements(t, c.iface) || types.Implements(ptr, c.iface) {
			out = append(out, c.id)
		}
	}
	return out
}

// resolveName qualifies a type name written in an annotation. Bare names
// belong to the annotated package; a qualifier may be a full package path,
// a path suffix or a package name of any loaded package.
func (l *loader) resolveName(pkg *packages.Package, name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return qualify(pkg.PkgPath, name)
	}
	qualifier, typeName := name[:i], name[i+1:]
	for _, candidate := range l.pkgs {
		if candidate.PkgPath == qualifier {
			return qualify(candidate.PkgPath, typeName)
		}
	}
	for _, candidate := range l.pkgs {
		if strings.HasSuffix(candidate.PkgPath, "/"+qualifier) || candidate.Name == qualifier {
			return qualify(candidate.PkgPath, typeName)
		}
	}
	return name
}

func (l *loader) fail(err error) {
	var se errors.ServiceError
	if !errors.As(err, &se) {
		se = errors.Wrap(errors.AnnotationErrorCode, "invalid annotation", err)
	}
	l.errs.Add(se)
}

func qualify(pkgPath, name string) string {
	return pkgPath + "." + name
}

func location(loc annotations.SourceLocation) errors.SourceLocation {
	return errors.SourceLocation{File: loc.File, Line: loc.Line, Column: loc.Column}
}
