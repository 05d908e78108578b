package cli

import (
	"bytes"
	"path/filepath"
	"text/template"

	"github.com/toyz/servicereg/internal/errors"
	"github.com/toyz/servicereg/internal/models"
	"github.com/toyz/servicereg/internal/utils"
)

// FacadeImportPath is the package generated code refers to
const FacadeImportPath = "github.com/toyz/servicereg/pkg/servicereg"

const planTemplate = `// Code generated by servicereg. DO NOT EDIT.

package {{.Package}}

import "{{.Import}}"

// GeneratedBindings is the registration plan composed from {{.Source}}
var GeneratedBindings = []servicereg.Binding{
{{- range .Bindings}}
	{Contract: {{printf "%q" .Contract}}, Implementation: {{printf "%q" .Implementation}}, Lifetime: servicereg.{{.Lifetime}}
	{{- if .Decorator}}, Decorator: {{printf "%q" .Decorator}}{{end}}, Role: servicereg.{{role .Role}}},
{{- end}}
}

// GeneratedPlan returns GeneratedBindings as a plan ready to apply
func GeneratedPlan() *servicereg.Plan {
	return servicereg.NewPlan(GeneratedBindings)
}
`

var planFile = template.Must(template.New("plan").Funcs(template.FuncMap{
	"role": roleConstant,
}).Parse(planTemplate))

func roleConstant(r models.BindingRole) string {
	switch r {
	case models.AccessorBinding:
		return "AccessorBinding"
	case models.DecoratedBinding:
		return "DecoratedBinding"
	case models.DecoratorBinding:
		return "DecoratorBinding"
	default:
		return "PlainBinding"
	}
}

// GenerateRequest describes one generated file
type GenerateRequest struct {
	Dir      string // target package directory
	Package  string // target package name
	Source   string // human readable origin, e.g. the module path
	Bindings []models.Binding
}

// Generator writes composed plans as Go source
type Generator struct{}

// NewGenerator creates a new generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Render returns the formatted source of the generated file
func (g *Generator) Render(req GenerateRequest) ([]byte, error) {
	if req.Package == "" {
		return nil, errors.New(errors.GenerationErrorCode, "generated file needs a package name")
	}

	var buf bytes.Buffer
	err := planFile.Execute(&buf, struct {
		GenerateRequest
		Import string
	}{req, FacadeImportPath})
	if err != nil {
		return nil, errors.WrapGenerateError(req.Package, err)
	}

	src, err := utils.FormatGoCode(GeneratedFileName, buf.Bytes())
	if err != nil {
		return nil, errors.WrapGenerateError(req.Package, err)
	}
	return src, nil
}

// Generate renders req and writes it to Dir, returning the written path
func (g *Generator) Generate(req GenerateRequest) (string, error) {
	src, err := g.Render(req)
	if err != nil {
		return "", err
	}

	file := filepath.Join(req.Dir, GeneratedFileName)
	if err := utils.FormatAndWriteGoFile(file, src); err != nil {
		return "", errors.WrapFileSystemError("write", file, err)
	}
	return file, nil
}
