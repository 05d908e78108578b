// Package annotations parses servicereg comment annotations such as
//
//	//servicereg::service -Lifetime=Scoped -Contract=Forecaster
//	//servicereg::decorator -Wraps=ForecastService
//	//servicereg::ignore
package annotations

import (
	"fmt"
	"strings"

	"github.com/toyz/servicereg/internal/models"
)

// Prefix starts every annotation comment
const Prefix = "//servicereg::"

// AnnotationType represents the type of annotation
type AnnotationType int

const (
	ServiceAnnotation AnnotationType = iota
	DecoratorAnnotation
	IgnoreAnnotation
)

// String returns the string representation of the annotation type
func (a AnnotationType) String() string {
	switch a {
	case ServiceAnnotation:
		return "service"
	case DecoratorAnnotation:
		return "decorator"
	case IgnoreAnnotation:
		return "ignore"
	default:
		return "unknown"
	}
}

// ParseAnnotationType converts string to AnnotationType
func ParseAnnotationType(s string) (AnnotationType, error) {
	switch s {
	case "service":
		return ServiceAnnotation, nil
	case "decorator":
		return DecoratorAnnotation, nil
	case "ignore":
		return IgnoreAnnotation, nil
	default:
		return 0, fmt.Errorf("unknown annotation type: %s", s)
	}
}

// Kind maps the annotation onto the candidate kind it declares
func (a AnnotationType) Kind() models.CandidateKind {
	switch a {
	case ServiceAnnotation:
		return models.ImplementationKind
	case DecoratorAnnotation:
		return models.DecoratorKind
	case IgnoreAnnotation:
		return models.IgnoredKind
	default:
		return models.NoMetadata
	}
}

// SourceLocation represents the location of an annotation in source code
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// ParsedAnnotation is a parsed and schema-checked annotation
type ParsedAnnotation struct {
	Type       AnnotationType
	Parameters map[string]string
	Location   SourceLocation
	Raw        string
}

// GetString returns a parameter value with optional default
func (p *ParsedAnnotation) GetString(name string, defaultValue ...string) string {
	if v, ok := p.Parameters[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// HasParameter checks if a parameter exists
func (p *ParsedAnnotation) HasParameter(name string) bool {
	_, ok := p.Parameters[name]
	return ok
}

// Lifetime returns the declared lifetime, Transient when absent
func (p *ParsedAnnotation) Lifetime() (models.Lifetime, error) {
	v, ok := p.Parameters[LifetimeParam]
	if !ok {
		return models.Transient, nil
	}
	return models.ParseLifetime(v)
}

// IsAnnotation reports whether a comment line is a servicereg annotation
func IsAnnotation(comment string) bool {
	comment = strings.TrimSpace(comment)
	if !strings.HasPrefix(comment, "//") {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(comment[2:]), "servicereg::")
}

// ParameterSpec defines one annotation parameter
type ParameterSpec struct {
	Required    bool
	Description string
	Validator   func(string) error
}

// CustomValidator checks a parsed annotation as a whole
type CustomValidator func(*ParsedAnnotation) error

// AnnotationSchema defines the schema for an annotation type
type AnnotationSchema struct {
	Type        AnnotationType
	Description string
	Parameters  map[string]ParameterSpec
	Validators  []CustomValidator
	Examples    []string
}
