package annotations

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/toyz/servicereg/internal/errors"
)

// ParticipleParser parses annotation comments with alecthomas/participle
// and checks them against a schema registry
type ParticipleParser struct {
	parser   *participle.Parser[annotationAST]
	registry AnnotationRegistry
}

// annotationAST is the grammar root: //servicereg::<type> [-Key=Value]...
type annotationAST struct {
	Pos    lexer.Position
	Type   string      `parser:"Comment 'servicereg' Separator @Name"`
	Params []*paramAST `parser:"@@*"`
}

type paramAST struct {
	Pos   lexer.Position
	Key   string  `parser:"Dash @Name"`
	Value *string `parser:"( Equals @(String | Name) )?"`
}

var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//`},
	{Name: "Separator", Pattern: `::`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Name", Pattern: `[a-zA-Z_][\w.\-/~\[\]]*`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// NewParticipleParser creates a parser validating against registry.
// A nil registry skips schema validation.
func NewParticipleParser(registry AnnotationRegistry) *ParticipleParser {
	return &ParticipleParser{
		parser: participle.MustBuild[annotationAST](
			participle.Lexer(annotationLexer),
			participle.Elide("Whitespace"),
			participle.Unquote("String"),
		),
		registry: registry,
	}
}

var (
	defaultParser     *ParticipleParser
	defaultParserOnce sync.Once
)

// Parse parses comment with the builtin schemas
func Parse(comment string, location SourceLocation) (*ParsedAnnotation, error) {
	defaultParserOnce.Do(func() {
		defaultParser = NewParticipleParser(DefaultRegistry())
	})
	return defaultParser.ParseAnnotation(comment, location)
}

// ParseAnnotation parses a single annotation comment
func (p *ParticipleParser) ParseAnnotation(comment string, location SourceLocation) (*ParsedAnnotation, error) {
	raw := strings.TrimSpace(comment)

	ast, err := p.parser.ParseString(location.File, raw)
	if err != nil {
		loc := location
		var perr participle.Error
		if errors.As(err, &perr) {
			loc.Column += perr.Position().Column - 1
		}
		return nil, p.fail(raw, loc, err.Error())
	}

	annotationType, err := ParseAnnotationType(ast.Type)
	if err != nil {
		return nil, p.fail(raw, location, err.Error())
	}

	parsed := &ParsedAnnotation{
		Type:       annotationType,
		Parameters: make(map[string]string, len(ast.Params)),
		Location:   location,
		Raw:        raw,
	}
	for _, param := range ast.Params {
		if param.Value == nil {
			return nil, p.fail(raw, location, fmt.Sprintf("parameter '-%s' requires a value", param.Key))
		}
		if _, dup := parsed.Parameters[param.Key]; dup {
			return nil, p.fail(raw, location, fmt.Sprintf("parameter '-%s' is given more than once", param.Key))
		}
		parsed.Parameters[param.Key] = *param.Value
	}

	if p.registry != nil {
		if err := p.validateAgainstSchema(parsed); err != nil {
			return nil, p.fail(raw, location, err.Error())
		}
	}
	return parsed, nil
}

func (p *ParticipleParser) validateAgainstSchema(annotation *ParsedAnnotation) error {
	schema, err := p.registry.GetSchema(annotation.Type)
	if err != nil {
		return fmt.Errorf("no schema found for annotation type: %s", annotation.Type)
	}

	names := make([]string, 0, len(annotation.Parameters))
	for name := range annotation.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec, exists := schema.Parameters[name]
		if !exists {
			return fmt.Errorf("unknown parameter '%s' for annotation type %s", name, annotation.Type)
		}
		if spec.Validator != nil {
			if err := spec.Validator(annotation.Parameters[name]); err != nil {
				return fmt.Errorf("parameter '%s' validation failed: %w", name, err)
			}
		}
	}

	for name, spec := range schema.Parameters {
		if spec.Required && !annotation.HasParameter(name) {
			return fmt.Errorf("missing required parameter '%s' for annotation type %s", name, annotation.Type)
		}
	}

	for _, validate := range schema.Validators {
		if err := validate(annotation); err != nil {
			return err
		}
	}
	return nil
}

func (p *ParticipleParser) fail(raw string, location SourceLocation, reason string) error {
	return errors.Newf(errors.AnnotationErrorCode, "invalid annotation '%s': %s", raw, reason).
		WithLocation(errors.SourceLocation{File: location.File, Line: location.Line, Column: location.Column}).
		WithSuggestion(suggestionFor(raw))
}

// suggestionFor points at the schema examples of the annotation type, if recognisable
func suggestionFor(raw string) string {
	for _, schema := range []AnnotationSchema{ServiceAnnotationSchema, DecoratorAnnotationSchema, IgnoreAnnotationSchema} {
		if strings.Contains(raw, "::"+schema.Type.String()) {
			return "expected form: " + strings.Join(schema.Examples, " | ")
		}
	}
	return "annotations look like //servicereg::service, //servicereg::decorator or //servicereg::ignore"
}
