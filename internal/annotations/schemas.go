package annotations

import "fmt"

// ServiceAnnotationSchema defines the schema for //servicereg::service annotations
var ServiceAnnotationSchema = AnnotationSchema{
	Type:        ServiceAnnotation,
	Description: "Marks a type as a service implementation",
	Parameters: map[string]ParameterSpec{
		LifetimeParam: LifetimeParameterSpec(),
		ContractParam: ContractParameterSpec(),
	},
	Examples: []string{
		"//servicereg::service",
		"//servicereg::service -Lifetime=Singleton",
		"//servicereg::service -Lifetime=Scoped -Contract=Forecaster",
	},
}

// DecoratorAnnotationSchema defines the schema for //servicereg::decorator annotations
var DecoratorAnnotationSchema = AnnotationSchema{
	Type:        DecoratorAnnotation,
	Description: "Marks a type as a decorator of another service or decorator",
	Parameters: map[string]ParameterSpec{
		WrapsParam: {
			Required:    true,
			Description: "Type name of the wrapped component",
			Validator:   ValidateTypeName,
		},
		ContractParam: ContractParameterSpec(),
	},
	Examples: []string{
		"//servicereg::decorator -Wraps=ForecastService",
		"//servicereg::decorator -Wraps=example.com/app.ForecastService -Contract=Forecaster",
	},
}

// IgnoreAnnotationSchema defines the schema for //servicereg::ignore annotations
var IgnoreAnnotationSchema = AnnotationSchema{
	Type:        IgnoreAnnotation,
	Description: "Excludes a type from composition",
	Parameters:  map[string]ParameterSpec{},
	Examples:    []string{"//servicereg::ignore"},
}

// RegisterBuiltinSchemas registers the service, decorator and ignore schemas
func RegisterBuiltinSchemas(r AnnotationRegistry) error {
	for _, schema := range []AnnotationSchema{ServiceAnnotationSchema, DecoratorAnnotationSchema, IgnoreAnnotationSchema} {
		if err := r.Register(schema.Type, schema); err != nil {
			return fmt.Errorf("failed to register %s schema: %w", schema.Type, err)
		}
	}
	return nil
}
