package annotations

import (
	"fmt"
	"regexp"

	"github.com/toyz/servicereg/internal/models"
)

// Parameter names shared by the schemas
const (
	LifetimeParam = "Lifetime"
	ContractParam = "Contract"
	WrapsParam    = "Wraps"
)

var typeNamePattern = regexp.MustCompile(`^([\w.\-~]+(/[\w.\-~]+)*\.)?[A-Za-z_]\w*$`)

// ValidateLifetime accepts Transient, Scoped and Singleton in any case
func ValidateLifetime(v string) error {
	_, err := models.ParseLifetime(v)
	return err
}

// ValidateTypeName accepts a bare type name or one qualified by package
// path or package name, such as ForecastService or example.com/app.Clock
func ValidateTypeName(v string) error {
	if !typeNamePattern.MatchString(v) {
		return fmt.Errorf("'%s' is not a type name", v)
	}
	return nil
}

// LifetimeParameterSpec returns the standard Lifetime parameter definition
func LifetimeParameterSpec() ParameterSpec {
	return ParameterSpec{
		Description: "Instance lifetime: 'Transient' (default), 'Scoped' or 'Singleton'",
		Validator:   ValidateLifetime,
	}
}

// ContractParameterSpec returns the standard Contract parameter definition
func ContractParameterSpec() ParameterSpec {
	return ParameterSpec{
		Description: "Interface the component is registered under when it implements several",
		Validator:   ValidateTypeName,
	}
}
