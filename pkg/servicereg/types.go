// Package servicereg composes declaratively described services into an
// ordered binding plan and registers that plan with a DI container.
//
// Components declare themselves in a Registry:
//
//	reg := servicereg.NewRegistry()
//	servicereg.Implementation[*WeatherService](reg, servicereg.Singleton, NewWeatherService,
//		servicereg.Exposes[Forecaster]())
//	servicereg.Decorator[*CachedForecaster](reg, servicereg.ID[*WeatherService](), NewCachedForecaster,
//		servicereg.Exposes[Forecaster]())
//
//	plan, err := servicereg.Compose(reg, servicereg.Options{})
//	c, err := plan.Build(ctx, reg)
package servicereg

import (
	"github.com/toyz/servicereg/internal/errors"
	"github.com/toyz/servicereg/internal/models"
	"github.com/toyz/servicereg/internal/resolver"
)

type (
	// Lifetime controls how long a container keeps an instance alive
	Lifetime = models.Lifetime
	// ContractID identifies an interface
	ContractID = models.ContractID
	// ImplementationID identifies a concrete type
	ImplementationID = models.ImplementationID
	// Binding is one entry of a composed plan
	Binding = models.Binding
	// ConflictKey names the contract and lifetime a conflict group competes for
	ConflictKey = models.ConflictKey
	// BindingRole tells how a binding participates in a decorator chain
	BindingRole = models.BindingRole
	// TypeDescriptor is the metadata a registry hands to the scanner
	TypeDescriptor = models.TypeDescriptor
	// ConflictResolver picks the surviving binding of a conflict group
	ConflictResolver = resolver.ConflictResolver
	// ImplementationMapper swaps the implementation of a binding
	ImplementationMapper = resolver.ImplementationMapper
	// Error is implemented by every composition error
	Error = errors.ServiceError
)

const (
	Transient = models.Transient
	Scoped    = models.Scoped
	Singleton = models.Singleton

	PlainBinding     = models.PlainBinding
	AccessorBinding  = models.AccessorBinding
	DecoratedBinding = models.DecoratedBinding
	DecoratorBinding = models.DecoratorBinding
)

// Error sentinels for use with errors.Is
var (
	ErrAmbiguousContract              = errors.ErrAmbiguousContract
	ErrMissingContract                = errors.ErrMissingContract
	ErrContractMismatch               = errors.ErrContractMismatch
	ErrAmbiguousDecoratorChain        = errors.ErrAmbiguousDecoratorChain
	ErrMissingDecoratedImplementation = errors.ErrMissingDecoratedImplementation
	ErrUnresolvedConflict             = errors.ErrUnresolvedConflict
	ErrUnknownContract                = errors.ErrUnknownContract
	ErrDuplicateImplementation        = errors.ErrDuplicateImplementation
)

// AccessorContract returns the contract decorators use to reach wrapped
func AccessorContract(wrapped ImplementationID) ContractID {
	return models.AccessorContract(wrapped)
}
