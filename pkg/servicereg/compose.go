package servicereg

import (
	"context"

	"github.com/toyz/servicereg/internal/errors"
	"github.com/toyz/servicereg/internal/models"
	"github.com/toyz/servicereg/internal/plan"
	"github.com/toyz/servicereg/internal/resolver"
	"github.com/toyz/servicereg/internal/scanner"
	"github.com/toyz/servicereg/internal/utils"
	"github.com/toyz/servicereg/pkg/servicereg/container"
)

// Options customizes composition; every field is optional
type Options struct {
	// UnitFilter excludes whole units (package paths) when it returns false
	UnitFilter func(unit string) bool
	// TypeFilter excludes single candidates when it returns false
	TypeFilter func(TypeDescriptor) bool
	// ResolveConflict picks one binding when several share a contract and lifetime
	ResolveConflict ConflictResolver
	// RemapImplementation swaps the implementation of any binding
	RemapImplementation ImplementationMapper
	// Logger receives composition traces
	Logger utils.Logger
}

// Container is what a plan is applied to. A nil contract asks the
// container to register impl under its own identity.
type Container interface {
	Register(contract *ContractID, impl ImplementationID, lifetime Lifetime) error
}

// Plan is an immutable composed binding sequence
type Plan struct {
	seq plan.Sequence
}

// Compose scans the registry's declarations and resolves them into a plan
func Compose(r *Registry, opts Options) (*Plan, error) {
	if err := r.Err(); err != nil {
		return nil, err
	}
	return ComposeDescriptors(r.Descriptors(), opts)
}

// ComposeDescriptors composes candidates from any source, such as a source manifest
func ComposeDescriptors(candidates []TypeDescriptor, opts Options) (*Plan, error) {
	scan, err := scanner.Scan(candidates, scanner.Options{
		UnitFilter: opts.UnitFilter,
		TypeFilter: opts.TypeFilter,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	seq, err := resolver.Resolve(scan, resolver.Options{
		ResolveConflict:     opts.ResolveConflict,
		RemapImplementation: opts.RemapImplementation,
		Logger:              opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Plan{seq: seq}, nil
}

// NewPlan wraps an existing binding sequence, for example one loaded from a generated file
func NewPlan(bindings []Binding) *Plan {
	return &Plan{seq: plan.New(bindings...)}
}

// Bindings returns the ordered bindings
func (p *Plan) Bindings() []Binding {
	return p.seq.Bindings()
}

// Len returns the number of bindings
func (p *Plan) Len() int {
	return p.seq.Len()
}

// String renders one binding per line
func (p *Plan) String() string {
	return p.seq.String()
}

// Decorate returns a plan where decorator wraps the component currently
// answering contract. wrapped is normally that component.
func (p *Plan) Decorate(contract ContractID, decorator, wrapped ImplementationID) (*Plan, error) {
	seq, err := resolver.Decorate(p.seq, contract, decorator, wrapped)
	if err != nil {
		return nil, err
	}
	return &Plan{seq: seq}, nil
}

// Apply registers every binding with c in plan order
func (p *Plan) Apply(ctx context.Context, c Container) error {
	return Apply(ctx, c, p.seq.Bindings())
}

// Build creates a container from the registry's factories and applies the plan to it
func (p *Plan) Build(ctx context.Context, r *Registry) (*container.Container, error) {
	c := r.NewContainer()
	if err := p.Apply(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply calls Register once per binding, in order. Decorated bindings are
// self-registrations; every other role registers under its contract.
func Apply(ctx context.Context, c Container, bindings []Binding) error {
	for _, b := range bindings {
		if err := ctx.Err(); err != nil {
			return err
		}

		var contract *models.ContractID
		if !b.IsSelfRegistration() {
			contract = &b.Contract
		}
		if err := c.Register(contract, b.Implementation, b.Lifetime); err != nil {
			return errors.WrapRegisterError(b.String(), err)
		}
	}
	return nil
}
