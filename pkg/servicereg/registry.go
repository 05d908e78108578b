package servicereg

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/toyz/servicereg/internal/errors"
	"github.com/toyz/servicereg/internal/models"
	"github.com/toyz/servicereg/pkg/servicereg/container"
)

// Registry collects component declarations in registration order
type Registry struct {
	mu          sync.Mutex
	descriptors []models.TypeDescriptor
	factories   map[ImplementationID]container.Factory
	errs        *errors.MultipleErrors
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[ImplementationID]container.Factory),
		errs:      errors.NewMultipleErrors(),
	}
}

// declaration is what an Option edits before it becomes a TypeDescriptor
type declaration struct {
	typ        reflect.Type
	descriptor models.TypeDescriptor
	err        *errors.BaseError
}

// Option customizes a declaration
type Option func(*declaration)

// Exposes declares that the component implements interface I
func Exposes[I any]() Option {
	iface := typeOf[I]()
	return func(d *declaration) {
		if d.err != nil {
			return
		}
		contract := Contract[I]()
		if iface.Kind() != reflect.Interface {
			d.err = errors.Newf(errors.RegistrationErrorCode, "%s is not an interface", contract)
			return
		}
		if !d.typ.Implements(iface) {
			d.err = errors.NewContractMismatch(d.descriptor.ID, contract)
			return
		}
		if !d.descriptor.Exposes(contract) {
			d.descriptor.Contracts = append(d.descriptor.Contracts, contract)
		}
	}
}

// As declares I as the explicit contract of the component
func As[I any]() Option {
	expose := Exposes[I]()
	return func(d *declaration) {
		expose(d)
		if d.err == nil {
			d.descriptor.Contract = Contract[I]()
		}
	}
}

// InUnit overrides the unit used by unit filters, the package path by default
func InUnit(unit string) Option {
	return func(d *declaration) {
		d.descriptor.Unit = unit
	}
}

// Implementation declares T as a concrete implementation with the given lifetime
func Implementation[T any](r *Registry, lifetime Lifetime, factory func(context.Context, container.Resolver) (T, error), opts ...Option) {
	r.declare(typeOf[T](), models.ImplementationKind, lifetime, "", wrapFactory(factory), opts)
}

// Decorator declares T as a decorator of wraps, an implementation or another decorator
func Decorator[T any](r *Registry, wraps ImplementationID, factory func(context.Context, container.Resolver) (T, error), opts ...Option) {
	r.declare(typeOf[T](), models.DecoratorKind, Transient, wraps, wrapFactory(factory), opts)
}

// Provide makes T buildable without composition metadata, for decorators applied with Plan.Decorate
func Provide[T any](r *Registry, factory func(context.Context, container.Resolver) (T, error), opts ...Option) {
	r.declare(typeOf[T](), models.NoMetadata, Transient, "", wrapFactory(factory), opts)
}

// Ignore declares T as excluded from composition
func Ignore[T any](r *Registry) {
	r.declare(typeOf[T](), models.IgnoredKind, Transient, "", nil, nil)
}

func (r *Registry) declare(typ reflect.Type, kind models.CandidateKind, lifetime Lifetime, wraps ImplementationID, factory container.Factory, opts []Option) {
	d := &declaration{
		typ: typ,
		descriptor: models.TypeDescriptor{
			ID:       typeID(typ),
			Unit:     unitOf(typ),
			Kind:     kind,
			Lifetime: lifetime,
			Wraps:    wraps,
		},
	}
	for _, opt := range opts {
		opt(d)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if d.err != nil {
		r.errs.Add(d.err)
		return
	}
	r.descriptors = append(r.descriptors, d.descriptor)
	if factory != nil {
		r.factories[d.descriptor.ID] = factory
	}
}

// Descriptors returns the declared candidates in order
func (r *Registry) Descriptors() []TypeDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TypeDescriptor(nil), r.descriptors...)
}

// Err returns the declaration errors collected so far
func (r *Registry) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errs.ErrorOrNil()
}

// NewContainer creates a container able to build every declared component
func (r *Registry) NewContainer() *container.Container {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := container.New()
	for id, factory := range r.factories {
		c.Provide(id, factory)
	}
	return c
}

func wrapFactory[T any](factory func(context.Context, container.Resolver) (T, error)) container.Factory {
	if factory == nil {
		return nil
	}
	return func(ctx context.Context, r container.Resolver) (any, error) {
		return factory(ctx, r)
	}
}

// ID returns the implementation identity of T. Pointer types share the
// identity of the type they point to.
func ID[T any]() ImplementationID {
	return typeID(typeOf[T]())
}

// Contract returns the contract identity of interface I
func Contract[I any]() ContractID {
	return ContractID(typeID(typeOf[I]()))
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func typeID(t reflect.Type) ImplementationID {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return ImplementationID(t.String())
	}
	return ImplementationID(fmt.Sprintf("%s.%s", t.PkgPath(), t.Name()))
}

func unitOf(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath()
}
