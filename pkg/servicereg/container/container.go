// Package container is a small in-process IoC container that consumes a
// composed binding plan. Keys are contract or implementation identities;
// each implementation is built by a Factory supplied up front.
package container

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/toyz/servicereg/internal/errors"
	"github.com/toyz/servicereg/internal/models"
)

// Resolver hands out instances by contract or implementation identity
type Resolver interface {
	Resolve(ctx context.Context, key string) (any, error)
}

// Factory builds one instance of an implementation. r resolves dependencies
// in the scope the instance is being built for.
type Factory func(ctx context.Context, r Resolver) (any, error)

// registration maps a key to the implementation answering it
type registration struct {
	impl     models.ImplementationID
	lifetime models.Lifetime
}

// Container holds factories, registrations and singleton instances
type Container struct {
	mu         sync.RWMutex
	factories  map[models.ImplementationID]Factory
	bindings   map[string]registration
	singletons *instanceCache
	root       *Scope
}

// New creates an empty container
func New() *Container {
	c := &Container{
		factories:  make(map[models.ImplementationID]Factory),
		bindings:   make(map[string]registration),
		singletons: newInstanceCache(),
	}
	c.root = c.NewScope()
	return c
}

// Provide records how to build impl. Accessor implementations never need one.
func (c *Container) Provide(impl models.ImplementationID, factory Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[impl] = factory
}

// Register binds contract, or impl itself when contract is nil, to impl.
// A later registration for the same key replaces the earlier one.
func (c *Container) Register(contract *models.ContractID, impl models.ImplementationID, lifetime models.Lifetime) error {
	if !lifetime.IsValid() {
		return errors.Newf(errors.RegistrationErrorCode, "invalid lifetime %d for %s", int(lifetime), impl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.factories[impl]; !ok {
		wrapped, isAccessor := models.AccessedComponent(string(impl))
		if !isAccessor {
			return errors.Newf(errors.RegistrationErrorCode, "no factory provided for %s", impl).
				WithContext("implementation", impl)
		}
		c.factories[impl] = accessorFactory(wrapped)
	}

	key := string(impl)
	if contract != nil {
		key = string(*contract)
	}
	c.bindings[key] = registration{impl: impl, lifetime: lifetime}
	return nil
}

// IsRegistered reports whether key can be resolved
func (c *Container) IsRegistered(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.bindings[key]
	return ok
}

// Resolve resolves key in the root scope
func (c *Container) Resolve(ctx context.Context, key string) (any, error) {
	return c.root.Resolve(ctx, key)
}

// NewScope opens a scope with its own scoped instances
func (c *Container) NewScope() *Scope {
	return &Scope{id: uuid.New(), container: c, instances: newInstanceCache()}
}

func (c *Container) lookup(key string) (registration, Factory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reg, ok := c.bindings[key]
	if !ok {
		return registration{}, nil, false
	}
	return reg, c.factories[reg.impl], true
}

// Scope resolves scoped instances once per scope
type Scope struct {
	id        uuid.UUID
	container *Container
	instances *instanceCache
}

// ID returns the scope identity
func (s *Scope) ID() uuid.UUID {
	return s.id
}

// Resolve builds or reuses the instance registered under key
func (s *Scope) Resolve(ctx context.Context, key string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reg, factory, ok := s.container.lookup(key)
	if !ok {
		return nil, errors.Newf(errors.RegistrationErrorCode, "nothing registered for %s", key).
			WithContext("key", key)
	}

	path := resolutionPath(ctx)
	for _, seen := range path {
		if seen == string(reg.impl) {
			return nil, errors.NewCircularDependency(append(path, string(reg.impl)))
		}
	}
	ctx = withResolutionPath(ctx, append(path, string(reg.impl)))

	switch reg.lifetime {
	case models.Singleton:
		return s.container.singletons.getOrBuild(reg.impl, func() (any, error) {
			return factory(ctx, s.container.root)
		})
	case models.Scoped:
		return s.instances.getOrBuild(reg.impl, func() (any, error) {
			return factory(ctx, s)
		})
	default:
		return factory(ctx, s)
	}
}

// instanceCache stores built instances by implementation. The lock is not
// held while building so factories may resolve further instances.
type instanceCache struct {
	mu    sync.Mutex
	items map[models.ImplementationID]any
}

func newInstanceCache() *instanceCache {
	return &instanceCache{items: make(map[models.ImplementationID]any)}
}

func (c *instanceCache) getOrBuild(impl models.ImplementationID, build func() (any, error)) (any, error) {
	c.mu.Lock()
	if v, ok := c.items[impl]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := build()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.items[impl]; ok {
		return existing, nil
	}
	c.items[impl] = v
	return v, nil
}

// Resolve resolves key and asserts the result to T
func Resolve[T any](ctx context.Context, r Resolver, key string) (T, error) {
	var zero T
	v, err := r.Resolve(ctx, key)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, errors.Newf(errors.RegistrationErrorCode, "%s resolved to %T, not %T", key, v, zero).
			WithContext("key", key)
	}
	return typed, nil
}

// MustResolve is Resolve that panics on error
func MustResolve[T any](ctx context.Context, r Resolver, key string) T {
	v, err := Resolve[T](ctx, r, key)
	if err != nil {
		panic(fmt.Sprintf("container: %v", err))
	}
	return v
}

type pathKey struct{}

func resolutionPath(ctx context.Context) []string {
	path, _ := ctx.Value(pathKey{}).([]string)
	return path
}

func withResolutionPath(ctx context.Context, path []string) context.Context {
	return context.WithValue(ctx, pathKey{}, path[:len(path):len(path)])
}
