package container

import (
	"context"

	"github.com/toyz/servicereg/internal/errors"
	"github.com/toyz/servicereg/internal/models"
)

// Accessor gives a decorator the component it wraps
type Accessor struct {
	component models.ImplementationID
	value     any
}

// Component returns the identity of the wrapped component
func (a *Accessor) Component() models.ImplementationID {
	return a.component
}

// Value returns the wrapped instance
func (a *Accessor) Value() any {
	return a.value
}

// accessorFactory resolves the self-registered wrapped component
func accessorFactory(wrapped models.ImplementationID) Factory {
	return func(ctx context.Context, r Resolver) (any, error) {
		v, err := r.Resolve(ctx, string(wrapped))
		if err != nil {
			return nil, err
		}
		return &Accessor{component: wrapped, value: v}, nil
	}
}

// Wrapped resolves the accessor for wrapped and asserts the inner value to T.
// Decorator factories use it to reach the component they decorate.
func Wrapped[T any](ctx context.Context, r Resolver, wrapped models.ImplementationID) (T, error) {
	var zero T
	acc, err := Resolve[*Accessor](ctx, r, string(models.AccessorContract(wrapped)))
	if err != nil {
		return zero, err
	}
	typed, ok := acc.Value().(T)
	if !ok {
		return zero, errors.Newf(errors.RegistrationErrorCode, "wrapped component %s is %T, not %T", wrapped, acc.Value(), zero).
			WithContext("component", wrapped)
	}
	return typed, nil
}
