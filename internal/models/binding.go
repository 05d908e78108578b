package models

import "fmt"

// BindingRole distinguishes how a binding participates in the final plan
type BindingRole int

const (
	// PlainBinding maps a contract straight to an implementation
	PlainBinding BindingRole = iota
	// AccessorBinding exposes a wrapped component to its decorator
	AccessorBinding
	// DecoratedBinding self-registers a component wrapped by a decorator
	DecoratedBinding
	// DecoratorBinding is the outermost decorator answering the contract
	DecoratorBinding
)

// String returns the string representation of the role
func (r BindingRole) String() string {
	switch r {
	case PlainBinding:
		return "plain"
	case AccessorBinding:
		return "accessor"
	case DecoratedBinding:
		return "decorated"
	case DecoratorBinding:
		return "decorator"
	default:
		return "unknown"
	}
}

// Binding is one entry of the ordered registration plan.
// Decorator is the chain marker: for a DecoratedBinding it names the decorator
// wrapping Implementation, for a DecoratorBinding it names the wrapped component.
type Binding struct {
	Contract       ContractID
	Implementation ImplementationID
	Lifetime       Lifetime
	Decorator      ImplementationID
	Role           BindingRole
}

// NewBinding creates a plain binding
func NewBinding(contract ContractID, impl ImplementationID, lifetime Lifetime) Binding {
	return Binding{Contract: contract, Implementation: impl, Lifetime: lifetime}
}

// NewAccessorBinding creates the accessor binding for a wrapped component
func NewAccessorBinding(wrapped ImplementationID, lifetime Lifetime) Binding {
	return Binding{
		Contract:       AccessorContract(wrapped),
		Implementation: AccessorImplementation(wrapped),
		Lifetime:       lifetime,
		Role:           AccessorBinding,
	}
}

// IsDecorated reports whether the binding carries a decorator marker
func (b Binding) IsDecorated() bool {
	return b.Decorator != ""
}

// IsSelfRegistration reports whether a container should register the
// implementation under its own identity instead of the contract
func (b Binding) IsSelfRegistration() bool {
	return b.Role == DecoratedBinding
}

// AnswersContract reports whether the binding is what a consumer of Contract receives
func (b Binding) AnswersContract() bool {
	return b.Role == PlainBinding || b.Role == DecoratorBinding
}

// String renders "{contract} > {implementation} ({lifetime}) [{decorator}]"
func (b Binding) String() string {
	if b.Decorator == "" {
		return fmt.Sprintf("%s > %s (%s)", b.Contract, b.Implementation, b.Lifetime)
	}
	return fmt.Sprintf("%s > %s (%s) [%s]", b.Contract, b.Implementation, b.Lifetime, b.Decorator)
}

// ConflictKey groups bindings competing to answer the same contract with the same lifetime
type ConflictKey struct {
	Contract ContractID
	Lifetime Lifetime
}

// Key returns the conflict group key for the binding
func (b Binding) Key() ConflictKey {
	return ConflictKey{Contract: b.Contract, Lifetime: b.Lifetime}
}
