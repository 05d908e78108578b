package models

import "fmt"

// ImplementationID identifies a concrete component type
type ImplementationID string

// ContractID identifies an interface under which components are resolved
type ContractID string

const (
	accessorContractPrefix = "decorator-accessor-of("
	accessorImplPrefix     = "accessor-for("
)

// AccessorContract returns the contract a decorator uses to reach the component it wraps
func AccessorContract(wrapped ImplementationID) ContractID {
	return ContractID(accessorContractPrefix + string(wrapped) + ")")
}

// AccessorImplementation returns the synthetic implementation that answers AccessorContract(wrapped)
func AccessorImplementation(wrapped ImplementationID) ImplementationID {
	return ImplementationID(accessorImplPrefix + string(wrapped) + ")")
}

// AccessedComponent returns the wrapped component behind an accessor contract or implementation
func AccessedComponent(id string) (ImplementationID, bool) {
	for _, prefix := range []string{accessorContractPrefix, accessorImplPrefix} {
		if len(id) > len(prefix) && id[:len(prefix)] == prefix && id[len(id)-1] == ')' {
			return ImplementationID(id[len(prefix) : len(id)-1]), true
		}
	}
	return "", false
}

// ComponentMetadata is attached to a concrete implementation accepted by the scanner
type ComponentMetadata struct {
	ID        ImplementationID // implementation identity
	Contract  ContractID       // explicit contract, empty when derived from Contracts
	Contracts []ContractID     // exposed contracts in declaration order
	Lifetime  Lifetime
	Unit      string // source unit the implementation was declared in
}

// HasExplicitContract reports whether the contract was declared rather than derived
func (m ComponentMetadata) HasExplicitContract() bool {
	return m.Contract != ""
}

// DecoratorLink records that Decorator wraps Wraps under Contract
type DecoratorLink struct {
	Decorator ImplementationID
	Wraps     ImplementationID // implementation or decorator being wrapped
	Contract  ContractID       // contract of the implementation at the bottom of the chain
	Base      ImplementationID // implementation at the bottom of the chain
	Lifetime  Lifetime         // lifetime of Base
}

// String returns a readable representation of the link
func (d DecoratorLink) String() string {
	return fmt.Sprintf("%s wraps %s (%s)", d.Decorator, d.Wraps, d.Contract)
}

// ScanResult holds the accepted implementations and decorator links in scan order
type ScanResult struct {
	Implementations []ComponentMetadata
	Decorators      []DecoratorLink
}

// Implementation looks up accepted implementation metadata by identity
func (s ScanResult) Implementation(id ImplementationID) (ComponentMetadata, bool) {
	for _, impl := range s.Implementations {
		if impl.ID == id {
			return impl, true
		}
	}
	return ComponentMetadata{}, false
}

// Decorator looks up a decorator link by decorator identity
func (s ScanResult) Decorator(id ImplementationID) (DecoratorLink, bool) {
	for _, link := range s.Decorators {
		if link.Decorator == id {
			return link, true
		}
	}
	return DecoratorLink{}, false
}

// IsEmpty returns true if nothing was accepted
func (s ScanResult) IsEmpty() bool {
	return len(s.Implementations) == 0 && len(s.Decorators) == 0
}
