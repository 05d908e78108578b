package models

// CandidateKind tags what a candidate type declares about itself
type CandidateKind int

const (
	// NoMetadata marks a type that carries no composition metadata
	NoMetadata CandidateKind = iota
	// ImplementationKind marks a concrete service implementation
	ImplementationKind
	// DecoratorKind marks a decorator of another component
	DecoratorKind
	// IgnoredKind marks a type explicitly excluded from composition
	IgnoredKind
)

// String returns the string representation of the candidate kind
func (k CandidateKind) String() string {
	switch k {
	case NoMetadata:
		return "none"
	case ImplementationKind:
		return "implementation"
	case DecoratorKind:
		return "decorator"
	case IgnoredKind:
		return "ignored"
	default:
		return "unknown"
	}
}

// TypeDescriptor describes one candidate handed to the scanner
type TypeDescriptor struct {
	ID        ImplementationID
	Unit      string // package path or other grouping unit
	Kind      CandidateKind
	Lifetime  Lifetime         // implementations only
	Contract  ContractID       // optional explicit contract
	Contracts []ContractID     // interfaces the type exposes, in declaration order
	Wraps     ImplementationID // decorators only
}

// Exposes reports whether the type exposes the given contract
func (t TypeDescriptor) Exposes(contract ContractID) bool {
	for _, c := range t.Contracts {
		if c == contract {
			return true
		}
	}
	return false
}
