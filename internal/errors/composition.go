package errors

import (
	"strings"

	"github.com/toyz/servicereg/internal/models"
)

// Sentinels for errors.Is matching; they compare by code only.
var (
	ErrAmbiguousContract              = New(AmbiguousContractErrorCode, "ambiguous contract")
	ErrMissingContract                = New(MissingContractErrorCode, "missing contract")
	ErrContractMismatch               = New(ContractMismatchErrorCode, "contract mismatch")
	ErrAmbiguousDecoratorChain        = New(AmbiguousDecoratorChainErrorCode, "ambiguous decorator chain")
	ErrMissingDecoratedImplementation = New(MissingDecoratedImplementationErrorCode, "missing decorated implementation")
	ErrUnresolvedConflict             = New(UnresolvedConflictErrorCode, "unresolved conflict")
	ErrUnknownContract                = New(UnknownContractErrorCode, "unknown contract")
	ErrDuplicateImplementation        = New(DuplicateImplementationErrorCode, "duplicate implementation")
	ErrCircularDependency             = New(CircularDependencyErrorCode, "circular dependency")
)

// NewAmbiguousContract reports an implementation exposing several contracts without declaring one
func NewAmbiguousContract(impl models.ImplementationID, contracts []models.ContractID) *BaseError {
	return Newf(AmbiguousContractErrorCode,
		"implementation %s exposes multiple contracts (%s)", impl, joinIDs(contracts)).
		WithContext("implementation", impl).
		WithContext("contracts", contracts).
		WithSuggestion("Declare the contract explicitly, e.g. -Contract=" + firstOr(contracts, "pkg.Interface"))
}

// NewMissingContract reports a component whose contract cannot be determined
func NewMissingContract(component models.ImplementationID, reason string) *BaseError {
	return Newf(MissingContractErrorCode, "missing contract for %s: %s", component, reason).
		WithContext("component", component).
		WithSuggestion("Make sure the component implements an interface or set an explicit contract")
}

// NewContractMismatch reports a component that does not implement the contract it is bound to
func NewContractMismatch(component models.ImplementationID, contract models.ContractID) *BaseError {
	return Newf(ContractMismatchErrorCode, "%s does not implement contract %s", component, contract).
		WithContext("component", component).
		WithContext("contract", contract)
}

// NewAmbiguousDecoratorChain reports decorators that do not form a single linear chain
func NewAmbiguousDecoratorChain(contract models.ContractID, decorators []models.ImplementationID) *BaseError {
	return Newf(AmbiguousDecoratorChainErrorCode,
		"decorators of %s do not form a single chain (%s)", contract, joinIDs(decorators)).
		WithContext("contract", contract).
		WithContext("decorators", decorators).
		WithSuggestion("Each decorator must wrap exactly one other member of the chain or the implementation")
}

// NewMissingDecoratedImplementation reports a chain whose base implementation has no binding
func NewMissingDecoratedImplementation(contract models.ContractID, decorator, base models.ImplementationID) *BaseError {
	return Newf(MissingDecoratedImplementationErrorCode,
		"decorator %s of %s has no registered implementation %s", decorator, contract, base).
		WithContext("contract", contract).
		WithContext("decorator", decorator).
		WithContext("implementation", base).
		WithSuggestion("Check that filters do not exclude " + string(base))
}

// NewUnresolvedConflict reports several bindings sharing a contract and lifetime
func NewUnresolvedConflict(contract models.ContractID, lifetime models.Lifetime, candidates []models.ImplementationID) *BaseError {
	return Newf(UnresolvedConflictErrorCode,
		"multiple %s registrations for %s: %s", lifetime, contract, joinIDs(candidates)).
		WithContext("contract", contract).
		WithContext("lifetime", lifetime).
		WithContext("candidates", candidates).
		WithSuggestion("Provide a conflict resolver or exclude all but one implementation")
}

// NewUnknownContract reports manual decoration of a contract with no binding
func NewUnknownContract(contract models.ContractID) *BaseError {
	return Newf(UnknownContractErrorCode, "unknown contract %s", contract).
		WithContext("contract", contract)
}

// NewDuplicateImplementation reports a component identity seen twice
func NewDuplicateImplementation(impl models.ImplementationID) *BaseError {
	return Newf(DuplicateImplementationErrorCode, "implementation %s is declared more than once", impl).
		WithContext("implementation", impl)
}

// NewCircularDependency reports a resolution cycle inside a container
func NewCircularDependency(path []string) *BaseError {
	return Newf(CircularDependencyErrorCode, "circular dependency: %s", strings.Join(path, " -> ")).
		WithContext("path", path)
}

func joinIDs[T ~string](ids []T) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

func firstOr[T ~string](ids []T, fallback string) string {
	if len(ids) == 0 {
		return fallback
	}
	return string(ids[0])
}
