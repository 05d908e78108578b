package resolver

import (
	"github.com/toyz/servicereg/internal/errors"
	"github.com/toyz/servicereg/internal/models"
	"github.com/toyz/servicereg/internal/plan"
)

// Decorate wraps the binding currently answering contract with decorator.
// wrapped is self-registered with the current lifetime, its accessor follows
// it, and the decorator takes over the current binding's position.
func (r *Resolver) Decorate(seq plan.Sequence, contract models.ContractID, decorator, wrapped models.ImplementationID) (plan.Sequence, error) {
	idx := seq.IndexFunc(func(b models.Binding) bool {
		return b.Contract == contract && b.AnswersContract()
	})
	if idx < 0 {
		return seq, errors.NewUnknownContract(contract).
			WithContext("decorator", decorator).
			WithSuggestion("Register an implementation of the contract before decorating it")
	}

	current := seq.At(idx)
	next := linkDecorator(seq, contract, decorator, wrapped, current.Lifetime)
	next = next.ReplaceAt(next.Index(current), outward(contract, decorator, wrapped, current.Lifetime))

	r.log.Verbose("resolver: %s now answered by %s wrapping %s", contract, decorator, wrapped)
	return next, nil
}

// Decorate is a convenience wrapper around New(Options{}).Decorate
func Decorate(seq plan.Sequence, contract models.ContractID, decorator, wrapped models.ImplementationID) (plan.Sequence, error) {
	return New(Options{}).Decorate(seq, contract, decorator, wrapped)
}
