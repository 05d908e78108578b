// Package resolver turns a ScanResult into the ordered binding plan: it
// registers implementations, stacks decorator chains, resolves conflicts
// and applies implementation remapping.
package resolver

import (
	"github.com/toyz/servicereg/internal/errors"
	"github.com/toyz/servicereg/internal/models"
	"github.com/toyz/servicereg/internal/plan"
	"github.com/toyz/servicereg/internal/scanner"
	"github.com/toyz/servicereg/internal/utils"
)

// ConflictResolver picks the surviving binding among the candidates competing
// for key. Returning false, or a binding outside candidates, leaves the
// conflict unresolved.
type ConflictResolver func(key models.ConflictKey, candidates []models.Binding) (models.Binding, bool)

// ImplementationMapper returns the implementation a binding should use.
// Returning the binding's own implementation or "" keeps it.
type ImplementationMapper func(models.Binding) models.ImplementationID

// Options customizes resolution
type Options struct {
	ResolveConflict     ConflictResolver
	RemapImplementation ImplementationMapper
	Logger              utils.Logger
}

// Resolver produces binding plans
type Resolver struct {
	opts Options
	log  utils.Logger
}

// New creates a resolver
func New(opts Options) *Resolver {
	return &Resolver{opts: opts, log: utils.LoggerOrNop(opts.Logger)}
}

// Resolve is a convenience wrapper around New(opts).Resolve
func Resolve(scan models.ScanResult, opts Options) (plan.Sequence, error) {
	return New(opts).Resolve(scan)
}

// Resolve builds the plan. Either the complete plan or an error is returned.
func (r *Resolver) Resolve(scan models.ScanResult) (plan.Sequence, error) {
	seq, err := r.registerImplementations(scan)
	if err != nil {
		return plan.Sequence{}, err
	}

	seq, err = r.registerDecorators(seq, scan.Decorators)
	if err != nil {
		return plan.Sequence{}, err
	}

	seq, err = r.resolveConflicts(seq)
	if err != nil {
		return plan.Sequence{}, err
	}

	seq = r.remap(seq)
	r.log.Verbose("resolver: plan has %d bindings", seq.Len())
	return seq, nil
}

func (r *Resolver) registerImplementations(scan models.ScanResult) (plan.Sequence, error) {
	var seq plan.Sequence
	for _, impl := range scan.Implementations {
		contract, err := scanner.ContractOf(impl.ID, impl.Contract, impl.Contracts)
		if err != nil {
			return plan.Sequence{}, err
		}
		b := models.NewBinding(contract, impl.ID, impl.Lifetime)
		if seq.Contains(b) {
			r.log.Debug("resolver: skipping duplicate %s", b)
			continue
		}
		seq = seq.Append(b)
		r.log.Debug("resolver: registered %s", b)
	}
	return seq, nil
}

func (r *Resolver) registerDecorators(seq plan.Sequence, links []models.DecoratorLink) (plan.Sequence, error) {
	for _, group := range groupByContract(links) {
		chain, err := orderChain(group.contract, group.links)
		if err != nil {
			return plan.Sequence{}, err
		}

		for _, link := range chain {
			seq = linkDecorator(seq, link.Contract, link.Decorator, link.Wraps, link.Lifetime)
			r.log.Debug("resolver: %s", link)
		}

		outer := chain[len(chain)-1]
		idx := seq.Index(models.NewBinding(outer.Contract, outer.Base, outer.Lifetime))
		if idx < 0 {
			return plan.Sequence{}, errors.NewMissingDecoratedImplementation(outer.Contract, outer.Decorator, outer.Base)
		}
		seq = seq.ReplaceAt(idx, outward(outer.Contract, outer.Decorator, outer.Wraps, outer.Lifetime))
		r.log.Verbose("resolver: %s answered by %s", outer.Contract, outer.Decorator)
	}
	return seq, nil
}

// linkDecorator self-registers wrapped and places its accessor right after it.
// An accessor already in the plan is moved there.
func linkDecorator(seq plan.Sequence, contract models.ContractID, decorator, wrapped models.ImplementationID, lifetime models.Lifetime) plan.Sequence {
	target := models.Binding{
		Contract:       contract,
		Implementation: wrapped,
		Lifetime:       lifetime,
		Decorator:      decorator,
		Role:           models.DecoratedBinding,
	}
	seq, i := seq.InsertOrReuse(target)

	accessor := models.NewAccessorBinding(wrapped, lifetime)
	if j := seq.Index(accessor); j >= 0 {
		if j == i+1 {
			return seq
		}
		seq = seq.RemoveAt(j)
		if j < i {
			i--
		}
	}
	return seq.InsertAt(i+1, accessor)
}

func outward(contract models.ContractID, decorator, wrapped models.ImplementationID, lifetime models.Lifetime) models.Binding {
	return models.Binding{
		Contract:       contract,
		Implementation: decorator,
		Lifetime:       lifetime,
		Decorator:      wrapped,
		Role:           models.DecoratorBinding,
	}
}

type decoratorGroup struct {
	contract models.ContractID
	links    []models.DecoratorLink
}

func groupByContract(links []models.DecoratorLink) []decoratorGroup {
	var groups []decoratorGroup
	index := make(map[models.ContractID]int)
	for _, link := range links {
		i, ok := index[link.Contract]
		if !ok {
			i = len(groups)
			index[link.Contract] = i
			groups = append(groups, decoratorGroup{contract: link.Contract})
		}
		groups[i].links = append(groups[i].links, link)
	}
	return groups
}

// orderChain returns the group innermost first. The group must be a single
// linear chain: exactly one decorator that no other member wraps, no member
// wrapped twice, and the walk inward from the outermost covering every member.
func orderChain(contract models.ContractID, links []models.DecoratorLink) ([]models.DecoratorLink, error) {
	ids := make([]models.ImplementationID, len(links))
	members := make(map[models.ImplementationID]models.DecoratorLink, len(links))
	wrappers := make(map[models.ImplementationID]int, len(links))
	for i, link := range links {
		ids[i] = link.Decorator
		members[link.Decorator] = link
		wrappers[link.Wraps]++
	}

	ambiguous := errors.NewAmbiguousDecoratorChain(contract, ids)

	var outermost []models.DecoratorLink
	for _, link := range links {
		if wrappers[link.Decorator] == 0 {
			outermost = append(outermost, link)
		}
		if wrappers[link.Wraps] > 1 {
			return nil, ambiguous
		}
	}
	if len(outermost) != 1 {
		return nil, ambiguous
	}

	chain := make([]models.DecoratorLink, 0, len(links))
	for cur, ok := outermost[0], true; ok; cur, ok = members[cur.Wraps] {
		if len(chain) == len(links) {
			return nil, ambiguous
		}
		chain = append(chain, cur)
	}
	if len(chain) != len(links) {
		return nil, ambiguous
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// resolveConflicts groups every binding that answers a contract, outward
// decorators included, by contract and lifetime. Decorated and accessor
// bindings never compete; they leave the plan with the chain they belong to.
func (r *Resolver) resolveConflicts(seq plan.Sequence) (plan.Sequence, error) {
	var order []models.ConflictKey
	groups := make(map[models.ConflictKey][]int)
	for i, b := range seq.Bindings() {
		if !b.AnswersContract() {
			continue
		}
		key := b.Key()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	drop := make(map[int]struct{})
	for _, key := range order {
		positions := groups[key]
		if len(positions) < 2 {
			continue
		}

		candidates := make([]models.Binding, len(positions))
		impls := make([]models.ImplementationID, len(positions))
		for j, pos := range positions {
			candidates[j] = seq.At(pos)
			impls[j] = candidates[j].Implementation
		}

		keep, err := r.pick(key, candidates, impls)
		if err != nil {
			return plan.Sequence{}, err
		}
		for j, pos := range positions {
			if j == keep {
				continue
			}
			drop[pos] = struct{}{}
			if candidates[j].Role == models.DecoratorBinding {
				for _, member := range chainMembers(seq, key) {
					drop[member] = struct{}{}
				}
			}
		}
		r.log.Verbose("resolver: %s (%s) resolved to %s", key.Contract, key.Lifetime, impls[keep])
	}

	if len(drop) == 0 {
		return seq, nil
	}
	return seq.Filter(func(i int, _ models.Binding) bool {
		_, dropped := drop[i]
		return !dropped
	}), nil
}

// chainMembers returns the positions of the decorated bindings stacked under
// key and of their accessors
func chainMembers(seq plan.Sequence, key models.ConflictKey) []int {
	wrapped := make(map[models.ImplementationID]struct{})
	var positions []int
	for i, b := range seq.Bindings() {
		if b.Role == models.DecoratedBinding && b.Key() == key {
			wrapped[b.Implementation] = struct{}{}
			positions = append(positions, i)
		}
	}
	for i, b := range seq.Bindings() {
		if b.Role != models.AccessorBinding || b.Lifetime != key.Lifetime {
			continue
		}
		if id, ok := models.AccessedComponent(string(b.Contract)); ok {
			if _, member := wrapped[id]; member {
				positions = append(positions, i)
			}
		}
	}
	return positions
}

// pick returns the index within candidates of the binding the resolver chose
func (r *Resolver) pick(key models.ConflictKey, candidates []models.Binding, impls []models.ImplementationID) (int, error) {
	unresolved := errors.NewUnresolvedConflict(key.Contract, key.Lifetime, impls)
	if r.opts.ResolveConflict == nil {
		return -1, unresolved
	}

	offered := append([]models.Binding(nil), candidates...)
	chosen, ok := r.opts.ResolveConflict(key, offered)
	if !ok {
		return -1, unresolved
	}
	for j, c := range candidates {
		if c == chosen {
			return j, nil
		}
	}
	return -1, unresolved.WithSuggestion("The conflict resolver returned " + chosen.String() + ", which is not in the group")
}

// remap swaps implementations. When a decorated binding moves from X to X2,
// the accessor under decorator-accessor-of(X) follows it to accessor-for(X2)
// so decorators written against X still reach the replacement.
func (r *Resolver) remap(seq plan.Sequence) plan.Sequence {
	if r.opts.RemapImplementation == nil {
		return seq
	}

	type accessorKey struct {
		wrapped  models.ImplementationID
		lifetime models.Lifetime
	}
	moved := make(map[accessorKey]models.ImplementationID)

	mapped := seq.Map(func(b models.Binding) models.Binding {
		if id := r.opts.RemapImplementation(b); id != "" && id != b.Implementation {
			r.log.Verbose("resolver: remapped %s to %s", b, id)
			if b.Role == models.DecoratedBinding {
				moved[accessorKey{b.Implementation, b.Lifetime}] = id
			}
			b.Implementation = id
		}
		return b
	})

	if len(moved) > 0 {
		mapped = mapped.Map(func(b models.Binding) models.Binding {
			if b.Role != models.AccessorBinding {
				return b
			}
			wrapped, _ := models.AccessedComponent(string(b.Contract))
			if b.Implementation != models.AccessorImplementation(wrapped) {
				return b
			}
			if id, ok := moved[accessorKey{wrapped, b.Lifetime}]; ok {
				b.Implementation = models.AccessorImplementation(id)
			}
			return b
		})
	}
	return mapped.Dedupe()
}
