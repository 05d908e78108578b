// Package scanner classifies candidate types into implementations and
// decorator links.
package scanner

import (
	"fmt"

	"github.com/toyz/servicereg/internal/errors"
	"github.com/toyz/servicereg/internal/models"
	"github.com/toyz/servicereg/internal/utils"
)

// Options narrows which candidates take part in a scan
type Options struct {
	UnitFilter func(unit string) bool             // false excludes a whole unit
	TypeFilter func(models.TypeDescriptor) bool // false excludes one candidate
	Logger     utils.Logger
}

// Scanner turns candidate descriptors into a ScanResult
type Scanner struct {
	opts Options
	log  utils.Logger
}

// New creates a scanner
func New(opts Options) *Scanner {
	return &Scanner{opts: opts, log: utils.LoggerOrNop(opts.Logger)}
}

// Scan is a convenience wrapper around New(opts).Scan
func Scan(candidates []models.TypeDescriptor, opts Options) (models.ScanResult, error) {
	return New(opts).Scan(candidates)
}

// Scan classifies candidates in order. Wrapped components are looked up across
// every candidate, so a decorator still learns its contract when the
// implementation it wraps was filtered out.
func (s *Scanner) Scan(candidates []models.TypeDescriptor) (models.ScanResult, error) {
	index := make(map[models.ImplementationID]models.TypeDescriptor, len(candidates))
	for _, c := range candidates {
		if _, exists := index[c.ID]; !exists {
			index[c.ID] = c
		}
	}

	var result models.ScanResult
	seen := make(map[models.ImplementationID]struct{})

	for _, c := range candidates {
		if !s.accepts(c) {
			continue
		}

		switch c.Kind {
		case models.NoMetadata:
			continue

		case models.ImplementationKind:
			if _, dup := seen[c.ID]; dup {
				return models.ScanResult{}, errors.NewDuplicateImplementation(c.ID)
			}
			meta, err := implementation(c)
			if err != nil {
				return models.ScanResult{}, err
			}
			seen[c.ID] = struct{}{}
			result.Implementations = append(result.Implementations, meta)
			s.log.Debug("scanner: implementation %s (%s)", c.ID, c.Lifetime)

		case models.DecoratorKind:
			if _, dup := seen[c.ID]; dup {
				return models.ScanResult{}, errors.NewDuplicateImplementation(c.ID)
			}
			link, err := decoratorLink(c, index)
			if err != nil {
				return models.ScanResult{}, err
			}
			seen[c.ID] = struct{}{}
			result.Decorators = append(result.Decorators, link)
			s.log.Debug("scanner: decorator %s", link)

		default:
			return models.ScanResult{}, errors.Newf(errors.AnnotationErrorCode,
				"candidate %s has unsupported kind %s", c.ID, c.Kind)
		}
	}

	s.log.Verbose("scanner: %d implementations, %d decorators", len(result.Implementations), len(result.Decorators))
	return result, nil
}

func (s *Scanner) accepts(c models.TypeDescriptor) bool {
	if c.Kind == models.IgnoredKind {
		s.log.Debug("scanner: %s is ignored", c.ID)
		return false
	}
	if s.opts.UnitFilter != nil && !s.opts.UnitFilter(c.Unit) {
		s.log.Debug("scanner: %s excluded by unit filter (%s)", c.ID, c.Unit)
		return false
	}
	if s.opts.TypeFilter != nil && !s.opts.TypeFilter(c) {
		s.log.Debug("scanner: %s excluded by type filter", c.ID)
		return false
	}
	return true
}

func implementation(c models.TypeDescriptor) (models.ComponentMetadata, error) {
	if !c.Lifetime.IsValid() {
		return models.ComponentMetadata{}, errors.Newf(errors.AnnotationErrorCode,
			"implementation %s has invalid lifetime %d", c.ID, int(c.Lifetime))
	}
	if c.Contract != "" && !c.Exposes(c.Contract) {
		return models.ComponentMetadata{}, errors.NewContractMismatch(c.ID, c.Contract)
	}
	return models.ComponentMetadata{
		ID:        c.ID,
		Contract:  c.Contract,
		Contracts: append([]models.ContractID(nil), c.Contracts...),
		Lifetime:  c.Lifetime,
		Unit:      c.Unit,
	}, nil
}

// decoratorLink follows Wraps until it reaches an implementation
func decoratorLink(c models.TypeDescriptor, index map[models.ImplementationID]models.TypeDescriptor) (models.DecoratorLink, error) {
	visited := map[models.ImplementationID]struct{}{c.ID: {}}
	path := []models.ImplementationID{c.ID}
	current := c

	for {
		if current.Wraps == "" {
			return models.DecoratorLink{}, errors.NewMissingContract(c.ID,
				fmt.Sprintf("decorator %s does not name the component it wraps", current.ID))
		}
		if _, loop := visited[current.Wraps]; loop {
			return models.DecoratorLink{}, errors.NewAmbiguousDecoratorChain(c.Contract, append(path, current.Wraps))
		}
		visited[current.Wraps] = struct{}{}
		path = append(path, current.Wraps)

		wrapped, ok := index[current.Wraps]
		if !ok {
			return models.DecoratorLink{}, errors.NewMissingContract(c.ID,
				fmt.Sprintf("wrapped component %s is not declared", current.Wraps))
		}

		switch wrapped.Kind {
		case models.DecoratorKind:
			current = wrapped
			continue

		case models.ImplementationKind:
			contract, err := ContractOf(wrapped.ID, wrapped.Contract, wrapped.Contracts)
			if err != nil {
				return models.DecoratorLink{}, err
			}
			if c.Contract != "" && c.Contract != contract {
				return models.DecoratorLink{}, errors.NewContractMismatch(c.ID, c.Contract)
			}
			if !c.Exposes(contract) {
				return models.DecoratorLink{}, errors.NewContractMismatch(c.ID, contract)
			}
			return models.DecoratorLink{
				Decorator: c.ID,
				Wraps:     c.Wraps,
				Contract:  contract,
				Base:      wrapped.ID,
				Lifetime:  wrapped.Lifetime,
			}, nil

		default:
			return models.DecoratorLink{}, errors.NewMissingContract(c.ID,
				fmt.Sprintf("wrapped component %s carries no service metadata", wrapped.ID))
		}
	}
}

// ContractOf returns the explicit contract, or the sole exposed one
func ContractOf(id models.ImplementationID, explicit models.ContractID, exposed []models.ContractID) (models.ContractID, error) {
	if explicit != "" {
		return explicit, nil
	}
	switch len(exposed) {
	case 0:
		return "", errors.NewMissingContract(id, "implementation exposes no contract")
	case 1:
		return exposed[0], nil
	default:
		return "", errors.NewAmbiguousContract(id, exposed)
	}
}
