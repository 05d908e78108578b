package servicereg

import (
	"path"
	"strings"
)

// Prefer resolves conflicts by picking the first group member whose
// implementation appears earliest in preferred. A decorated contract competes
// through its outermost decorator, so preferring the chain means naming it.
func Prefer(preferred ...ImplementationID) ConflictResolver {
	return func(_ ConflictKey, group []Binding) (Binding, bool) {
		for _, id := range preferred {
			for _, b := range group {
				if b.Implementation == id {
					return b, true
				}
			}
		}
		return Binding{}, false
	}
}

// PreferFor resolves conflicts per contract. Contracts missing from rules stay unresolved.
func PreferFor(rules map[ContractID]ImplementationID) ConflictResolver {
	return func(key ConflictKey, group []Binding) (Binding, bool) {
		preferred, ok := rules[key.Contract]
		if !ok {
			return Binding{}, false
		}
		return Prefer(preferred)(key, group)
	}
}

// FirstRegistered resolves every conflict in favour of the earliest binding
func FirstRegistered() ConflictResolver {
	return func(_ ConflictKey, group []Binding) (Binding, bool) {
		if len(group) == 0 {
			return Binding{}, false
		}
		return group[0], true
	}
}

// Remap swaps implementations according to a fixed table
func Remap(table map[ImplementationID]ImplementationID) ImplementationMapper {
	return func(b Binding) ImplementationID {
		return table[b.Implementation]
	}
}

// ExcludeUnits returns a unit filter rejecting units matching any glob pattern.
// Patterns use path.Match syntax and match the last path element unless they
// contain a slash; a trailing "/..." also matches sub-packages.
func ExcludeUnits(patterns ...string) func(string) bool {
	return func(unit string) bool {
		return !matchAny(patterns, unit)
	}
}

// ExcludeTypes returns a type filter rejecting candidates whose identity matches any glob pattern
func ExcludeTypes(patterns ...string) func(TypeDescriptor) bool {
	return func(td TypeDescriptor) bool {
		return !matchAny(patterns, string(td.ID))
	}
}

func matchAny(patterns []string, value string) bool {
	for _, pattern := range patterns {
		if base, ok := strings.CutSuffix(pattern, "/..."); ok {
			if value == base || strings.HasPrefix(value, base+"/") {
				return true
			}
			continue
		}
		target := value
		if !strings.Contains(pattern, "/") {
			target = path.Base(value)
		}
		if ok, err := path.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}
