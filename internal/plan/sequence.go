// Package plan holds the ordered, immutable binding sequence produced by
// composition. Every operation returns a new Sequence and leaves the
// receiver untouched.
package plan

import (
	"strings"

	"github.com/toyz/servicereg/internal/models"
)

// Sequence is an immutable ordered list of bindings
type Sequence struct {
	bindings []models.Binding
}

// New creates a sequence holding a copy of bindings
func New(bindings ...models.Binding) Sequence {
	return Sequence{bindings: clone(bindings)}
}

func clone(bindings []models.Binding) []models.Binding {
	if len(bindings) == 0 {
		return nil
	}
	out := make([]models.Binding, len(bindings))
	copy(out, bindings)
	return out
}

// Len returns the number of bindings
func (s Sequence) Len() int {
	return len(s.bindings)
}

// At returns the binding at index i
func (s Sequence) At(i int) models.Binding {
	return s.bindings[i]
}

// Bindings returns a copy of the bindings in order
func (s Sequence) Bindings() []models.Binding {
	return clone(s.bindings)
}

// Index returns the position of the first binding equal to b, or -1
func (s Sequence) Index(b models.Binding) int {
	return s.IndexFunc(func(candidate models.Binding) bool { return candidate == b })
}

// IndexFunc returns the position of the first binding matching fn, or -1
func (s Sequence) IndexFunc(fn func(models.Binding) bool) int {
	for i, b := range s.bindings {
		if fn(b) {
			return i
		}
	}
	return -1
}

// Contains reports whether a binding equal to b is present
func (s Sequence) Contains(b models.Binding) bool {
	return s.Index(b) >= 0
}

// Append returns a sequence with b added at the end
func (s Sequence) Append(b ...models.Binding) Sequence {
	out := make([]models.Binding, 0, len(s.bindings)+len(b))
	out = append(out, s.bindings...)
	out = append(out, b...)
	return Sequence{bindings: out}
}

// InsertAt returns a sequence with b inserted before position i.
// An index past the end appends.
func (s Sequence) InsertAt(i int, b models.Binding) Sequence {
	if i < 0 {
		i = 0
	}
	if i >= len(s.bindings) {
		return s.Append(b)
	}
	out := make([]models.Binding, 0, len(s.bindings)+1)
	out = append(out, s.bindings[:i]...)
	out = append(out, b)
	out = append(out, s.bindings[i:]...)
	return Sequence{bindings: out}
}

// ReplaceAt returns a sequence with the binding at position i replaced by b
func (s Sequence) ReplaceAt(i int, b models.Binding) Sequence {
	out := clone(s.bindings)
	out[i] = b
	return Sequence{bindings: out}
}

// RemoveAt returns a sequence without the binding at position i
func (s Sequence) RemoveAt(i int) Sequence {
	out := make([]models.Binding, 0, len(s.bindings)-1)
	out = append(out, s.bindings[:i]...)
	out = append(out, s.bindings[i+1:]...)
	return Sequence{bindings: out}
}

// Filter returns the bindings for which keep returns true, in order
func (s Sequence) Filter(keep func(i int, b models.Binding) bool) Sequence {
	var out []models.Binding
	for i, b := range s.bindings {
		if keep(i, b) {
			out = append(out, b)
		}
	}
	return Sequence{bindings: out}
}

// Map returns a sequence with fn applied to every binding, positions preserved
func (s Sequence) Map(fn func(models.Binding) models.Binding) Sequence {
	var out []models.Binding
	if len(s.bindings) > 0 {
		out = make([]models.Binding, len(s.bindings))
	}
	for i, b := range s.bindings {
		out[i] = fn(b)
	}
	return Sequence{bindings: out}
}

// Dedupe collapses equal bindings to their first occurrence
func (s Sequence) Dedupe() Sequence {
	seen := make(map[models.Binding]struct{}, len(s.bindings))
	return s.Filter(func(_ int, b models.Binding) bool {
		if _, ok := seen[b]; ok {
			return false
		}
		seen[b] = struct{}{}
		return true
	})
}

// InsertOrReuse returns the position of a binding equal to b, appending it first when absent
func (s Sequence) InsertOrReuse(b models.Binding) (Sequence, int) {
	if i := s.Index(b); i >= 0 {
		return s, i
	}
	next := s.Append(b)
	return next, next.Len() - 1
}

// Equal reports whether both sequences hold equal bindings in the same order
func (s Sequence) Equal(other Sequence) bool {
	if len(s.bindings) != len(other.bindings) {
		return false
	}
	for i := range s.bindings {
		if s.bindings[i] != other.bindings[i] {
			return false
		}
	}
	return true
}

// String renders one binding per line
func (s Sequence) String() string {
	lines := make([]string, len(s.bindings))
	for i, b := range s.bindings {
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}
