package models

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lifetime controls how long a host container keeps an instance alive
type Lifetime int

const (
	Transient Lifetime = iota
	Scoped
	Singleton
)

// Lifetimes lists every lifetime in declaration order
var Lifetimes = []Lifetime{Transient, Scoped, Singleton}

// String returns the string representation of the lifetime
func (l Lifetime) String() string {
	switch l {
	case Transient:
		return "Transient"
	case Scoped:
		return "Scoped"
	case Singleton:
		return "Singleton"
	default:
		return fmt.Sprintf("Lifetime(%d)", int(l))
	}
}

// IsValid reports whether l is one of the declared lifetimes
func (l Lifetime) IsValid() bool {
	return l >= Transient && l <= Singleton
}

// ParseLifetime converts a case-insensitive name to a Lifetime
func ParseLifetime(s string) (Lifetime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transient":
		return Transient, nil
	case "scoped":
		return Scoped, nil
	case "singleton":
		return Singleton, nil
	default:
		return 0, fmt.Errorf("unknown lifetime: %q (expected Transient, Scoped or Singleton)", s)
	}
}

// MarshalYAML encodes the lifetime by name
func (l Lifetime) MarshalYAML() (interface{}, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("cannot marshal invalid lifetime %d", int(l))
	}
	return l.String(), nil
}

// UnmarshalYAML decodes a lifetime name
func (l *Lifetime) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseLifetime(name)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
