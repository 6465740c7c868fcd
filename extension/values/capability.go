// Package values holds the immutable value objects of the extension bounded context.
package values

import (
	"fmt"
	"reflect"
)

// CapabilityKind distinguishes how a capability is satisfied.
type CapabilityKind int

const (
	// KindInterface capabilities are Go interfaces. Any implementation whose
	// concrete type implements the interface satisfies them.
	KindInterface CapabilityKind = iota + 1

	// KindAbstract capabilities are named abstract bases. Implementations
	// satisfy them by declaring that they extend the base.
	KindAbstract
)

// String returns the kind name.
func (k CapabilityKind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindAbstract:
		return "abstract"
	default:
		return "unknown"
	}
}

// Capability identifies a contract used as a lookup key.
// It is immutable and compared by Key.
type Capability struct {
	iface reflect.Type
	name  string
	kind  CapabilityKind
}

// NewInterfaceCapability creates a capability from a Go interface type.
func NewInterfaceCapability(t reflect.Type) (Capability, error) {
	if t == nil {
		return Capability{}, fmt.Errorf("capability type cannot be nil")
	}
	if t.Kind() != reflect.Interface {
		return Capability{}, fmt.Errorf("capability type %s is not an interface", t)
	}
	return Capability{
		iface: t,
		name:  qualifiedTypeName(t),
		kind:  KindInterface,
	}, nil
}

// InterfaceOf returns the capability for interface type T.
// It panics if T is not an interface.
func InterfaceOf[T any]() Capability {
	c, err := NewInterfaceCapability(reflect.TypeFor[T]())
	if err != nil {
		panic(err)
	}
	return c
}

// NewAbstractCapability creates a named abstract capability.
// Names follow the same rules as implementation names.
func NewAbstractCapability(name string) (Capability, error) {
	n, err := NewImplementationName(name)
	if err != nil {
		return Capability{}, fmt.Errorf("invalid abstract capability: %w", err)
	}
	return Capability{
		name: n.String(),
		kind: KindAbstract,
	}, nil
}

// MustNewAbstractCapability creates an abstract capability or panics.
func MustNewAbstractCapability(name string) Capability {
	c, err := NewAbstractCapability(name)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the human readable capability name.
func (c Capability) Name() string {
	return c.name
}

// Kind returns how the capability is satisfied.
func (c Capability) Kind() CapabilityKind {
	return c.kind
}

// ShortName returns the package-local name ("greet.Greeter") for interface
// capabilities and the plain name for abstract ones.
func (c Capability) ShortName() string {
	if c.iface != nil {
		return c.iface.String()
	}
	return c.name
}

// Type returns the interface type for interface capabilities, nil otherwise.
func (c Capability) Type() reflect.Type {
	return c.iface
}

// Key returns the identity used for caching and configuration lookups.
func (c Capability) Key() string {
	if c.kind == KindAbstract {
		return "abstract:" + c.name
	}
	return c.name
}

// IsZero returns true if this is the zero value.
func (c Capability) IsZero() bool {
	return c.kind == 0
}

// Equals checks if two capabilities identify the same contract.
func (c Capability) Equals(other Capability) bool {
	return c.kind == other.kind && c.name == other.name && c.iface == other.iface
}

// SatisfiedBy reports whether a concrete type extending the given abstract
// bases satisfies this capability.
func (c Capability) SatisfiedBy(t reflect.Type, extends []string) bool {
	switch c.kind {
	case KindInterface:
		return t != nil && t.Implements(c.iface)
	case KindAbstract:
		for _, base := range extends {
			if base == c.name {
				return true
			}
		}
	}
	return false
}

// String returns the string representation.
func (c Capability) String() string {
	if c.IsZero() {
		return "<none>"
	}
	return c.kind.String() + " " + c.name
}

// qualifiedTypeName returns pkgpath.Name for named types and the type
// literal for unnamed ones.
func qualifiedTypeName(t reflect.Type) string {
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
