package entities

import (
	"fmt"
	"reflect"

	"github.com/reglet-dev/reglet-xtend/extension/values"
)

// Candidate is the aggregate root describing one implementation known to the
// type universe: its concrete type, the capabilities it extends and the
// constructors that build it.
//
// Invariants:
// - Name is a valid ImplementationName
// - A concrete (non-abstract) candidate declares at least one constructor
// - Every constructor result is assignable to the candidate type
type Candidate struct {
	typ          reflect.Type
	name         values.ImplementationName
	metadata     values.ImplementationMetadata
	extends      []string
	constructors []Constructor
	abstract     bool
}

// CandidateOption configures a Candidate.
type CandidateOption func(*Candidate)

// WithConstructors appends constructors in declaration order.
func WithConstructors(constructors ...Constructor) CandidateOption {
	return func(c *Candidate) {
		c.constructors = append(c.constructors, constructors...)
	}
}

// Extends declares the named abstract capabilities the candidate satisfies.
func Extends(bases ...string) CandidateOption {
	return func(c *Candidate) {
		c.extends = append(c.extends, bases...)
	}
}

// Abstract marks the candidate as never instantiable.
func Abstract() CandidateOption {
	return func(c *Candidate) {
		c.abstract = true
	}
}

// WithMetadata sets version and description.
func WithMetadata(m values.ImplementationMetadata) CandidateOption {
	return func(c *Candidate) {
		c.metadata = m
	}
}

// NewCandidate creates a candidate for the concrete type typ.
func NewCandidate(name string, typ reflect.Type, opts ...CandidateOption) (*Candidate, error) {
	n, err := values.NewImplementationName(name)
	if err != nil {
		return nil, err
	}
	if typ == nil {
		return nil, fmt.Errorf("implementation %q: type cannot be nil", n)
	}

	c := &Candidate{
		name: n,
		typ:  typ,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewCandidateFor creates a candidate whose concrete type is T.
func NewCandidateFor[T any](name string, opts ...CandidateOption) (*Candidate, error) {
	return NewCandidate(name, reflect.TypeFor[T](), opts...)
}

// MustNewCandidateFor creates a candidate for T or panics.
func MustNewCandidateFor[T any](name string, opts ...CandidateOption) *Candidate {
	c, err := NewCandidateFor[T](name, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Candidate) validate() error {
	if !c.abstract && len(c.constructors) == 0 {
		return fmt.Errorf("implementation %q: concrete implementation needs at least one constructor", c.name)
	}
	for i, ctor := range c.constructors {
		if ctor.IsZero() {
			return fmt.Errorf("implementation %q: constructor %d is empty", c.name, i)
		}
		if !ctor.Out().AssignableTo(c.typ) {
			return fmt.Errorf("implementation %q: constructor %s does not produce %s", c.name, ctor, c.typ)
		}
	}
	for _, base := range c.extends {
		if _, err := values.NewImplementationName(base); err != nil {
			return fmt.Errorf("implementation %q: invalid abstract base: %w", c.name, err)
		}
	}
	return nil
}

// Name returns the implementation's unique identifier.
func (c *Candidate) Name() values.ImplementationName {
	return c.name
}

// Type returns the concrete type produced by the constructors.
func (c *Candidate) Type() reflect.Type {
	return c.typ
}

// IsAbstract reports whether the candidate must never be instantiated.
func (c *Candidate) IsAbstract() bool {
	return c.abstract
}

// Extends returns the declared abstract bases.
func (c *Candidate) Extends() []string {
	return append([]string(nil), c.extends...)
}

// Constructors returns the constructors in declaration order.
func (c *Candidate) Constructors() []Constructor {
	return append([]Constructor(nil), c.constructors...)
}

// Metadata returns the candidate's descriptive information.
func (c *Candidate) Metadata() values.ImplementationMetadata {
	return c.metadata
}

// Satisfies reports the "is-a capability" relation.
func (c *Candidate) Satisfies(capability values.Capability) bool {
	return capability.SatisfiedBy(c.typ, c.extends)
}

// String returns "name (type)".
func (c *Candidate) String() string {
	return fmt.Sprintf("%s (%s)", c.name, c.typ)
}
