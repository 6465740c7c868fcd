package entities

import (
	"fmt"
	"reflect"
	"strings"
)

// Constructor is a typed factory declared by an implementation.
// Its parameter types drive constructor selection in the instance builder.
type Constructor struct {
	out    reflect.Type
	fn     func(args []any) (any, error)
	params []reflect.Type
}

// NewConstructor creates a Constructor from explicit parameter types.
// Prefer the generic Constructor0..3 and Fallible0..2 helpers.
func NewConstructor(out reflect.Type, params []reflect.Type, fn func(args []any) (any, error)) (Constructor, error) {
	if out == nil {
		return Constructor{}, fmt.Errorf("constructor result type cannot be nil")
	}
	if fn == nil {
		return Constructor{}, fmt.Errorf("constructor function cannot be nil")
	}
	for i, p := range params {
		if p == nil {
			return Constructor{}, fmt.Errorf("constructor parameter %d has nil type", i)
		}
	}
	return Constructor{
		out:    out,
		fn:     fn,
		params: append([]reflect.Type(nil), params...),
	}, nil
}

// Constructor0 wraps a no-argument factory.
func Constructor0[T any](fn func() T) Constructor {
	return Constructor{
		out: reflect.TypeFor[T](),
		fn:  func([]any) (any, error) { return fn(), nil },
	}
}

// Constructor1 wraps a one-argument factory.
func Constructor1[A, T any](fn func(A) T) Constructor {
	return Constructor{
		out:    reflect.TypeFor[T](),
		params: []reflect.Type{reflect.TypeFor[A]()},
		fn: func(args []any) (any, error) {
			return fn(arg[A](args[0])), nil
		},
	}
}

// Constructor2 wraps a two-argument factory.
func Constructor2[A, B, T any](fn func(A, B) T) Constructor {
	return Constructor{
		out:    reflect.TypeFor[T](),
		params: []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B]()},
		fn: func(args []any) (any, error) {
			return fn(arg[A](args[0]), arg[B](args[1])), nil
		},
	}
}

// Constructor3 wraps a three-argument factory.
func Constructor3[A, B, C, T any](fn func(A, B, C) T) Constructor {
	return Constructor{
		out:    reflect.TypeFor[T](),
		params: []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]()},
		fn: func(args []any) (any, error) {
			return fn(arg[A](args[0]), arg[B](args[1]), arg[C](args[2])), nil
		},
	}
}

// Fallible0 wraps a no-argument factory that can fail.
func Fallible0[T any](fn func() (T, error)) Constructor {
	return Constructor{
		out: reflect.TypeFor[T](),
		fn: func([]any) (any, error) {
			return fn()
		},
	}
}

// Fallible1 wraps a one-argument factory that can fail.
func Fallible1[A, T any](fn func(A) (T, error)) Constructor {
	return Constructor{
		out:    reflect.TypeFor[T](),
		params: []reflect.Type{reflect.TypeFor[A]()},
		fn: func(args []any) (any, error) {
			return fn(arg[A](args[0]))
		},
	}
}

// Fallible2 wraps a two-argument factory that can fail.
func Fallible2[A, B, T any](fn func(A, B) (T, error)) Constructor {
	return Constructor{
		out:    reflect.TypeFor[T](),
		params: []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B]()},
		fn: func(args []any) (any, error) {
			return fn(arg[A](args[0]), arg[B](args[1]))
		},
	}
}

// arg converts a matched argument to its parameter type. A nil argument
// becomes the zero value of A.
func arg[A any](v any) A {
	if a, ok := v.(A); ok {
		return a
	}
	var zero A
	if v == nil {
		return zero
	}
	t := reflect.TypeFor[A]()
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		panic(fmt.Sprintf("argument of type %s is not assignable to %s", rv.Type(), t))
	}
	out := reflect.New(t).Elem()
	out.Set(rv)
	return out.Interface().(A)
}

// Params returns a copy of the parameter types in declaration order.
func (c Constructor) Params() []reflect.Type {
	return append([]reflect.Type(nil), c.params...)
}

// Out returns the declared result type.
func (c Constructor) Out() reflect.Type {
	return c.out
}

// Arity returns the number of parameters.
func (c Constructor) Arity() int {
	return len(c.params)
}

// Accepts reports whether args match the parameter list: same count and each
// argument assignable to its parameter. A nil argument matches any parameter.
func (c Constructor) Accepts(args []any) bool {
	if len(args) != len(c.params) {
		return false
	}
	for i, a := range args {
		if a == nil {
			continue
		}
		if !reflect.TypeOf(a).AssignableTo(c.params[i]) {
			return false
		}
	}
	return true
}

// MoreSpecificThan reports whether every parameter of c is assignable to the
// matching parameter of other, and the two signatures differ.
func (c Constructor) MoreSpecificThan(other Constructor) bool {
	if len(c.params) != len(other.params) {
		return false
	}
	identical := true
	for i, p := range c.params {
		if !p.AssignableTo(other.params[i]) {
			return false
		}
		if p != other.params[i] {
			identical = false
		}
	}
	return !identical
}

// Invoke calls the factory. Callers must check Accepts first.
func (c Constructor) Invoke(args []any) (any, error) {
	return c.fn(args)
}

// IsZero returns true if this is the zero value.
func (c Constructor) IsZero() bool {
	return c.fn == nil
}

// String renders the signature, e.g. "(string, int) *greet.English".
func (c Constructor) String() string {
	parts := make([]string, len(c.params))
	for i, p := range c.params {
		parts[i] = p.String()
	}
	out := "<nil>"
	if c.out != nil {
		out = c.out.String()
	}
	return "(" + strings.Join(parts, ", ") + ") " + out
}
