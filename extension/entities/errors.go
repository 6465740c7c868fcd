package entities

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies resolution failures. The enumeration is flat.
type Kind int

const (
	// KindNoExtension means zero candidates or instances where one or more was required.
	KindNoExtension Kind = iota + 1
	// KindMultipleExtension means more than one candidate where exactly one was required.
	KindMultipleExtension
	// KindBadConstructor means no constructor matched or construction failed.
	KindBadConstructor
	// KindNotImplemented is reserved.
	KindNotImplemented
	// KindBadExtension means a resolved instance is not a container.
	KindBadExtension
	// KindNoBundle means the message catalog found no bundle for an object.
	KindNoBundle
	// KindExtensionError is the catch-all for collaborator failures.
	KindExtensionError
)

// Sentinel errors for common error patterns.
// These allow both errors.Is() checks and errors.As() for detailed information.
var (
	ErrNoExtension       = errors.New("no extension found")
	ErrMultipleExtension = errors.New("multiple extensions found")
	ErrBadConstructor    = errors.New("no usable constructor")
	ErrNotImplemented    = errors.New("not implemented")
	ErrBadExtension      = errors.New("extension is not a container")
	ErrNoBundle          = errors.New("no message bundle found")
	ErrExtension         = errors.New("extension error")
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNoExtension:
		return "NoExtension"
	case KindMultipleExtension:
		return "MultipleExtension"
	case KindBadConstructor:
		return "BadConstructor"
	case KindNotImplemented:
		return "NotImplemented"
	case KindBadExtension:
		return "BadExtension"
	case KindNoBundle:
		return "NoBundle"
	case KindExtensionError:
		return "ExtensionError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNoExtension:
		return ErrNoExtension
	case KindMultipleExtension:
		return ErrMultipleExtension
	case KindBadConstructor:
		return ErrBadConstructor
	case KindNotImplemented:
		return ErrNotImplemented
	case KindBadExtension:
		return ErrBadExtension
	case KindNoBundle:
		return ErrNoBundle
	default:
		return ErrExtension
	}
}

// ResolutionError is the typed failure of every resolution step.
// Capability and Implementation are filled in when known.
type ResolutionError struct {
	Err            error
	Capability     string
	Implementation string
	Message        string
	Kind           Kind
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.sentinel().Error())
	if e.Capability != "" {
		fmt.Fprintf(&b, " for %s", e.Capability)
	}
	if e.Implementation != "" {
		fmt.Fprintf(&b, " (implementation %s)", e.Implementation)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is implements error matching for errors.Is() checks.
// This allows: errors.Is(err, entities.ErrNoExtension)
func (e *ResolutionError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Unwrap returns the underlying cause.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// NewError creates a ResolutionError of the given kind.
func NewError(kind Kind, capability, message string, cause error) *ResolutionError {
	return &ResolutionError{
		Kind:       kind,
		Capability: capability,
		Message:    message,
		Err:        cause,
	}
}

// WithImplementation returns a copy of e naming the implementation involved.
func (e *ResolutionError) WithImplementation(name string) *ResolutionError {
	cp := *e
	cp.Implementation = name
	return &cp
}

// KindOf returns the kind of the outermost ResolutionError in err's chain,
// or 0 if there is none.
func KindOf(err error) Kind {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}

// AsExtensionError keeps typed resolution errors unchanged and wraps any
// other error as KindExtensionError.
func AsExtensionError(capability, message string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != 0 {
		return err
	}
	return NewError(KindExtensionError, capability, message, err)
}
