package xtend

import "github.com/reglet-dev/reglet-xtend/extension/values"

// Container is an extension that aggregates the implementations of a
// second capability behind a single facade.
//
// Example usage:
//
//	type Shapes struct{ all []Shape }
//
//	func (s *Shapes) SubCapability() values.Capability { return values.InterfaceOf[Shape]() }
//
//	func (s *Shapes) AddImplementation(impl any) error {
//	    s.all = append(s.all, impl.(Shape))
//	    return nil
//	}
type Container interface {
	// SubCapability returns the capability whose implementations are injected.
	SubCapability() values.Capability

	// AddImplementation is called once per sub-implementation.
	AddImplementation(impl any) error
}
