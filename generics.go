package xtend

import (
	"context"
	"fmt"
	"reflect"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/values"
)

// Load builds the single implementation of interface T.
func Load[T any](ctx context.Context, m *Manager, opts ...LoadOption) (T, error) {
	var zero T
	capability, err := capabilityFor[T]()
	if err != nil {
		return zero, err
	}
	instance, err := m.LoadAbstract(ctx, capability, opts...)
	if err != nil {
		return zero, err
	}
	return cast[T](capability, instance)
}

// LoadAll builds every implementation of interface T.
func LoadAll[T any](ctx context.Context, m *Manager, opts ...LoadOption) ([]T, error) {
	capability, err := capabilityFor[T]()
	if err != nil {
		return nil, err
	}
	instances, err := m.LoadAbstracts(ctx, capability, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(instances))
	for _, instance := range instances {
		v, err := cast[T](capability, instance)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// LoadContainerFor builds the single container implementing interface T
// and fills it.
func LoadContainerFor[T any](ctx context.Context, m *Manager, opts ...LoadOption) (T, error) {
	var zero T
	capability, err := capabilityFor[T]()
	if err != nil {
		return zero, err
	}
	container, err := m.LoadContainer(ctx, capability, opts...)
	if err != nil {
		return zero, err
	}
	return cast[T](capability, container)
}

// InstanceAs returns the instance stored under ref if it is a T.
func InstanceAs[T any](m *Manager, ref string) (T, bool) {
	v, ok := m.Instance(ref).(T)
	return v, ok
}

func capabilityFor[T any]() (values.Capability, error) {
	capability, err := values.NewInterfaceCapability(reflect.TypeFor[T]())
	if err != nil {
		return values.Capability{}, entities.NewError(entities.KindExtensionError, "", "invalid capability", err)
	}
	return capability, nil
}

func cast[T any](capability values.Capability, instance any) (T, error) {
	v, ok := instance.(T)
	if !ok {
		var zero T
		return zero, entities.NewError(entities.KindExtensionError, capability.Name(),
			fmt.Sprintf("%T does not implement %s", instance, capability.ShortName()), nil)
	}
	return v, nil
}
