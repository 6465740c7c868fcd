package xtend

import (
	"context"
	"fmt"
	"strings"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/values"
)

// LoadOption modifies a single load call.
type LoadOption func(*loadOptions)

type loadOptions struct {
	args   []any
	forced bool
}

// ForcedReload bypasses the candidate cache and rescans the universe.
// The rescan replaces the cached entry.
func ForcedReload(forced bool) LoadOption {
	return func(o *loadOptions) {
		o.forced = forced
	}
}

// WithArgs passes constructor arguments. A nil argument matches any
// parameter type.
func WithArgs(args ...any) LoadOption {
	return func(o *loadOptions) {
		o.args = args
	}
}

func collect(opts []LoadOption) loadOptions {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// LoadAbstract builds the single implementation of capability. It fails
// with entities.ErrNoExtension when there is none and with
// entities.ErrMultipleExtension when there are several.
func (m *Manager) LoadAbstract(ctx context.Context, capability values.Capability, opts ...LoadOption) (any, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	o := collect(opts)

	c, err := m.single(ctx, capability, o.forced)
	if err != nil {
		return nil, err
	}
	return m.construct(ctx, capability, c, o.args)
}

// LoadAbstracts builds every implementation of capability in scan order.
// Any construction failure fails the whole call.
func (m *Manager) LoadAbstracts(ctx context.Context, capability values.Capability, opts ...LoadOption) ([]any, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	o := collect(opts)

	candidates, err := m.index.FindTypes(ctx, capability, o.forced)
	if err != nil {
		return nil, err
	}
	return m.constructAll(ctx, capability, candidates, o.args)
}

// LoadContainer builds the single implementation of capability, which
// must be a Container, and injects every implementation of its
// sub-capability. A sub-capability without implementations fails with
// entities.ErrNoExtension.
func (m *Manager) LoadContainer(ctx context.Context, capability values.Capability, opts ...LoadOption) (Container, error) {
	instance, err := m.LoadAbstract(ctx, capability, opts...)
	if err != nil {
		return nil, err
	}
	container, err := asContainer(capability, instance)
	if err != nil {
		return nil, err
	}
	if err := m.inject(ctx, container, collect(opts).forced); err != nil {
		return nil, err
	}
	return container, nil
}

// LoadContainers builds the implementations of capability and injects the
// sub-implementations of each. With acceptMultiple false more than one
// implementation fails with entities.ErrMultipleExtension. Every instance
// must be a Container; otherwise nothing is injected and the call fails
// with entities.ErrBadExtension.
func (m *Manager) LoadContainers(ctx context.Context, capability values.Capability, acceptMultiple bool, opts ...LoadOption) ([]Container, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	o := collect(opts)

	candidates, err := m.index.FindTypes(ctx, capability, o.forced)
	if err != nil {
		return nil, err
	}
	if !acceptMultiple && len(candidates) > 1 {
		return nil, multiple(capability, candidates)
	}

	instances, err := m.constructAll(ctx, capability, candidates, o.args)
	if err != nil {
		return nil, err
	}

	containers := make([]Container, 0, len(instances))
	for _, instance := range instances {
		container, err := asContainer(capability, instance)
		if err != nil {
			return nil, err
		}
		containers = append(containers, container)
	}
	for _, container := range containers {
		if err := m.inject(ctx, container, o.forced); err != nil {
			return nil, err
		}
	}
	return containers, nil
}

// LoadSpecific builds the named implementation without discovery. Every
// failure, construction included, is reported as entities.ErrNoExtension.
// ForcedReload has no effect.
func (m *Manager) LoadSpecific(ctx context.Context, name string, opts ...LoadOption) (any, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	o := collect(opts)

	c, ok := m.known.Lookup(name)
	if ok && m.filter != nil && m.filter.IsDisabled(name) {
		ok = false
	}
	if !ok {
		c, ok = m.universe.Lookup(name)
	}
	if !ok {
		return nil, entities.NewError(entities.KindNoExtension, "", "implementation not registered", nil).
			WithImplementation(name)
	}

	instance, err := m.builder.Construct(ctx, c, o.args)
	if err != nil {
		return nil, entities.NewError(entities.KindNoExtension, "", "implementation could not be built", err).
			WithImplementation(name)
	}
	return instance, nil
}

// ExtensionType returns the single candidate of capability without
// building it.
func (m *Manager) ExtensionType(ctx context.Context, capability values.Capability, opts ...LoadOption) (*entities.Candidate, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	return m.single(ctx, capability, collect(opts).forced)
}

// Instance returns the instance stored under ref, or nil.
func (m *Manager) Instance(ref string) any {
	return m.slots.Get(ref)
}

// SetInstance stores instance under ref. It is ignored once the Manager
// is closed.
func (m *Manager) SetInstance(ref string, instance any) {
	if m.closed.Load() {
		m.logger.Warn("instance not stored, manager closed", "ref", ref)
		return
	}
	m.slots.Set(ref, instance)
}

// LoadInstance builds the single implementation of capability and stores
// it under ref when ref is not empty.
func (m *Manager) LoadInstance(ctx context.Context, ref string, capability values.Capability, opts ...LoadOption) (any, error) {
	instance, err := m.LoadAbstract(ctx, capability, opts...)
	if err != nil {
		return nil, err
	}
	if ref != "" {
		m.SetInstance(ref, instance)
	}
	return instance, nil
}

func (m *Manager) single(ctx context.Context, capability values.Capability, forced bool) (*entities.Candidate, error) {
	candidates, err := m.index.FindTypes(ctx, capability, forced)
	if err != nil {
		return nil, err
	}
	if len(candidates) > 1 {
		return nil, multiple(capability, candidates)
	}
	return candidates[0], nil
}

func (m *Manager) constructAll(ctx context.Context, capability values.Capability, candidates []*entities.Candidate, args []any) ([]any, error) {
	out := make([]any, 0, len(candidates))
	for _, c := range candidates {
		instance, err := m.construct(ctx, capability, c, args)
		if err != nil {
			return nil, err
		}
		out = append(out, instance)
	}
	return out, nil
}

func (m *Manager) construct(ctx context.Context, capability values.Capability, c *entities.Candidate, args []any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, entities.NewError(entities.KindExtensionError, capability.Name(), "resolution cancelled", err)
	}

	instance, err := m.builder.Construct(ctx, c, args)
	if err != nil {
		if re, ok := err.(*entities.ResolutionError); ok && re.Capability == "" {
			cp := *re
			cp.Capability = capability.Name()
			return nil, &cp
		}
		return nil, err
	}
	return instance, nil
}

func (m *Manager) inject(ctx context.Context, container Container, forced bool) error {
	sub := container.SubCapability()
	if sub.IsZero() {
		return entities.NewError(entities.KindBadExtension, "", fmt.Sprintf("%T declares no sub-capability", container), nil)
	}

	impls, err := m.LoadAbstracts(ctx, sub, ForcedReload(forced))
	if err != nil {
		return err
	}
	for _, impl := range impls {
		if err := container.AddImplementation(impl); err != nil {
			return entities.AsExtensionError(sub.Name(), fmt.Sprintf("adding implementation %T", impl), err)
		}
	}
	m.logger.Debug("container filled", "container", fmt.Sprintf("%T", container), "capability", sub.Name(), "implementations", len(impls))
	return nil
}

func asContainer(capability values.Capability, instance any) (Container, error) {
	container, ok := instance.(Container)
	if !ok {
		return nil, entities.NewError(entities.KindBadExtension, capability.Name(),
			fmt.Sprintf("%T does not implement Container", instance), nil)
	}
	return container, nil
}

func multiple(capability values.Capability, candidates []*entities.Candidate) error {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name().String()
	}
	return entities.NewError(entities.KindMultipleExtension, capability.Name(),
		"candidates "+strings.Join(names, ", "), nil)
}
