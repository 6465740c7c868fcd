package filesystem

import (
	"time"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
)

// Lockfile represents the YAML structure of a lockfile.
type Lockfile struct {
	Generated    time.Time                 `yaml:"generated"`
	Capabilities map[string]CapabilityLock `yaml:"capabilities"`
	Version      int                       `yaml:"lockfile_version"`
}

// CapabilityLock represents the implementations pinned for one capability in YAML.
type CapabilityLock struct {
	Resolved        time.Time            `yaml:"resolved,omitempty"`
	Capability      string               `yaml:"capability"`
	Implementations []ImplementationLock `yaml:"implementations"`
}

// ImplementationLock represents one pinned implementation in YAML.
type ImplementationLock struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version,omitempty"`
}

// ToEntity converts the lockfile to a domain entity.
func (l *Lockfile) ToEntity() *entities.Lockfile {
	entity := &entities.Lockfile{
		Generated:    l.Generated,
		Version:      l.Version,
		Capabilities: make(map[string]entities.CapabilityLock, len(l.Capabilities)),
	}

	for key, lock := range l.Capabilities {
		impls := make([]entities.ImplementationLock, len(lock.Implementations))
		for i, impl := range lock.Implementations {
			impls[i] = entities.ImplementationLock{Name: impl.Name, Version: impl.Version}
		}
		entity.Capabilities[key] = entities.CapabilityLock{
			Resolved:        lock.Resolved,
			Capability:      lock.Capability,
			Implementations: impls,
		}
	}

	return entity
}

// FromEntity converts a domain lockfile to YAML representation.
func FromEntity(entity *entities.Lockfile) *Lockfile {
	if entity == nil {
		return nil
	}

	l := &Lockfile{
		Generated:    entity.Generated,
		Version:      entity.Version,
		Capabilities: make(map[string]CapabilityLock, len(entity.Capabilities)),
	}

	for key, lock := range entity.Capabilities {
		impls := make([]ImplementationLock, len(lock.Implementations))
		for i, impl := range lock.Implementations {
			impls[i] = ImplementationLock{Name: impl.Name, Version: impl.Version}
		}
		l.Capabilities[key] = CapabilityLock{
			Resolved:        lock.Resolved,
			Capability:      lock.Capability,
			Implementations: impls,
		}
	}

	return l
}
