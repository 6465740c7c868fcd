package ports

import (
	"context"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
)

// VersionResolver converts version constraints to exact versions.
type VersionResolver interface {
	Resolve(constraint string, available []string) (string, error)
	Satisfies(constraint, version string) (bool, error)
}

// LockfileRepository manages lockfile persistence.
type LockfileRepository interface {
	Load(ctx context.Context, path string) (*entities.Lockfile, error)
	Save(ctx context.Context, lockfile *entities.Lockfile, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}
