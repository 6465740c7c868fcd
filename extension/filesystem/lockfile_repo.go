// Package filesystem provides file-based repositories for the infrastructure layer.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/reglet-dev/reglet-xtend/extension/entities"
)

// FileLockfileRepository implements ports.LockfileRepository using the local filesystem.
type FileLockfileRepository struct{}

// NewFileLockfileRepository creates a new FileLockfileRepository.
func NewFileLockfileRepository() *FileLockfileRepository {
	return &FileLockfileRepository{}
}

// Load reads a lockfile from the given path. A missing file yields nil, nil.
func (r *FileLockfileRepository) Load(ctx context.Context, path string) (*entities.Lockfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// os.OpenRoot keeps the read inside the lockfile's directory.
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open directory %q: %w", filepath.Dir(path), err)
	}
	defer func() { _ = root.Close() }()

	base := filepath.Base(path)
	file, err := root.Open(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open lockfile %q: %w", base, err)
	}
	defer func() { _ = file.Close() }()

	var out Lockfile
	if err := yaml.NewDecoder(file).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding lockfile YAML: %w", err)
	}

	lock := out.ToEntity()
	if err := lock.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lockfile: %w", err)
	}

	return lock, nil
}

// Save writes a lockfile to the given path, creating the directory if needed.
func (r *FileLockfileRepository) Save(ctx context.Context, lockfile *entities.Lockfile, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if lockfile == nil {
		return fmt.Errorf("lockfile is nil")
	}
	if err := lockfile.Validate(); err != nil {
		return fmt.Errorf("invalid lockfile: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory %q: %w", dir, err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return fmt.Errorf("opening directory for write %q: %w", dir, err)
	}
	defer func() { _ = root.Close() }()

	base := filepath.Base(path)
	file, err := root.OpenFile(base, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating lockfile %q: %w", base, err)
	}
	defer func() { _ = file.Close() }()

	encoder := yaml.NewEncoder(file)
	defer func() { _ = encoder.Close() }()

	if err := encoder.Encode(FromEntity(lockfile)); err != nil {
		return fmt.Errorf("encoding lockfile: %w", err)
	}

	return nil
}

// Exists checks if a lockfile exists at the given path.
func (r *FileLockfileRepository) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
