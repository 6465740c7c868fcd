package xtend_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	xtend "github.com/reglet-dev/reglet-xtend"
	"github.com/reglet-dev/reglet-xtend/config"
	"github.com/reglet-dev/reglet-xtend/extension"
	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/services"
	"github.com/reglet-dev/reglet-xtend/extension/values"
	"github.com/reglet-dev/reglet-xtend/universe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CatalogPolicy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shape := values.InterfaceOf[Shape]()
	noBundle := entities.NewError(entities.KindNoBundle, "", "bundle \"shapes.square\"", nil)
	ioErr := errors.New("catalog unreadable")

	tests := []struct {
		name    string
		err     error
		policy  services.CatalogPolicy
		wantErr error
	}{
		{name: "default swallows NoBundle", err: noBundle, policy: services.CatalogSwallowNoBundle},
		{name: "default reports other failures", err: ioErr, policy: services.CatalogSwallowNoBundle, wantErr: entities.ErrExtension},
		{name: "ignore all", err: ioErr, policy: services.CatalogIgnoreAll},
		{name: "propagate all", err: noBundle, policy: services.CatalogPropagateAll, wantErr: entities.ErrNoBundle},
		{name: "success", policy: services.CatalogPropagateAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cat := &extension.MockCatalog{Err: tt.err}
			m := newManager(t, newTable(t, squareCandidate()),
				xtend.WithCatalog(cat),
				xtend.WithCatalogPolicy(tt.policy),
				xtend.WithCatalogPriority(3))

			got, err := m.LoadAbstract(ctx, shape)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, got)
			}
			require.Len(t, cat.Objects, 1)
			assert.IsType(t, &square{}, cat.Objects[0])
		})
	}
}

func TestManager_DefaultCatalog(t *testing.T) {
	t.Parallel()

	m, err := xtend.NewManager(
		xtend.WithUniverse(newTable(t, squareCandidate())),
		xtend.WithLogger(extension.NewTestLogger()))
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	got, err := xtend.Load[Shape](context.Background(), m)
	require.NoError(t, err, "an empty catalog reports NoBundle, which is swallowed")
	assert.Equal(t, "square", got.Name())
}

func TestManager_Close(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shape := values.InterfaceOf[Shape]()
	m, err := xtend.NewManager(
		xtend.WithUniverse(newTable(t, squareCandidate())),
		xtend.WithCatalog(nil),
		xtend.WithLogger(extension.NewTestLogger()))
	require.NoError(t, err)

	_, err = m.LoadAbstract(ctx, shape)
	require.NoError(t, err)
	m.SetInstance("kept", 1)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.Empty(t, m.Snapshot())
	assert.Nil(t, m.Instance("kept"))

	m.SetInstance("late", 2)
	assert.Nil(t, m.Instance("late"))

	_, err = m.LoadAbstract(ctx, shape)
	assert.ErrorIs(t, err, entities.ErrExtension)
	_, err = m.LoadAbstracts(ctx, shape)
	assert.ErrorIs(t, err, entities.ErrExtension)
	_, err = m.LoadContainer(ctx, shape)
	assert.ErrorIs(t, err, entities.ErrExtension)
	_, err = m.LoadContainers(ctx, shape, true)
	assert.ErrorIs(t, err, entities.ErrExtension)
	_, err = m.LoadSpecific(ctx, "shapes.square")
	assert.ErrorIs(t, err, entities.ErrExtension)
	_, err = m.ExtensionType(ctx, shape)
	assert.ErrorIs(t, err, entities.ErrExtension)
	assert.ErrorIs(t, m.Preload(squareCandidate()), entities.ErrExtension)
}

func TestManager_KnownTypes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shape := values.InterfaceOf[Shape]()
	table := newTable(t, squareCandidate(), circleCandidate())

	t.Run("known types answer before the universe", func(t *testing.T) {
		m := newManager(t, table, xtend.WithKnownTypes(circleCandidate()))

		got, err := m.LoadAbstract(ctx, shape)
		require.NoError(t, err)
		assert.IsType(t, &circle{}, got)

		_, err = m.LoadAbstract(ctx, shape, xtend.ForcedReload(true))
		assert.ErrorIs(t, err, entities.ErrMultipleExtension, "forced reload scans the universe")
	})

	t.Run("preload", func(t *testing.T) {
		m := newManager(t, table)
		require.NoError(t, m.Preload(triangleCandidate()))

		got, err := m.LoadAbstract(ctx, shape)
		require.NoError(t, err)
		assert.IsType(t, &triangle{}, got)

		got, err = m.LoadSpecific(ctx, "shapes.triangle")
		require.NoError(t, err)
		assert.IsType(t, &triangle{}, got)
	})
}

func TestManager_AbstractKnownTypeFallsBack(t *testing.T) {
	t.Parallel()

	m := newManager(t, newTable(t, squareCandidate()), xtend.WithKnownTypes(polygonCandidate()))

	got, err := m.LoadAbstract(context.Background(), values.InterfaceOf[Shape]())
	require.NoError(t, err)
	assert.IsType(t, &square{}, got)
}

func TestManager_FilterAppliesToKnownTypes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shape := values.InterfaceOf[Shape]()

	t.Run("lockfile written before a constraint", func(t *testing.T) {
		lockPath := filepath.Join(t.TempDir(), "xtend.lock")
		table := newTable(t, squareCandidate())

		first := newManager(t, table, xtend.WithLockfile(lockPath))
		_, err := first.LoadAbstract(ctx, shape)
		require.NoError(t, err)
		_, err = first.SaveLockfile(ctx)
		require.NoError(t, err)

		f, err := universe.NewFilter(universe.Constrain(shape.Name(), "^2.0"))
		require.NoError(t, err)
		second := newManager(t, table, xtend.WithLockfile(lockPath), xtend.WithFilter(f))
		n, err := second.PreloadLockfile(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		_, err = second.LoadAbstract(ctx, shape)
		assert.ErrorIs(t, err, entities.ErrNoExtension)
	})

	t.Run("constrained known types", func(t *testing.T) {
		table := newTable(t, squareCandidate(), circleCandidate())

		tests := []struct {
			name       string
			constraint string
			want       Shape
		}{
			{name: "known type allowed", constraint: "^1.1", want: &circle{}},
			{name: "known type rejected", constraint: "~1.0", want: &square{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f, err := universe.NewFilter(universe.Constrain(shape.Name(), tt.constraint))
				require.NoError(t, err)
				m := newManager(t, table, xtend.WithFilter(f), xtend.WithKnownTypes(circleCandidate()))

				got, err := m.LoadAbstract(ctx, shape)
				require.NoError(t, err)
				assert.IsType(t, tt.want, got)
			})
		}
	})

	t.Run("disabled known type", func(t *testing.T) {
		f, err := universe.NewFilter(universe.Disable("shapes.triangle"))
		require.NoError(t, err)
		m := newManager(t, newTable(t, squareCandidate()),
			xtend.WithFilter(f), xtend.WithKnownTypes(triangleCandidate()))

		_, err = m.LoadSpecific(ctx, "shapes.triangle")
		assert.ErrorIs(t, err, entities.ErrNoExtension)

		got, err := m.LoadAbstract(ctx, shape)
		require.NoError(t, err)
		assert.IsType(t, &square{}, got)
	})
}

func TestManager_LoadInstanceClosedDuringConstruction(t *testing.T) {
	t.Parallel()

	var m *xtend.Manager
	closing := func(next services.ConstructFunc) services.ConstructFunc {
		return func(ctx context.Context, c *entities.Candidate, ctor entities.Constructor, args []any) (any, error) {
			instance, err := next(ctx, c, ctor, args)
			_ = m.Close()
			return instance, err
		}
	}
	m = newManager(t, newTable(t, squareCandidate()), xtend.WithMiddleware(closing))

	got, err := m.LoadInstance(context.Background(), "main", values.InterfaceOf[Shape]())
	require.NoError(t, err)
	assert.IsType(t, &square{}, got)
	assert.Nil(t, m.Instance("main"))
}

func TestManager_Lockfile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shape := values.InterfaceOf[Shape]()
	lockPath := filepath.Join(t.TempDir(), "xtend.lock")
	table := newTable(t, squareCandidate(), circleCandidate(), triangleCandidate())

	first := newManager(t, table, xtend.WithLockfile(lockPath))
	all, err := first.LoadAbstracts(ctx, shape)
	require.NoError(t, err)
	require.Len(t, all, 3)

	snapshot := first.Snapshot()
	require.Len(t, snapshot, 1)
	assert.True(t, snapshot[0].Capability.Equals(shape))

	lock, err := first.SaveLockfile(ctx)
	require.NoError(t, err)
	entry := lock.GetCapability(shape.Key())
	require.NotNil(t, entry)
	assert.Equal(t, []string{"shapes.square", "shapes.circle", "shapes.triangle"}, entry.Names())

	second := newManager(t, table, xtend.WithLockfile(lockPath))
	n, err := second.PreloadLockfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.True(t, table.Unregister("shapes.circle"))
	preloaded, err := second.LoadAbstracts(ctx, shape)
	require.NoError(t, err)
	assert.Len(t, preloaded, 3, "preloaded types survive the universe change")

	t.Run("no lockfile configured", func(t *testing.T) {
		m := newManager(t, table)
		_, err := m.PreloadLockfile(ctx)
		assert.Error(t, err)
		_, err = m.SaveLockfile(ctx)
		assert.Error(t, err)
	})

	t.Run("missing lockfile preloads nothing", func(t *testing.T) {
		m := newManager(t, table, xtend.WithLockfile(filepath.Join(t.TempDir(), "none.lock")))
		n, err := m.PreloadLockfile(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestManager_Middleware(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		order  []string
		events []xtend.ConstructEvent
	)
	tag := func(name string) xtend.Middleware {
		return func(next services.ConstructFunc) services.ConstructFunc {
			return func(ctx context.Context, c *entities.Candidate, ctor entities.Constructor, args []any) (any, error) {
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
				return next(ctx, c, ctor, args)
			}
		}
	}
	observe := func(e xtend.ConstructEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}

	broken := entities.MustNewCandidateFor[*circle]("shapes.broken",
		entities.WithConstructors(entities.Constructor0(func() *circle { panic("bad radius") })))
	m := newManager(t, newTable(t, squareCandidate(), broken),
		xtend.WithMiddleware(tag("outer"), tag("inner")),
		xtend.WithMiddleware(xtend.LoggingMiddleware(extension.NewTestLogger()), xtend.ObserverMiddleware(observe)))

	_, err := m.LoadSpecific(context.Background(), "shapes.square")
	require.NoError(t, err)
	_, err = m.LoadSpecific(context.Background(), "shapes.broken")
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"outer", "inner", "outer", "inner"}, order)
	require.Len(t, events, 2)
	assert.Equal(t, "shapes.square", events[0].Implementation)
	assert.NoError(t, events[0].Err)
	assert.Equal(t, "shapes.broken", events[1].Implementation)
	assert.ErrorContains(t, events[1].Err, "bad radius")
}

func TestManager_WithConfig(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shape := values.InterfaceOf[Shape]()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reglet-xtend_test.square.yaml"), []byte("title: Square\n"), 0o600))

	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Catalog.Directories = []string{dir}
	cfg.Catalog.Policy = services.CatalogPropagateAll.String()
	cfg.Universe.Disabled = []string{"shapes.circle"}
	cfg.Lockfile = filepath.Join(dir, "xtend.lock")

	m, err := xtend.NewManager(
		xtend.WithUniverse(newTable(t, squareCandidate(), circleCandidate())),
		xtend.WithConfig(cfg),
	)
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	got, err := m.LoadAbstract(ctx, shape)
	require.NoError(t, err, "circle is disabled and the square bundle exists")
	assert.IsType(t, &square{}, got)

	_, err = m.LoadSpecific(ctx, "shapes.circle")
	assert.ErrorIs(t, err, entities.ErrNoExtension)

	_, err = m.SaveLockfile(ctx)
	require.NoError(t, err)
	_, err = os.Stat(cfg.Lockfile)
	assert.NoError(t, err)

	t.Run("invalid config", func(t *testing.T) {
		bad := config.Default()
		bad.Catalog.Policy = "sometimes"
		_, err := xtend.NewManager(xtend.WithConfig(bad))
		assert.ErrorContains(t, err, "applying config")
	})

	t.Run("missing bundle propagates", func(t *testing.T) {
		strict := config.Default()
		strict.Log.Level = "error"
		strict.Catalog.Policy = services.CatalogPropagateAll.String()
		m, err := xtend.NewManager(
			xtend.WithUniverse(newTable(t, squareCandidate())),
			xtend.WithConfig(strict))
		require.NoError(t, err)
		defer func() { _ = m.Close() }()

		_, err = m.LoadAbstract(ctx, shape)
		assert.ErrorIs(t, err, entities.ErrNoBundle)
	})
}

func TestNewManager_Defaults(t *testing.T) {
	_, err := xtend.NewManager(xtend.WithUniverse(nil))
	assert.Error(t, err)

	m, err := xtend.NewManager(xtend.WithLogger(extension.NewTestLogger()))
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	_, err = m.LoadAbstract(context.Background(), values.MustNewAbstractCapability("xtend.unregistered"))
	assert.ErrorIs(t, err, entities.ErrNoExtension, "universe.Default knows nothing about it")
}
