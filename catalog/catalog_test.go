package catalog_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/reglet-dev/reglet-xtend/catalog"
	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type Greeter struct{}

type named struct{}

func (named) BundleName() string { return "custom" }

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"messages/greet.yaml":               {Data: []byte("title: Hello\ncount: 42\nratio: 0.5\nitems: \"[1] items\"\ngreeting: \"Hello [1], meet [2]. Bye [1]\"\n")},
		"messages/greet_fr.yaml":            {Data: []byte("title: Bonjour\n")},
		"messages/nested/common.json":       {Data: []byte(`{"title": "Common", "footer": "Bye"}`)},
		"messages/catalog_test.Greeter.yml": {Data: []byte("kind: greeter\n")},
		"messages/custom.yaml":              {Data: []byte("kind: custom\n")},
		"messages/greeter.yaml":             {Data: []byte("title: Wrong file\n")},
		"messages/broken.yaml":              {Data: []byte("title: [unclosed\n")},
	}
}

func TestCatalog_AddBundle(t *testing.T) {
	t.Parallel()

	c := catalog.New(catalog.WithLoader(catalog.NewFSLoader(testFS())))

	ok, err := c.AddBundle("greet", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Hello", c.Get("title"))

	t.Run("already loaded keeps priority", func(t *testing.T) {
		ok, err := c.AddBundle("greet", 10)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"greet"}, c.Bundles())
	})

	t.Run("missing bundle is NoBundle", func(t *testing.T) {
		ok, err := c.AddBundle("absent", 0)
		assert.False(t, ok)
		assert.ErrorIs(t, err, entities.ErrNoBundle)
		assert.ErrorIs(t, err, catalog.ErrBundleNotFound)
	})

	t.Run("broken bundle is not NoBundle", func(t *testing.T) {
		_, err := c.AddBundle("broken", 0)
		require.Error(t, err)
		assert.False(t, errors.Is(err, entities.ErrNoBundle))
	})

	t.Run("no loader", func(t *testing.T) {
		_, err := catalog.New().AddBundle("greet", 0)
		assert.ErrorIs(t, err, entities.ErrNoBundle)
	})
}

func TestCatalog_Priority(t *testing.T) {
	t.Parallel()

	c := catalog.New(catalog.WithLoader(catalog.NewFSLoader(testFS())))
	_, err := c.AddBundle("greet", 5)
	require.NoError(t, err)
	_, err = c.AddBundle("common", 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"common", "greet"}, c.Bundles())
	assert.Equal(t, "Common", c.Get("title"), "lower priority value searched first")
	assert.Equal(t, "Bye", c.Get("footer"))
	assert.Equal(t, "missing.key", c.Get("missing.key"))

	_, ok := c.Lookup("missing.key")
	assert.False(t, ok)
}

func TestCatalog_Locale(t *testing.T) {
	t.Parallel()

	fr := catalog.New(
		catalog.WithLoader(catalog.NewFSLoader(testFS())),
		catalog.WithLocale(language.French),
	)
	_, err := fr.AddBundle("greet", 0)
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", fr.Get("title"))
	assert.Equal(t, language.French, fr.Locale())

	de := catalog.New(
		catalog.WithLoader(catalog.NewFSLoader(testFS())),
		catalog.WithLocale(language.German),
	)
	_, err = de.AddBundle("greet", 0)
	require.NoError(t, err)
	assert.Equal(t, "Hello", de.Get("title"), "falls back to the base file")
}

func TestCatalog_Typed(t *testing.T) {
	t.Parallel()

	c := catalog.New(catalog.WithLoader(catalog.NewFSLoader(testFS())))
	_, err := c.AddBundle("greet", 0)
	require.NoError(t, err)

	assert.Equal(t, 42, c.GetInt("count"))
	assert.Equal(t, 0, c.GetInt("title"))
	assert.InDelta(t, 0.5, c.GetFloat("ratio"), 1e-9)
	assert.Equal(t, 0.0, c.GetFloat("title"))
}

func TestCatalog_Arguments(t *testing.T) {
	t.Parallel()

	c := catalog.New(catalog.WithLoader(catalog.NewFSLoader(testFS())))
	_, err := c.AddBundle("greet", 0)
	require.NoError(t, err)

	tests := []struct {
		name string
		key  string
		want string
		args []any
	}{
		{name: "positional", key: "greeting", args: []any{"Bob", "Ann"}, want: "Hello Bob, meet Ann. Bye Bob"},
		{name: "nil argument", key: "greeting", args: []any{nil, "Ann"}, want: "Hello 'null', meet Ann. Bye 'null'"},
		{name: "missing argument kept", key: "greeting", args: []any{"Bob"}, want: "Hello Bob, meet [2]. Bye Bob"},
		{name: "extra argument ignored", key: "items", args: []any{3, "x"}, want: "3 items"},
		{name: "number uses locale", key: "items", args: []any{1000}, want: "1,000 items"},
		{name: "no arguments", key: "items", want: "[1] items"},
		{name: "unknown key", key: "Hi [1]", args: []any{"Bob"}, want: "Hi Bob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, c.Get(tt.key, tt.args...))
		})
	}
}

func TestCatalog_GetOrNull(t *testing.T) {
	t.Parallel()

	c := catalog.New(catalog.WithLoader(catalog.NewFSLoader(testFS())))
	_, err := c.AddBundle("greet", 0)
	require.NoError(t, err)

	got, ok := c.GetOrNull("greeting", "Bob", "Ann")
	assert.True(t, ok)
	assert.Equal(t, "Hello Bob, meet Ann. Bye Bob", got)

	got, ok = c.GetOrNull("missing.key")
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestCatalog_AddAssociatedBundle(t *testing.T) {
	t.Parallel()

	c := catalog.New(catalog.WithLoader(catalog.NewFSLoader(testFS())))

	ok, err := c.AddAssociatedBundle(&Greeter{}, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "greeter", c.Get("kind"))

	ok, err = c.AddAssociatedBundle(named{}, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AddAssociatedBundle("greet", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.AddAssociatedBundle(struct{}{}, 0)
	assert.ErrorIs(t, err, entities.ErrNoBundle)

	_, err = c.AddAssociatedBundle(nil, 0)
	assert.ErrorIs(t, err, entities.ErrNoBundle)
}

func TestBundleNameOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "catalog_test.Greeter", catalog.BundleNameOf(&Greeter{}))
	assert.Equal(t, "catalog_test.Greeter", catalog.BundleNameOf(Greeter{}))
	assert.Equal(t, "custom", catalog.BundleNameOf(named{}))
	assert.Equal(t, "x", catalog.BundleNameOf("x"))
	assert.Equal(t, "int", catalog.BundleNameOf(3))
	assert.Equal(t, "", catalog.BundleNameOf(nil))
}
