// Package catalog provides the message catalog that extensions register
// their bundles with.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Named lets an object choose its associated bundle name.
type Named interface {
	BundleName() string
}

type entry struct {
	bundle   *Bundle
	priority int
	seq      int
}

// Catalog holds loaded bundles ordered by priority. Lower priority values
// are searched first; equal priorities keep load order.
type Catalog struct {
	loader  Loader
	logger  *slog.Logger
	printer *message.Printer
	byName  map[string]*entry
	entries []*entry
	locale  language.Tag
	seq     int
	mu      sync.RWMutex
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLoader sets where bundles come from.
func WithLoader(loader Loader) Option {
	return func(c *Catalog) {
		c.loader = loader
	}
}

// WithLocale sets the preferred locale.
func WithLocale(tag language.Tag) Option {
	return func(c *Catalog) {
		c.locale = tag
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an empty catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		logger: slog.Default(),
		byName: make(map[string]*entry),
		locale: language.English,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.printer = message.NewPrinter(c.locale)
	return c
}

// Locale returns the preferred locale.
func (c *Catalog) Locale() language.Tag {
	return c.locale
}

// AddBundle loads the named bundle at priority. A bundle already present
// keeps its original priority. A missing bundle fails with entities.ErrNoBundle.
func (c *Catalog) AddBundle(name string, priority int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byName[name]; ok {
		return true, nil
	}
	if c.loader == nil {
		return false, entities.NewError(entities.KindNoBundle, "", fmt.Sprintf("no loader for bundle %q", name), nil)
	}

	b, err := c.loader.LoadBundle(name, c.locale)
	if err != nil {
		if errors.Is(err, ErrBundleNotFound) {
			return false, entities.NewError(entities.KindNoBundle, "", fmt.Sprintf("bundle %q", name), err)
		}
		return false, fmt.Errorf("loading bundle %q: %w", name, err)
	}

	e := &entry{bundle: b, priority: priority, seq: c.seq}
	c.seq++
	c.byName[name] = e
	c.entries = append(c.entries, e)
	sort.SliceStable(c.entries, func(i, j int) bool {
		if c.entries[i].priority != c.entries[j].priority {
			return c.entries[i].priority < c.entries[j].priority
		}
		return c.entries[i].seq < c.entries[j].seq
	})

	c.logger.Debug("bundle added", "name", name, "priority", priority, "locale", b.Locale.String())
	return true, nil
}

// AddAssociatedBundle loads the bundle associated with object.
func (c *Catalog) AddAssociatedBundle(object any, priority int) (bool, error) {
	name := BundleNameOf(object)
	if name == "" {
		return false, entities.NewError(entities.KindNoBundle, "", "object has no bundle name", nil)
	}
	return c.AddBundle(name, priority)
}

// BundleNameOf derives the bundle name for object: its BundleName method, the
// string itself, or the last package path element and type name of its
// dereferenced type, e.g. "greet.English".
func BundleNameOf(object any) string {
	switch v := object.(type) {
	case nil:
		return ""
	case Named:
		return v.BundleName()
	case string:
		return v
	}

	t := reflect.TypeOf(object)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return ""
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return path.Base(t.PkgPath()) + "." + t.Name()
}

// Lookup returns the message for key from the first bundle that has it.
func (c *Catalog) Lookup(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries {
		if v, ok := e.bundle.Messages[key]; ok {
			return v, true
		}
	}
	return "", false
}

// Get returns the message for key, or key itself when no bundle has it.
// Placeholders [1], [2], ... are replaced by the matching argument in
// order; a nil argument renders as 'null'. Numbers are formatted for the
// catalog locale.
func (c *Catalog) Get(key string, args ...any) string {
	v, ok := c.Lookup(key)
	if !ok {
		v = key
	}
	for i, arg := range args {
		v = strings.ReplaceAll(v, "["+strconv.Itoa(i+1)+"]", c.formatArg(arg))
	}
	return v
}

// GetOrNull is Get without the key fallback: it reports false when the
// result is the key itself.
func (c *Catalog) GetOrNull(key string, args ...any) (string, bool) {
	v := c.Get(key, args...)
	if v == key {
		return "", false
	}
	return v, true
}

func (c *Catalog) formatArg(arg any) string {
	switch v := arg.(type) {
	case nil:
		return "'null'"
	case string:
		return v
	default:
		return c.printer.Sprint(v)
	}
}

// GetInt returns the message for key as an integer, 0 if it is not one.
func (c *Catalog) GetInt(key string) int {
	n, err := strconv.Atoi(c.Get(key))
	if err != nil {
		return 0
	}
	return n
}

// GetFloat returns the message for key as a float, 0 if it is not one.
func (c *Catalog) GetFloat(key string) float64 {
	f, err := strconv.ParseFloat(c.Get(key), 64)
	if err != nil {
		return 0
	}
	return f
}

// Bundles returns loaded bundle names in search order.
func (c *Catalog) Bundles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.bundle.Name
	}
	return out
}
