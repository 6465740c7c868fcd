// Package config loads the declarative configuration of an extension manager.
package config

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/reglet-dev/reglet-xtend/catalog"
	"github.com/reglet-dev/reglet-xtend/extension/services"
	"github.com/reglet-dev/reglet-xtend/universe"
	"golang.org/x/text/language"
)

// Config is the root configuration document.
type Config struct {
	Log      LogConfig      `json:"log,omitempty"`
	Catalog  CatalogConfig  `json:"catalog,omitempty"`
	Universe UniverseConfig `json:"universe,omitempty"`
	Lockfile string         `json:"lockfile,omitempty" jsonschema:"description=Path of the lockfile used to preload and record resolved implementations"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `json:"format,omitempty" jsonschema:"enum=text,enum=json"`
}

// CatalogConfig configures the message catalog.
type CatalogConfig struct {
	Policy      string   `json:"policy,omitempty" jsonschema:"enum=swallow-no-bundle,enum=ignore-all,enum=propagate-all"`
	Locale      string   `json:"locale,omitempty"`
	Directories []string `json:"directories,omitempty"`
	Priority    int      `json:"priority,omitempty"`
}

// UniverseConfig restricts which implementations are visible.
type UniverseConfig struct {
	Constraints map[string]string `json:"constraints,omitempty" jsonschema:"description=Version constraint per capability"`
	Disabled    []string          `json:"disabled,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Catalog.Policy == "" {
		c.Catalog.Policy = services.CatalogSwallowNoBundle.String()
	}
	if c.Catalog.Locale == "" {
		c.Catalog.Locale = "en"
	}
}

// CatalogPolicy returns the configured catalog failure policy.
func (c *Config) CatalogPolicy() (services.CatalogPolicy, error) {
	return services.ParseCatalogPolicy(c.Catalog.Policy)
}

// Locale returns the configured catalog locale.
func (c *Config) Locale() (language.Tag, error) {
	if c.Catalog.Locale == "" {
		return language.English, nil
	}
	tag, err := language.Parse(c.Catalog.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid catalog locale %q: %w", c.Catalog.Locale, err)
	}
	return tag, nil
}

// NewCatalog builds a catalog reading bundles from the configured directories.
func (c *Config) NewCatalog(logger *slog.Logger) (*catalog.Catalog, error) {
	tag, err := c.Locale()
	if err != nil {
		return nil, err
	}

	opts := []catalog.Option{catalog.WithLocale(tag), catalog.WithLogger(logger)}
	if len(c.Catalog.Directories) > 0 {
		loader := catalog.NewFSLoader(dirFS(c.Catalog.Directories)...)
		opts = append(opts, catalog.WithLoader(loader))
	}
	return catalog.New(opts...), nil
}

// NewFilter builds the universe filter, or nil when no rule is configured.
func (c *Config) NewFilter(logger *slog.Logger) (*universe.Filter, error) {
	if len(c.Universe.Disabled) == 0 && len(c.Universe.Constraints) == 0 {
		return nil, nil
	}

	opts := []universe.FilterOption{
		universe.Disable(c.Universe.Disabled...),
		universe.WithFilterLogger(logger),
	}
	for capability, constraint := range c.Universe.Constraints {
		opts = append(opts, universe.Constrain(capability, constraint))
	}
	return universe.NewFilter(opts...)
}

func dirFS(dirs []string) []fs.FS {
	out := make([]fs.FS, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, os.DirFS(d))
	}
	return out
}
