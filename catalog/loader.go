package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ErrBundleNotFound is returned by loaders when no file backs a bundle name.
var ErrBundleNotFound = errors.New("bundle not found")

// Bundle is a flat set of messages loaded for one name and locale.
type Bundle struct {
	Messages map[string]string
	Name     string
	Locale   language.Tag
}

// Loader finds the bundle for a name, choosing the variant closest to locale.
type Loader interface {
	LoadBundle(name string, locale language.Tag) (*Bundle, error)
}

// FSLoader reads bundle files from one or more file systems. A bundle named
// "greet.English" is backed by greet.English.yaml and its locale variants
// such as greet.English_fr.yaml, at any depth. YAML and JSON are accepted.
type FSLoader struct {
	roots []fs.FS
}

// NewFSLoader creates a loader over roots, searched in order.
func NewFSLoader(roots ...fs.FS) *FSLoader {
	return &FSLoader{roots: roots}
}

// LoadBundle implements Loader.
func (l *FSLoader) LoadBundle(name string, locale language.Tag) (*Bundle, error) {
	for _, root := range l.roots {
		variants, err := findVariants(root, name)
		if err != nil {
			return nil, err
		}
		if len(variants) == 0 {
			continue
		}

		file, tag := pickVariant(variants, locale)
		messages, err := readMessages(root, file)
		if err != nil {
			return nil, fmt.Errorf("reading bundle %q: %w", file, err)
		}
		return &Bundle{Name: name, Locale: tag, Messages: messages}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, name)
}

type variant struct {
	file string
	tag  language.Tag
}

func findVariants(root fs.FS, name string) ([]variant, error) {
	pattern := "**/" + escapeMeta(name) + "*.{yaml,yml,json}"
	matches, err := doublestar.Glob(root, pattern)
	if err != nil {
		return nil, fmt.Errorf("searching bundle files for %q: %w", name, err)
	}

	var out []variant
	for _, m := range matches {
		base := strings.TrimSuffix(path.Base(m), path.Ext(m))
		switch {
		case base == name:
			out = append(out, variant{file: m, tag: language.Und})
		case strings.HasPrefix(base, name+"_"):
			tag, err := language.Parse(strings.TrimPrefix(base, name+"_"))
			if err != nil {
				continue
			}
			out = append(out, variant{file: m, tag: tag})
		}
	}
	return out, nil
}

// pickVariant matches locale against the available variants. The base file
// is the fallback when no locale variant is close enough.
func pickVariant(variants []variant, locale language.Tag) (string, language.Tag) {
	ordered := make([]variant, 0, len(variants))
	for _, v := range variants {
		if v.tag == language.Und {
			ordered = append(ordered, v)
		}
	}
	for _, v := range variants {
		if v.tag != language.Und {
			ordered = append(ordered, v)
		}
	}

	tags := make([]language.Tag, len(ordered))
	for i, v := range ordered {
		tags[i] = v.tag
	}
	_, i, confidence := language.NewMatcher(tags).Match(locale)
	if confidence == language.No {
		i = 0
	}
	return ordered[i].file, ordered[i].tag
}

func readMessages(root fs.FS, file string) (map[string]string, error) {
	data, err := fs.ReadFile(root, file)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	messages := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			messages[k] = ""
			continue
		}
		messages[k] = fmt.Sprint(v)
	}
	return messages, nil
}

func escapeMeta(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `{`, `\{`, `}`, `\}`)
	return r.Replace(s)
}
