package parser

import (
	"path/filepath"
	"strings"
)

// DocumentParser parses raw configuration bytes into a generic document.
type DocumentParser interface {
	// Parse unmarshals bytes into a JSON-compatible map.
	Parse(data []byte) (map[string]any, error)
}

// ForPath picks a parser from the file extension. Anything that is not
// .json is read as YAML.
func ForPath(path string) DocumentParser {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return NewJSONDocumentParser()
	}
	return NewYamlDocumentParser()
}
