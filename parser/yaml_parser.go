// Package parser provides functionality for parsing configuration documents.
package parser

import (
	"gopkg.in/yaml.v3"
)

// YamlDocumentParser implements DocumentParser for YAML.
type YamlDocumentParser struct{}

// NewYamlDocumentParser creates a new YamlDocumentParser.
func NewYamlDocumentParser() DocumentParser {
	return &YamlDocumentParser{}
}

// Parse unmarshals YAML bytes into a map. An empty document yields an empty map.
func (p *YamlDocumentParser) Parse(data []byte) (map[string]any, error) {
	doc := map[string]any{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
