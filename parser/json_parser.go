package parser

import (
	"encoding/json"
)

// JSONDocumentParser implements DocumentParser for JSON.
type JSONDocumentParser struct{}

// NewJSONDocumentParser creates a new JSONDocumentParser.
func NewJSONDocumentParser() DocumentParser {
	return &JSONDocumentParser{}
}

// Parse unmarshals JSON bytes into a map.
func (p *JSONDocumentParser) Parse(data []byte) (map[string]any, error) {
	doc := map[string]any{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
