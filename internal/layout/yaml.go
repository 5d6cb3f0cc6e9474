package layout

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML parses a YAML layout.
func ParseYAML(data []byte) (*Document, error) {
	var doc Document

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse layout YAML: %w", err)
	}

	applyDefaults(&doc)

	return &doc, nil
}

// MarshalYAML serializes a document to YAML.
func MarshalYAML(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(doc *Document) {
	if doc.Version == "" {
		doc.Version = CurrentVersion
	}
}
