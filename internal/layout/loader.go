package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
)

// LoadFile reads a layout, choosing the format by file extension:
// .yaml and .yml for YAML, .hcl for HCL.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file %s: %w", path, err)
	}

	var doc *Document

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		doc, err = ParseYAML(data)
	case ".hcl":
		doc, err = ParseHCL(path, data)
	default:
		return nil, fmt.Errorf("layout file %s: unsupported extension %q", path, ext)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	doc.Source = path

	return doc, nil
}

// LoadFiles reads every path. Documents that loaded are returned in input
// order even when others failed; the error combines all failures.
func LoadFiles(paths ...string) ([]*Document, error) {
	var (
		docs []*Document
		errs error
	)

	for _, p := range paths {
		doc, err := LoadFile(p)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		docs = append(docs, doc)
	}

	return docs, errs
}
