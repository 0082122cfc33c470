// Package format dispatches rendering and parsing of translation trees to
// the per-format packages.
package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/minios-linux/transync/jsonfile"
	"github.com/minios-linux/transync/keypath"
	"github.com/minios-linux/transync/phpfile"
	"github.com/minios-linux/transync/yamlfile"
)

// ErrMalformedDocument is returned when a file cannot be parsed.
var ErrMalformedDocument = errors.New("malformed document")

// Kind is a file format.
type Kind string

const (
	// PHP files return a nested array literal.
	PHP Kind = "php"
	// JSON files hold a (possibly nested) object.
	JSON Kind = "json"
	// YAML files hold a nested map.
	YAML Kind = "yaml"
)

// Kinds lists the supported file formats.
var Kinds = []Kind{PHP, JSON, YAML}

// Extension returns the file extension, including the dot.
func (k Kind) Extension() string {
	switch k {
	case PHP:
		return phpfile.Extension
	case JSON:
		return jsonfile.Extension
	case YAML:
		return yamlfile.Extension
	}
	return ""
}

// Nested reports whether pulled keys are expanded into nested maps for this
// format. JSON files keep dotted keys flat.
func (k Kind) Nested() bool {
	return k != JSON
}

// FromSetting maps a configured output format to a file kind. The API's
// "raw" format is written as PHP.
func FromSetting(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "php", "raw":
		return PHP, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unsupported format %q (use json, php, raw or yaml)", s)
}

// KindForFile returns the format of path based on its extension.
func KindForFile(path string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".php":
		return PHP, true
	case ".json":
		return JSON, true
	case ".yaml", ".yml":
		return YAML, true
	}
	return "", false
}

// Render serialises t in the given format.
func Render(t *keypath.Tree, k Kind) ([]byte, error) {
	switch k {
	case PHP:
		return phpfile.Marshal(t), nil
	case JSON:
		return jsonfile.Marshal(t), nil
	case YAML:
		return yamlfile.Marshal(t)
	}
	return nil, fmt.Errorf("unsupported format %q", k)
}

// Parse parses data in the given format. Syntax errors wrap
// ErrMalformedDocument.
func Parse(data []byte, k Kind) (*keypath.Tree, error) {
	var (
		t   *keypath.Tree
		err error
	)
	switch k {
	case PHP:
		t, err = phpfile.Parse(data)
	case JSON:
		t, err = jsonfile.Parse(data)
	case YAML:
		t, err = yamlfile.Parse(data)
	default:
		return nil, fmt.Errorf("unsupported format %q", k)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return t, nil
}
