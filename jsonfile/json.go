// Package jsonfile implements reading and writing of JSON translation files.
//
// Files are objects whose values are strings or nested objects:
//
//	{
//	    "login": "Log in",
//	    "errors": {
//	        "required": "This field is required."
//	    }
//	}
//
// Output uses four-space indentation, leaves non-ASCII text and HTML
// characters unescaped, and ends with a newline. Key order is preserved in
// both directions.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/minios-linux/transync/keypath"
)

// Extension is the file extension for JSON translation files.
const Extension = ".json"

const indent = "    "

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Marshal renders t as an indented JSON object.
func Marshal(t *keypath.Tree) []byte {
	var b bytes.Buffer
	writeObject(&b, t, 1)
	b.WriteByte('\n')
	return b.Bytes()
}

func writeObject(b *bytes.Buffer, t *keypath.Tree, level int) {
	if t.Len() == 0 {
		b.WriteString("{}")
		return
	}
	pad := strings.Repeat(indent, level)
	b.WriteString("{\n")
	keys := t.Keys()
	for i, k := range keys {
		n, _ := t.Get(k)
		b.WriteString(pad)
		b.WriteString(Quote(k))
		b.WriteString(": ")
		if n.Kind == keypath.Interior {
			writeObject(b, n.Children, level+1)
		} else {
			b.WriteString(Quote(n.Value))
		}
		if i < len(keys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat(indent, level-1))
	b.WriteByte('}')
}

// Quote returns s as a JSON string literal without HTML escaping.
func Quote(s string) string {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}

// WriteFile renders t and writes it to path.
func WriteFile(path string, t *keypath.Tree) error {
	if err := os.WriteFile(path, Marshal(t), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a JSON translation file.
func ParseFile(path string) (*keypath.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a JSON object into a tree, keeping key order. Numbers are
// kept as their literal text and null values are dropped. An empty array is
// accepted as an empty document; other arrays become index-keyed subtrees.
func Parse(data []byte) (*keypath.Tree, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return nil, fmt.Errorf("parsing JSON: expected object, got %v", tok)
	}

	var tree *keypath.Tree
	if delim == '{' {
		tree, err = parseObject(dec)
	} else {
		tree, err = parseArray(dec)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("parsing JSON: unexpected data after top-level value")
	}
	return tree, nil
}

// parseObject reads members up to and including the closing brace.
func parseObject(dec *json.Decoder) (*keypath.Tree, error) {
	tree := keypath.New()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %T", kt)
		}
		if err := parseValue(dec, tree, key); err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return tree, nil
}

// parseArray reads elements up to and including the closing bracket.
func parseArray(dec *json.Decoder) (*keypath.Tree, error) {
	tree := keypath.New()
	for i := 0; dec.More(); i++ {
		if err := parseValue(dec, tree, strconv.Itoa(i)); err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return tree, nil
}

func parseValue(dec *json.Decoder, tree *keypath.Tree, key string) error {
	vt, err := dec.Token()
	if err != nil {
		return err
	}
	switch v := vt.(type) {
	case string:
		tree.SetLeaf(key, v)
	case json.Number:
		tree.SetLeaf(key, v.String())
	case nil:
		// Missing translation.
	case json.Delim:
		var sub *keypath.Tree
		if v == '{' {
			sub, err = parseObject(dec)
		} else {
			sub, err = parseArray(dec)
		}
		if err != nil {
			return err
		}
		tree.SetChild(key, sub)
	default:
		return fmt.Errorf("unsupported value for key %q: %v", key, v)
	}
	return nil
}
