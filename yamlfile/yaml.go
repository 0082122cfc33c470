// Package yamlfile implements reading and writing of YAML translation files.
//
// The expected file format is a nested YAML map with string leaf values:
//
//	greeting: Hello
//	nav:
//	  home: Home
//	  about: About
//
// Numbers and booleans are read as their literal text, null values are
// dropped, and sequences become index-keyed maps. Written files always use
// string scalars, quoted where a plain scalar would read back as another
// type. Key order is preserved on round-trip.
package yamlfile

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/minios-linux/transync/keypath"
	"gopkg.in/yaml.v3"
)

// Extension is the file extension written for YAML translation files.
const Extension = ".yaml"

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a YAML translation file.
func ParseFile(path string) (*keypath.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses YAML data into a tree.
func Parse(data []byte) (*keypath.Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	// yaml.Unmarshal wraps the document in a DocumentNode.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return keypath.New(), nil
	}

	root := resolveAlias(doc.Content[0])
	switch root.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		return collect(root)
	case yaml.ScalarNode:
		if root.Tag == "!!null" {
			return keypath.New(), nil
		}
	}
	return nil, fmt.Errorf("YAML root must be a mapping, got %s", kindName(root.Kind))
}

// collect walks a mapping or sequence node into a tree.
func collect(node *yaml.Node) (*keypath.Tree, error) {
	tree := keypath.New()
	if node.Kind == yaml.SequenceNode {
		for i, item := range node.Content {
			if err := store(tree, strconv.Itoa(i), item); err != nil {
				return nil, err
			}
		}
		return tree, nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := resolveAlias(node.Content[i])
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
		}
		if keyNode.Tag == "!!merge" {
			return nil, fmt.Errorf("line %d: merge keys are not supported", keyNode.Line)
		}
		if err := store(tree, keyNode.Value, node.Content[i+1]); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

func store(tree *keypath.Tree, key string, valNode *yaml.Node) error {
	valNode = resolveAlias(valNode)
	switch valNode.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		sub, err := collect(valNode)
		if err != nil {
			return err
		}
		tree.SetChild(key, sub)
	case yaml.ScalarNode:
		if valNode.Tag == "!!null" {
			return nil
		}
		tree.SetLeaf(key, valNode.Value)
	}
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	default:
		return fmt.Sprintf("kind %d", k)
	}
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Marshal serialises t as a nested YAML map with two-space indentation.
func Marshal(t *keypath.Tree) ([]byte, error) {
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(toNode(t)); err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	return b.Bytes(), nil
}

// toNode converts a tree into a mapping node. Leaves are tagged as strings
// so the encoder quotes values like "true" or "42".
func toNode(t *keypath.Tree) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if t.Len() == 0 {
		m.Style = yaml.FlowStyle
	}
	for _, k := range t.Keys() {
		n, _ := t.Get(k)
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		if k == "<<" {
			// A plain << key reads back as a merge key.
			keyNode.Style = yaml.DoubleQuotedStyle
		}
		var valNode *yaml.Node
		if n.Kind == keypath.Interior {
			valNode = toNode(n.Children)
		} else {
			valNode = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.Value}
		}
		m.Content = append(m.Content, keyNode, valNode)
	}
	return m
}

// WriteFile serialises t and writes it to the given path.
func WriteFile(path string, t *keypath.Tree) error {
	data, err := Marshal(t)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
