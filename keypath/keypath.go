// Package keypath implements the nested key/value tree used for translation
// resources and its dot-notation codec.
//
// A Tree is an ordered mapping from segment to Node. A Node is either a leaf
// holding a translation string or an interior node holding another Tree,
// never both:
//
//	auth:
//	    login:  "Log in"         → leaf at "auth.login"
//	    errors:                  → interior at "auth.errors"
//	        required: "Required" → leaf at "auth.errors.required"
//
// Flatten walks a tree depth-first and produces dot-joined paths; Expand
// rebuilds a tree from (path, value) pairs, creating interior nodes on the
// way down.
package keypath

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins path segments in the canonical string form.
const Separator = "."

// ErrInvalidKeyPath is returned for paths with empty segments.
var ErrInvalidKeyPath = errors.New("invalid key path")

// ---------------------------------------------------------------------------
// Nodes
// ---------------------------------------------------------------------------

// Kind tells a leaf from an interior node.
type Kind int

const (
	// Leaf nodes hold a translation value.
	Leaf Kind = iota
	// Interior nodes hold a nested tree.
	Interior
)

// Node is one position in a Tree.
type Node struct {
	Kind Kind
	// Value is set for leaves.
	Value string
	// Children is set for interior nodes.
	Children *Tree
}

// IsLeaf reports whether n holds a scalar value.
func (n *Node) IsLeaf() bool { return n.Kind == Leaf }

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// Tree is an insertion-ordered mapping from segment to Node.
type Tree struct {
	keys  []string
	nodes map[string]*Node
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{nodes: make(map[string]*Node)}
}

// Len returns the number of direct children.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Keys returns the segments in insertion order.
func (t *Tree) Keys() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Get returns the node stored under seg.
func (t *Tree) Get(seg string) (*Node, bool) {
	if t == nil {
		return nil, false
	}
	n, ok := t.nodes[seg]
	return n, ok
}

// SetLeaf stores value under seg, replacing whatever was there. A replaced
// node keeps its position.
func (t *Tree) SetLeaf(seg, value string) {
	t.put(seg, &Node{Kind: Leaf, Value: value})
}

// Child returns the subtree under seg, creating it when seg is absent or
// currently holds a leaf.
func (t *Tree) Child(seg string) *Tree {
	if n, ok := t.nodes[seg]; ok && n.Kind == Interior {
		return n.Children
	}
	sub := New()
	t.put(seg, &Node{Kind: Interior, Children: sub})
	return sub
}

// SetChild stores sub under seg, replacing whatever was there.
func (t *Tree) SetChild(seg string, sub *Tree) {
	if sub == nil {
		sub = New()
	}
	t.put(seg, &Node{Kind: Interior, Children: sub})
}

// Delete removes seg from the tree.
func (t *Tree) Delete(seg string) {
	if _, ok := t.nodes[seg]; !ok {
		return
	}
	delete(t.nodes, seg)
	for i, k := range t.keys {
		if k == seg {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
}

func (t *Tree) put(seg string, n *Node) {
	if _, ok := t.nodes[seg]; !ok {
		t.keys = append(t.keys, seg)
	}
	t.nodes[seg] = n
}

// Count returns the number of leaves in the tree.
func (t *Tree) Count() int {
	if t == nil {
		return 0
	}
	count := 0
	for _, k := range t.keys {
		n := t.nodes[k]
		if n.Kind == Interior {
			count += n.Children.Count()
		} else {
			count++
		}
	}
	return count
}

// Equal reports whether a and b hold the same nodes. Key order is ignored.
func Equal(a, b *Tree) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, k := range a.Keys() {
		na, _ := a.Get(k)
		nb, ok := b.Get(k)
		if !ok || na.Kind != nb.Kind {
			return false
		}
		if na.Kind == Leaf {
			if na.Value != nb.Value {
				return false
			}
			continue
		}
		if !Equal(na.Children, nb.Children) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of t.
func (t *Tree) Clone() *Tree {
	out := New()
	for _, k := range t.Keys() {
		n := t.nodes[k]
		if n.Kind == Interior {
			out.put(k, &Node{Kind: Interior, Children: n.Children.Clone()})
		} else {
			out.SetLeaf(k, n.Value)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// Path is a sequence of non-empty segments.
type Path []string

// ParsePath splits a dot-joined path.
func ParsePath(s string) (Path, error) {
	segs := strings.Split(s, Separator)
	for _, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidKeyPath, s)
		}
	}
	return Path(segs), nil
}

// String joins the segments with the separator.
func (p Path) String() string {
	return strings.Join(p, Separator)
}

// Set writes value at path, creating interior nodes along the way. A leaf
// found where an interior node is needed is replaced, and so is an interior
// node found at the final segment: the last write wins.
func (t *Tree) Set(path Path, value string) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: empty path", ErrInvalidKeyPath)
	}
	for _, seg := range path {
		if seg == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidKeyPath, path.String())
		}
	}
	set(t, path, value)
	return nil
}

func set(t *Tree, path Path, value string) {
	if len(path) == 1 {
		t.SetLeaf(path[0], value)
		return
	}
	set(t.Child(path[0]), path[1:], value)
}

// Lookup returns the leaf value at path.
func (t *Tree) Lookup(path Path) (string, bool) {
	cur := t
	for i, seg := range path {
		n, ok := cur.Get(seg)
		if !ok {
			return "", false
		}
		if i == len(path)-1 {
			if n.Kind != Leaf {
				return "", false
			}
			return n.Value, true
		}
		if n.Kind != Interior {
			return "", false
		}
		cur = n.Children
	}
	return "", false
}

// ---------------------------------------------------------------------------
// Codec
// ---------------------------------------------------------------------------

// Entry is a flattened leaf.
type Entry struct {
	Path  string
	Value string
}

// Flatten lists every leaf of t with its dot-joined path, depth-first in
// tree order. Interior nodes without leaves contribute nothing.
func Flatten(t *Tree) []Entry {
	var out []Entry
	flatten(t, "", &out)
	return out
}

func flatten(t *Tree, prefix string, out *[]Entry) {
	for _, k := range t.Keys() {
		n, _ := t.Get(k)
		path := k
		if prefix != "" {
			path = prefix + Separator + k
		}
		if n.Kind == Interior {
			flatten(n.Children, path, out)
			continue
		}
		*out = append(*out, Entry{Path: path, Value: n.Value})
	}
}

// FlattenMap is Flatten collected into a map.
func FlattenMap(t *Tree) map[string]string {
	entries := Flatten(t)
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Path] = e.Value
	}
	return m
}

// Expand builds a nested tree from entries, processed in slice order. When
// two entries disagree about whether a prefix is a leaf or an interior node
// the later entry wins (see Tree.Set).
func Expand(entries []Entry) (*Tree, error) {
	t := New()
	for _, e := range entries {
		p, err := ParsePath(e.Path)
		if err != nil {
			return nil, err
		}
		set(t, p, e.Value)
	}
	return t, nil
}

// Flat returns a one-level tree holding each entry under its full path
// string, without splitting on the separator.
func Flat(entries []Entry) *Tree {
	t := New()
	for _, e := range entries {
		t.SetLeaf(e.Path, e.Value)
	}
	return t
}
