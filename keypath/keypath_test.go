package keypath

import (
	"errors"
	"reflect"
	"testing"
)

func sampleTree() *Tree {
	t := New()
	t.SetLeaf("title", "Welcome")
	auth := t.Child("auth")
	auth.SetLeaf("login", "Log in")
	errs := auth.Child("errors")
	errs.SetLeaf("required", "Required")
	errs.SetLeaf("email", "Invalid e-mail")
	return t
}

func TestFlatten_DepthFirstInTreeOrder(t *testing.T) {
	got := Flatten(sampleTree())
	want := []Entry{
		{Path: "title", Value: "Welcome"},
		{Path: "auth.login", Value: "Log in"},
		{Path: "auth.errors.required", Value: "Required"},
		{Path: "auth.errors.email", Value: "Invalid e-mail"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Flatten() = %#v, want %#v", got, want)
	}
}

func TestFlatten_Deterministic(t *testing.T) {
	tree := sampleTree()
	first := FlattenMap(tree)
	for i := 0; i < 5; i++ {
		if got := FlattenMap(tree); !reflect.DeepEqual(got, first) {
			t.Fatalf("FlattenMap() changed between calls: %v vs %v", got, first)
		}
	}
}

func TestExpandFlattenRoundTrip(t *testing.T) {
	tree := sampleTree()
	back, err := Expand(Flatten(tree))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if !Equal(tree, back) {
		t.Fatalf("expand(flatten(T)) != T: %#v", FlattenMap(back))
	}
	if !reflect.DeepEqual(back.Keys(), tree.Keys()) {
		t.Fatalf("key order = %v, want %v", back.Keys(), tree.Keys())
	}
}

func TestExpand_CreatesIntermediateNodes(t *testing.T) {
	tree, err := Expand([]Entry{{Path: "a.b.c", Value: "deep"}})
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	a, ok := tree.Get("a")
	if !ok || a.Kind != Interior {
		t.Fatalf("a should be interior, got %#v", a)
	}
	if v, ok := tree.Lookup(Path{"a", "b", "c"}); !ok || v != "deep" {
		t.Fatalf("Lookup(a.b.c) = %q, %v", v, ok)
	}
}

func TestExpand_LeafInteriorCollisionLaterWins(t *testing.T) {
	t.Run("interior after leaf", func(t *testing.T) {
		tree, err := Expand([]Entry{
			{Path: "a", Value: "leaf"},
			{Path: "a.b", Value: "nested"},
		})
		if err != nil {
			t.Fatalf("Expand error: %v", err)
		}
		n, _ := tree.Get("a")
		if n.Kind != Interior {
			t.Fatalf("a should have become interior, got leaf %q", n.Value)
		}
		if v, _ := tree.Lookup(Path{"a", "b"}); v != "nested" {
			t.Fatalf("a.b = %q, want nested", v)
		}
	})

	t.Run("leaf after interior", func(t *testing.T) {
		tree, err := Expand([]Entry{
			{Path: "a.b", Value: "nested"},
			{Path: "a", Value: "leaf"},
		})
		if err != nil {
			t.Fatalf("Expand error: %v", err)
		}
		n, _ := tree.Get("a")
		if n.Kind != Leaf || n.Value != "leaf" {
			t.Fatalf("a = %#v, want leaf \"leaf\"", n)
		}
		if tree.Count() != 1 {
			t.Fatalf("Count() = %d, want 1", tree.Count())
		}
	})
}

func TestExpand_InvalidKeyPath(t *testing.T) {
	for _, path := range []string{"", "a..b", ".a", "a."} {
		_, err := Expand([]Entry{{Path: path, Value: "x"}})
		if !errors.Is(err, ErrInvalidKeyPath) {
			t.Fatalf("Expand(%q) error = %v, want ErrInvalidKeyPath", path, err)
		}
	}
}

func TestSet_ReplacedNodeKeepsPosition(t *testing.T) {
	tree := New()
	tree.SetLeaf("first", "1")
	tree.SetLeaf("second", "2")
	tree.SetLeaf("third", "3")
	if err := tree.Set(Path{"second", "inner"}, "x"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	want := []string{"first", "second", "third"}
	if got := tree.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
}

func TestFlat_KeepsDotsInKeys(t *testing.T) {
	tree := Flat([]Entry{{Path: "Welcome to the app.", Value: "Bienvenue."}, {Path: "a.b", Value: "c"}})
	if tree.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tree.Len())
	}
	if n, ok := tree.Get("a.b"); !ok || n.Value != "c" {
		t.Fatalf("flat key a.b missing: %#v", n)
	}
}

func TestCountAndEqual(t *testing.T) {
	a := sampleTree()
	b := a.Clone()
	if a.Count() != 4 {
		t.Fatalf("Count() = %d, want 4", a.Count())
	}
	if !Equal(a, b) {
		t.Fatal("clone should be equal")
	}
	b.Child("auth").SetLeaf("login", "Sign in")
	if Equal(a, b) {
		t.Fatal("changed clone should differ")
	}
	if v, _ := a.Lookup(Path{"auth", "login"}); v != "Log in" {
		t.Fatalf("clone aliased original: %q", v)
	}
}

func TestDelete(t *testing.T) {
	tree := sampleTree()
	tree.Delete("title")
	tree.Delete("missing")
	if got := tree.Keys(); !reflect.DeepEqual(got, []string{"auth"}) {
		t.Fatalf("Keys() = %v, want [auth]", got)
	}
}
