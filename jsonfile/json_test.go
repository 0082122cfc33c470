package jsonfile

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/minios-linux/transync/keypath"
)

func TestMarshal_PrettyUnescaped(t *testing.T) {
	tree := keypath.New()
	tree.SetLeaf("greeting", "Привет <b>мир</b> & co")
	tree.SetLeaf("auth.failed", "Wrong \"password\"")
	nested := tree.Child("nav")
	nested.SetLeaf("home", "Home")

	got := string(Marshal(tree))
	want := "{\n" +
		"    \"greeting\": \"Привет <b>мир</b> & co\",\n" +
		"    \"auth.failed\": \"Wrong \\\"password\\\"\",\n" +
		"    \"nav\": {\n" +
		"        \"home\": \"Home\"\n" +
		"    }\n" +
		"}\n"
	if got != want {
		t.Fatalf("Marshal() =\n%s\nwant\n%s", got, want)
	}
}

func TestMarshal_Empty(t *testing.T) {
	if got := string(Marshal(keypath.New())); got != "{}\n" {
		t.Fatalf("Marshal(empty) = %q", got)
	}
}

func TestRoundTripKeepsOrder(t *testing.T) {
	tree := keypath.New()
	for _, k := range []string{"zeta", "alpha", "mid"} {
		tree.SetLeaf(k, strings.ToUpper(k))
	}
	tree.Child("inner").SetLeaf("x", "line\nbreak\ttab")

	back, err := Parse(Marshal(tree))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !keypath.Equal(tree, back) {
		t.Fatalf("round trip mismatch: %v", keypath.FlattenMap(back))
	}
	if !reflect.DeepEqual(back.Keys(), tree.Keys()) {
		t.Fatalf("Keys() = %v, want %v", back.Keys(), tree.Keys())
	}
}

func TestParse_Scalars(t *testing.T) {
	tree, err := Parse([]byte(`{"n": 3, "f": 2.50, "skip": null, "list": ["a", "b"], "s": "x"}`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	got := keypath.FlattenMap(tree)
	want := map[string]string{"n": "3", "f": "2.50", "list.0": "a", "list.1": "b", "s": "x"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse() = %v, want %v", got, want)
	}
}

func TestParse_EmptyArrayDocument(t *testing.T) {
	tree, err := Parse([]byte("[]"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if tree.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", tree.Len())
	}
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{
		``,
		`"just a string"`,
		`{"a": "b"`,
		`{"a": true}`,
		`{"a": "b"} {"c": "d"}`,
		`{a: "b"}`,
	} {
		if _, err := Parse([]byte(src)); err == nil {
			t.Errorf("Parse(%q) should fail", src)
		}
	}
}

func TestWriteFileAndParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.json")
	tree := keypath.New()
	tree.SetLeaf("a", "b")
	if err := WriteFile(path, tree); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	back, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}
	if !keypath.Equal(tree, back) {
		t.Fatalf("ParseFile() = %v", keypath.FlattenMap(back))
	}
}
