package format

import (
	"errors"
	"testing"

	"github.com/minios-linux/transync/keypath"
	"github.com/minios-linux/transync/phpfile"
)

func sample() *keypath.Tree {
	t := keypath.New()
	t.SetLeaf("title", `It's "quoted" \ and ünïcödé`)
	nav := t.Child("nav")
	nav.SetLeaf("home", "Home")
	nav.Child("deep").SetLeaf("leaf", "line\nbreak")
	return t
}

func TestRenderParseRoundTrip(t *testing.T) {
	for _, k := range Kinds {
		t.Run(string(k), func(t *testing.T) {
			tree := sample()
			data, err := Render(tree, k)
			if err != nil {
				t.Fatalf("Render error: %v", err)
			}
			back, err := Parse(data, k)
			if err != nil {
				t.Fatalf("Parse error: %v\n%s", err, data)
			}
			if !keypath.Equal(tree, back) {
				t.Fatalf("round trip mismatch: %v", keypath.FlattenMap(back))
			}
		})
	}
}

func TestParse_MalformedDocument(t *testing.T) {
	inputs := map[Kind]string{
		PHP:  "<?php return [",
		JSON: `{"a":`,
		YAML: "a: [b",
	}
	for k, src := range inputs {
		_, err := Parse([]byte(src), k)
		if !errors.Is(err, ErrMalformedDocument) {
			t.Errorf("%s: error = %v, want ErrMalformedDocument", k, err)
		}
	}

	_, err := Parse([]byte("<?php return ["), PHP)
	var pe *phpfile.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error should keep the parser detail, got %v", err)
	}
}

func TestFromSetting(t *testing.T) {
	tests := map[string]Kind{"php": PHP, "raw": PHP, "JSON": JSON, "yaml": YAML, "yml": YAML}
	for in, want := range tests {
		got, err := FromSetting(in)
		if err != nil || got != want {
			t.Errorf("FromSetting(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := FromSetting("xliff"); err == nil {
		t.Fatal("unknown format should fail")
	}
}

func TestKindForFile(t *testing.T) {
	tests := []struct {
		path string
		want Kind
		ok   bool
	}{
		{"lang/en/auth.php", PHP, true},
		{"lang/en/app.JSON", JSON, true},
		{"lang/en/app.yml", YAML, true},
		{"lang/en/readme.md", "", false},
		{"lang/en/noext", "", false},
	}
	for _, tt := range tests {
		got, ok := KindForFile(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("KindForFile(%q) = %q, %v", tt.path, got, ok)
		}
	}
}

func TestExtensionAndNested(t *testing.T) {
	if PHP.Extension() != ".php" || JSON.Extension() != ".json" || YAML.Extension() != ".yaml" {
		t.Fatal("unexpected extensions")
	}
	if JSON.Nested() || !PHP.Nested() || !YAML.Nested() {
		t.Fatal("only JSON should stay flat")
	}
}
