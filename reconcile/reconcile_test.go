package reconcile

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/minios-linux/transync/catalog"
	"github.com/minios-linux/transync/keypath"
	"github.com/minios-linux/transync/syncerr"
)

func leafTree(kv ...string) *keypath.Tree {
	t := keypath.New()
	for i := 0; i+1 < len(kv); i += 2 {
		t.SetLeaf(kv[i], kv[i+1])
	}
	return t
}

func sampleLocal() catalog.Local {
	l := make(catalog.Local)
	l.Put("en", "auth", leafTree("login", "Log in"))
	l.Put("en", "menu", leafTree("home", "Home"))
	l.Put("fr", "auth", leafTree("login", "Connexion"))
	return l
}

func TestBuildPushRequest_FileScope(t *testing.T) {
	local := make(catalog.Local)
	local.Put("en", "auth", leafTree("login", "Log in"))

	p := BuildPushRequest(local, ScopeFor("en", "auth"), false)

	v := "Log in"
	want := catalog.Remote{"auth": {"login": {"en": &v}}}
	if !reflect.DeepEqual(p.Translations, want) {
		t.Fatalf("Translations = %v, want %v", p.Translations, want)
	}
	if p.Language != "en" || p.Filename != "auth" {
		t.Fatalf("Language/Filename = %q/%q, want en/auth", p.Language, p.Filename)
	}
}

func TestBuildPushRequest_Scopes(t *testing.T) {
	tests := []struct {
		name      string
		scope     Scope
		wantFiles []string
		wantLangs []string
		language  string
		filename  string
	}{
		{"whole", ScopeFor("", ""), []string{"auth", "menu"}, []string{"en", "fr"}, "", ""},
		{"language", ScopeFor("fr", ""), []string{"auth"}, []string{"fr"}, "fr", ""},
		{"file", ScopeFor("en", "menu"), []string{"menu"}, []string{"en"}, "en", "menu"},
		{"file without language", ScopeFor("", "menu"), []string{"auth", "menu"}, []string{"en", "fr"}, "", ""},
		{"missing file", ScopeFor("fr", "menu"), []string{}, []string{}, "fr", "menu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildPushRequest(sampleLocal(), tt.scope, true)
			files := make([]string, 0)
			for f := range p.Translations {
				files = append(files, f)
			}
			if len(files) != len(tt.wantFiles) {
				t.Fatalf("files = %v, want %v", files, tt.wantFiles)
			}
			if got := p.Translations.Languages(); len(got) != len(tt.wantLangs) || (len(got) > 0 && !reflect.DeepEqual(got, tt.wantLangs)) {
				t.Fatalf("languages = %v, want %v", got, tt.wantLangs)
			}
			if p.Language != tt.language || p.Filename != tt.filename {
				t.Fatalf("Language/Filename = %q/%q", p.Language, p.Filename)
			}
			if !p.Overwrite {
				t.Fatal("Overwrite should be carried")
			}
		})
	}
}

func TestPushPayload_JSON(t *testing.T) {
	p := BuildPushRequest(sampleLocal(), ScopeFor("", ""), false)
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if _, ok := m["language"]; ok {
		t.Fatal("whole scope must not send language")
	}
	if _, ok := m["filename"]; ok {
		t.Fatal("whole scope must not send filename")
	}
	if string(m["overwrite"]) != "false" {
		t.Fatalf("overwrite = %s", m["overwrite"])
	}
	if _, ok := m["translations"]; !ok {
		t.Fatal("translations missing")
	}
}

func TestScopeKind(t *testing.T) {
	if ScopeFor("en", "auth").Kind() != SingleFile ||
		ScopeFor("en", "").Kind() != SingleLanguage ||
		ScopeFor("", "auth").Kind() != Whole {
		t.Fatal("unexpected scope kinds")
	}
	if SingleFile.String() != "file" {
		t.Fatalf("String() = %q", SingleFile.String())
	}
}

func TestInterpretResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Outcome
	}{
		{"empty data", `{"success": true, "data": {}}`, Outcome{}},
		{"no data", `{"success": true}`, Outcome{}},
		{"php empty array", `{"success": true, "data": []}`, Outcome{}},
		{
			"full",
			`{"success": true, "message": "Imported", "data": {"summary": {"created": 3, "updated": 2, "skipped": 1, "total": 6}}}`,
			Outcome{Created: 3, Updated: 2, Skipped: 1, Total: 6, Message: "Imported"},
		},
		{
			"partial and stringly",
			`{"success": 1, "data": {"summary": {"created": "4", "total": 4}}}`,
			Outcome{Created: 4, Total: 4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InterpretResponse([]byte(tt.body))
			if err != nil {
				t.Fatalf("InterpretResponse error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("InterpretResponse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInterpretResponse_Failures(t *testing.T) {
	for _, body := range []string{`{"success": false}`, `{}`, `{"success": "0"}`, `{"data": {"summary": {}}}`} {
		_, err := InterpretResponse([]byte(body))
		if !errors.Is(err, syncerr.ErrUnsuccessful) {
			t.Errorf("InterpretResponse(%s) error = %v, want ErrUnsuccessful", body, err)
		}
	}
	for _, body := range []string{`<html>oops</html>`, ``, `[1, 2]`} {
		_, err := InterpretResponse([]byte(body))
		if !errors.Is(err, syncerr.ErrService) {
			t.Errorf("InterpretResponse(%q) error = %v, want ErrService", body, err)
		}
	}
}
