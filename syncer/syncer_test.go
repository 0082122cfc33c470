package syncer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/minios-linux/transync/catalog"
	"github.com/minios-linux/transync/format"
	"github.com/minios-linux/transync/keypath"
	"github.com/minios-linux/transync/reconcile"
	"github.com/minios-linux/transync/remote"
	"github.com/minios-linux/transync/store"
	"github.com/minios-linux/transync/syncerr"
)

type fakeGateway struct {
	fetched  []remote.FetchOptions
	response *remote.FetchResponse
	fetchErr error

	pushed   []reconcile.PushPayload
	pushBody string
	pushErr  error
}

func (f *fakeGateway) Fetch(_ context.Context, opts remote.FetchOptions) (*remote.FetchResponse, error) {
	f.fetched = append(f.fetched, opts)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.response, nil
}

func (f *fakeGateway) Push(_ context.Context, p reconcile.PushPayload) ([]byte, error) {
	f.pushed = append(f.pushed, p)
	if f.pushErr != nil {
		return nil, f.pushErr
	}
	return []byte(f.pushBody), nil
}

func str(s string) *string { return &s }

func sampleResponse() *remote.FetchResponse {
	r := make(catalog.Remote)
	r.Set("auth.php", "login", "en", str("Log in"))
	r.Set("auth.php", "errors.required", "en", str("Required"))
	r.Set("auth.php", "login", "fr", str("Connexion"))
	r.Set("auth.php", "errors.required", "fr", nil)
	return &remote.FetchResponse{Translations: r, Total: 2, Languages: []string{"en", "fr"}}
}

func TestPull_WritesNestedPHP(t *testing.T) {
	gw := &fakeGateway{response: sampleResponse()}
	st := store.New(t.TempDir(), nil)

	var progress, planned int
	res, err := New(gw, nil).Pull(context.Background(), st, PullOptions{
		Format:   "php",
		Status:   "approved",
		Start:    func(n int) { planned = n },
		Progress: func(FileResult) { progress++ },
	})
	if err != nil {
		t.Fatalf("Pull error: %v", err)
	}
	if len(res.Files) != 2 || progress != 2 || planned != 2 {
		t.Fatalf("Files = %+v, progress = %d, planned = %d", res.Files, progress, planned)
	}
	if res.Keys != 2 || strings.Join(res.Languages, ",") != "en,fr" {
		t.Fatalf("Keys/Languages = %d/%v", res.Keys, res.Languages)
	}
	if gw.fetched[0].Format != "php" || gw.fetched[0].Status != "approved" {
		t.Fatalf("fetch options = %+v", gw.fetched[0])
	}

	data, err := os.ReadFile(filepath.Join(st.Root(), "en", "auth.php"))
	if err != nil {
		t.Fatalf("reading en/auth.php: %v", err)
	}
	want := "<?php\n\nreturn [\n" +
		"    'errors' => [\n" +
		"        'required' => 'Required',\n" +
		"    ],\n" +
		"    'login' => 'Log in',\n" +
		"];\n"
	if string(data) != want {
		t.Fatalf("en/auth.php =\n%s\nwant\n%s", data, want)
	}

	fr, err := os.ReadFile(filepath.Join(st.Root(), "fr", "auth.php"))
	if err != nil {
		t.Fatalf("reading fr/auth.php: %v", err)
	}
	if strings.Contains(string(fr), "required") {
		t.Fatalf("null translation leaked into fr/auth.php:\n%s", fr)
	}
}

func TestPull_Idempotent(t *testing.T) {
	gw := &fakeGateway{response: sampleResponse()}
	st := store.New(t.TempDir(), nil)
	svc := New(gw, nil)

	if _, err := svc.Pull(context.Background(), st, PullOptions{Format: "php"}); err != nil {
		t.Fatalf("first Pull error: %v", err)
	}
	res, err := svc.Pull(context.Background(), st, PullOptions{Format: "php"})
	if err != nil {
		t.Fatalf("second Pull error: %v", err)
	}
	if res.Count(store.Unchanged) != 2 {
		t.Fatalf("second pull should leave files unchanged: %+v", res.Files)
	}
}

func TestPull_JSONKeepsKeysFlat(t *testing.T) {
	gw := &fakeGateway{response: sampleResponse()}
	st := store.New(t.TempDir(), nil)
	if _, err := New(gw, nil).Pull(context.Background(), st, PullOptions{Format: "json", Language: "en"}); err != nil {
		t.Fatalf("Pull error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(st.Root(), "en", "auth.json"))
	if err != nil {
		t.Fatalf("reading en/auth.json: %v", err)
	}
	if !strings.Contains(string(data), `"errors.required": "Required"`) {
		t.Fatalf("JSON should keep dotted keys:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(st.Root(), "fr")); !os.IsNotExist(err) {
		t.Fatal("language filter should skip fr")
	}
}

func TestPull_YAMLRequestsJSON(t *testing.T) {
	gw := &fakeGateway{response: sampleResponse()}
	st := store.New(t.TempDir(), nil)
	if _, err := New(gw, nil).Pull(context.Background(), st, PullOptions{Format: "yaml"}); err != nil {
		t.Fatalf("Pull error: %v", err)
	}
	if gw.fetched[0].Format != "json" {
		t.Fatalf("format sent = %q, want json", gw.fetched[0].Format)
	}
	tree, err := format.Parse(mustRead(t, filepath.Join(st.Root(), "en", "auth.yaml")), format.YAML)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if v, _ := tree.Lookup(keypath.Path{"errors", "required"}); v != "Required" {
		t.Fatalf("errors.required = %q", v)
	}
}

func TestPull_DryRunWritesNothing(t *testing.T) {
	gw := &fakeGateway{response: sampleResponse()}
	root := filepath.Join(t.TempDir(), "lang")
	res, err := New(gw, nil).Pull(context.Background(), store.New(root, nil), PullOptions{Format: "php", DryRun: true})
	if err != nil {
		t.Fatalf("Pull error: %v", err)
	}
	if !res.DryRun || len(res.Files) != 2 || res.Files[0].Path != filepath.Join(root, "en", "auth.php") {
		t.Fatalf("result = %+v", res)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatal("dry run must not create the output directory")
	}
}

func TestPull_EmptyResponse(t *testing.T) {
	gw := &fakeGateway{response: &remote.FetchResponse{Translations: catalog.Remote{}}}
	res, err := New(gw, nil).Pull(context.Background(), store.New(t.TempDir(), nil), PullOptions{Format: "php"})
	if err != nil {
		t.Fatalf("Pull error: %v", err)
	}
	if !res.Empty() {
		t.Fatalf("result should be empty: %+v", res)
	}
}

func TestPull_Errors(t *testing.T) {
	t.Run("fetch", func(t *testing.T) {
		gw := &fakeGateway{fetchErr: syncerr.ErrAuthentication}
		_, err := New(gw, nil).Pull(context.Background(), store.New(t.TempDir(), nil), PullOptions{Format: "php"})
		if !errors.Is(err, syncerr.ErrAuthentication) {
			t.Fatalf("error = %v", err)
		}
		if phase, _ := syncerr.PhaseOf(err); phase != syncerr.PhaseFetch {
			t.Fatalf("phase = %q", phase)
		}
	})

	t.Run("invalid key", func(t *testing.T) {
		r := make(catalog.Remote)
		r.Set("auth", "a..b", "en", str("x"))
		gw := &fakeGateway{response: &remote.FetchResponse{Translations: r}}
		_, err := New(gw, nil).Pull(context.Background(), store.New(t.TempDir(), nil), PullOptions{Format: "php"})
		if !errors.Is(err, keypath.ErrInvalidKeyPath) {
			t.Fatalf("error = %v", err)
		}
		var se *syncerr.Error
		if !errors.As(err, &se) || se.Phase != syncerr.PhasePivot || se.Language != "en" || se.File != "auth" {
			t.Fatalf("error context = %v", err)
		}
	})

	t.Run("file name outside root", func(t *testing.T) {
		r := make(catalog.Remote)
		r.Set("../../escaped", "title", "en", str("x"))
		gw := &fakeGateway{response: &remote.FetchResponse{Translations: r}}
		base := t.TempDir()
		st := store.New(filepath.Join(base, "lang"), nil)
		for _, dryRun := range []bool{false, true} {
			_, err := New(gw, nil).Pull(context.Background(), st, PullOptions{Format: "php", DryRun: dryRun})
			if !errors.Is(err, store.ErrInvalidName) {
				t.Fatalf("dry run %v: error = %v", dryRun, err)
			}
			var se *syncerr.Error
			if !errors.As(err, &se) || se.Phase != syncerr.PhaseWrite || se.Language != "en" || se.File != "../../escaped" {
				t.Fatalf("error context = %v", err)
			}
		}
		if _, err := os.Stat(filepath.Join(base, "escaped.php")); !os.IsNotExist(err) {
			t.Fatalf("file written outside the store root: %v", err)
		}
		if _, err := os.Stat(filepath.Join(base, "lang")); !os.IsNotExist(err) {
			t.Fatalf("store root created for a rejected name: %v", err)
		}
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := New(&fakeGateway{}, nil).Pull(context.Background(), store.New(t.TempDir(), nil), PullOptions{Format: "xliff"})
		if err == nil {
			t.Fatal("unknown format should fail")
		}
	})
}

func TestPush_RoundTrip(t *testing.T) {
	root := t.TempDir()
	st := store.New(root, nil)
	gw := &fakeGateway{response: sampleResponse(), pushBody: `{"success": true, "message": "done", "data": {"summary": {"updated": 2, "total": 3}}}`}
	svc := New(gw, nil)

	if _, err := svc.Pull(context.Background(), st, PullOptions{Format: "php"}); err != nil {
		t.Fatalf("Pull error: %v", err)
	}
	plan, err := svc.PlanPush(st, store.Filter{Language: "en"})
	if err != nil {
		t.Fatalf("PlanPush error: %v", err)
	}
	if plan.Empty() || plan.Keys() != 2 || plan.Scope.Kind() != reconcile.SingleLanguage {
		t.Fatalf("plan = %+v", plan)
	}

	outcome, err := svc.Push(context.Background(), plan, true)
	if err != nil {
		t.Fatalf("Push error: %v", err)
	}
	if outcome.Updated != 2 || outcome.Total != 3 || outcome.Message != "done" {
		t.Fatalf("outcome = %+v", outcome)
	}

	p := gw.pushed[0]
	if p.Language != "en" || p.Filename != "" || !p.Overwrite {
		t.Fatalf("payload = %+v", p)
	}
	if v := p.Translations["auth"]["errors.required"]["en"]; v == nil || *v != "Required" {
		t.Fatalf("nested key not flattened: %v", p.Translations)
	}
}

func TestPush_Errors(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "en"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "en", "auth.php"), []byte("<?php return ['a' => 'b'];"), 0644); err != nil {
		t.Fatal(err)
	}
	st := store.New(root, nil)

	gw := &fakeGateway{pushBody: `{"success": false}`}
	svc := New(gw, nil)
	plan, err := svc.PlanPush(st, store.Filter{})
	if err != nil {
		t.Fatalf("PlanPush error: %v", err)
	}
	if _, err := svc.Push(context.Background(), plan, false); !errors.Is(err, syncerr.ErrUnsuccessful) {
		t.Fatalf("error = %v, want ErrUnsuccessful", err)
	}

	gw.pushErr = syncerr.ErrService
	_, err = svc.Push(context.Background(), plan, false)
	if phase, _ := syncerr.PhaseOf(err); !errors.Is(err, syncerr.ErrService) || phase != syncerr.PhasePush {
		t.Fatalf("error = %v", err)
	}

	_, err = svc.PlanPush(store.New(filepath.Join(root, "missing"), nil), store.Filter{})
	if phase, _ := syncerr.PhaseOf(err); phase != syncerr.PhaseRead {
		t.Fatalf("missing dir error = %v", err)
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return data
}
