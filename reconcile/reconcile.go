// Package reconcile shapes push requests and reads the service's verdict on
// them.
package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/minios-linux/transync/catalog"
	"github.com/minios-linux/transync/syncerr"
)

// ---------------------------------------------------------------------------
// Request
// ---------------------------------------------------------------------------

// ScopeKind tells how much of the local catalog a push covers.
type ScopeKind int

const (
	// Whole pushes every language and file.
	Whole ScopeKind = iota
	// SingleLanguage pushes every file of one language.
	SingleLanguage
	// SingleFile pushes one file of one language.
	SingleFile
)

func (k ScopeKind) String() string {
	switch k {
	case SingleLanguage:
		return "language"
	case SingleFile:
		return "file"
	default:
		return "whole"
	}
}

// Scope selects part of a local catalog.
type Scope struct {
	Language string
	File     string
}

// ScopeFor derives the scope from the push filters: a language and a file
// select one file, a language alone selects that language, anything else
// is the whole catalog.
func ScopeFor(language, file string) Scope {
	switch {
	case language != "" && file != "":
		return Scope{Language: language, File: file}
	case language != "":
		return Scope{Language: language}
	default:
		return Scope{}
	}
}

// Kind returns the kind of s.
func (s Scope) Kind() ScopeKind {
	switch {
	case s.Language != "" && s.File != "":
		return SingleFile
	case s.Language != "":
		return SingleLanguage
	default:
		return Whole
	}
}

// PushPayload is the JSON body of a push request.
type PushPayload struct {
	Translations catalog.Remote `json:"translations"`
	Overwrite    bool           `json:"overwrite"`
	Language     string         `json:"language,omitempty"`
	Filename     string         `json:"filename,omitempty"`
}

// BuildPushRequest selects the part of local named by scope and converts it
// to the remote shape. Narrow scopes are echoed in the language and
// filename fields.
func BuildPushRequest(local catalog.Local, scope Scope, overwrite bool) PushPayload {
	selected := local
	switch scope.Kind() {
	case SingleLanguage:
		selected = make(catalog.Local)
		if files, ok := local[scope.Language]; ok {
			selected[scope.Language] = files
		}
	case SingleFile:
		selected = make(catalog.Local)
		if t, ok := local[scope.Language][scope.File]; ok {
			selected.Put(scope.Language, scope.File, t)
		}
	}

	p := PushPayload{
		Translations: catalog.ToRemote(selected),
		Overwrite:    overwrite,
	}
	if scope.Kind() != Whole {
		p.Language = scope.Language
	}
	if scope.Kind() == SingleFile {
		p.Filename = scope.File
	}
	return p
}

// ---------------------------------------------------------------------------
// Response
// ---------------------------------------------------------------------------

// Outcome is the service's per-key summary of a push.
type Outcome struct {
	Created int
	Updated int
	Skipped int
	Total   int
	Message string
}

type pushResponse struct {
	Success json.RawMessage `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message json.RawMessage `json:"message"`
}

// InterpretResponse reads a push response body. Missing summary fields are
// zero. A body that is not a JSON object wraps syncerr.ErrService; one that
// does not report success wraps syncerr.ErrUnsuccessful.
func InterpretResponse(body []byte) (Outcome, error) {
	var resp pushResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Outcome{}, fmt.Errorf("%w: decoding response: %v", syncerr.ErrService, err)
	}
	if !IsSuccess(resp.Success) {
		return Outcome{}, fmt.Errorf("%w: API returned unsuccessful response", syncerr.ErrUnsuccessful)
	}

	var out Outcome
	if s, ok := scalar(resp.Message); ok {
		out.Message = s
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		// Absent, null, or the empty array PHP emits for an empty map.
		return out, nil
	}
	var summary map[string]json.RawMessage
	if err := json.Unmarshal(data["summary"], &summary); err != nil {
		return out, nil
	}
	out.Created = count(summary["created"])
	out.Updated = count(summary["updated"])
	out.Skipped = count(summary["skipped"])
	out.Total = count(summary["total"])
	return out, nil
}

// IsSuccess reports whether a success field is truthy: true, a non-zero
// number, or a non-empty string other than "0".
func IsSuccess(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != "" && x != "0"
	case map[string]any:
		return len(x) > 0
	case []any:
		return len(x) > 0
	}
	return false
}

// count reads a summary counter. Numeric strings are accepted; anything
// else is zero.
func count(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	switch x := v.(type) {
	case float64:
		return int(x)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func scalar(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
