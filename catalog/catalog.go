// Package catalog holds the two shapes a translation catalog takes and the
// pivot between them.
//
// The remote service groups translations by resource file, then key, then
// language:
//
//	{"auth": {"login": {"en": "Log in", "fr": null}}}
//
// Local files are grouped by language, then resource file, each file being
// a keypath.Tree:
//
//	en/auth.php → ['login' => 'Log in']
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/minios-linux/transync/keypath"
)

// ---------------------------------------------------------------------------
// Remote shape
// ---------------------------------------------------------------------------

// Remote maps file → key path → language → value. A nil value means the key
// has no translation in that language.
type Remote map[string]map[string]map[string]*string

// Set stores value at file/key/lang.
func (r Remote) Set(file, key, lang string, value *string) {
	keys, ok := r[file]
	if !ok {
		keys = make(map[string]map[string]*string)
		r[file] = keys
	}
	langs, ok := keys[key]
	if !ok {
		langs = make(map[string]*string)
		keys[key] = langs
	}
	langs[lang] = value
}

// Languages returns the sorted set of languages that have at least one
// non-null value.
func (r Remote) Languages() []string {
	seen := make(map[string]bool)
	for _, keys := range r {
		for _, langs := range keys {
			for lang, v := range langs {
				if v != nil {
					seen[lang] = true
				}
			}
		}
	}
	return sortedKeys(seen)
}

// KeyCount returns the number of distinct file/key pairs.
func (r Remote) KeyCount() int {
	n := 0
	for _, keys := range r {
		n += len(keys)
	}
	return n
}

// UnmarshalJSON decodes the service's translations object. The service
// encodes an empty catalog as [], and entries that are not objects are
// ignored. Numbers and booleans are kept as their literal text.
func (r *Remote) UnmarshalJSON(data []byte) error {
	out := make(Remote)
	if isEmptyValue(data) {
		*r = out
		return nil
	}

	var files map[string]json.RawMessage
	if err := json.Unmarshal(data, &files); err != nil {
		return fmt.Errorf("decoding translations: %w", err)
	}
	for file, rawKeys := range files {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(rawKeys, &keys); err != nil {
			continue
		}
		for key, rawLangs := range keys {
			var langs map[string]json.RawMessage
			if err := json.Unmarshal(rawLangs, &langs); err != nil {
				continue
			}
			for lang, rawValue := range langs {
				value, ok := scalarText(rawValue)
				if !ok {
					continue
				}
				out.Set(file, key, lang, value)
			}
		}
	}
	*r = out
	return nil
}

// isEmptyValue reports whether data is null or an empty array.
func isEmptyValue(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if string(trimmed) == "null" {
		return true
	}
	if len(trimmed) < 2 || trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		return false
	}
	return len(bytes.TrimSpace(trimmed[1:len(trimmed)-1])) == 0
}

// scalarText converts a JSON scalar to its value. Objects and arrays are
// rejected; null yields a nil value.
func scalarText(raw json.RawMessage) (*string, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	switch x := v.(type) {
	case nil:
		return nil, true
	case string:
		return &x, true
	case json.Number:
		s := x.String()
		return &s, true
	case bool:
		s := fmt.Sprint(x)
		return &s, true
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// Local shape
// ---------------------------------------------------------------------------

// Local maps language → file → tree.
type Local map[string]map[string]*keypath.Tree

// Put stores t as lang/file.
func (l Local) Put(lang, file string, t *keypath.Tree) {
	files, ok := l[lang]
	if !ok {
		files = make(map[string]*keypath.Tree)
		l[lang] = files
	}
	files[file] = t
}

// Languages returns the languages in sorted order.
func (l Local) Languages() []string {
	out := make([]string, 0, len(l))
	for lang := range l {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Files returns the file names of lang in sorted order.
func (l Local) Files(lang string) []string {
	out := make([]string, 0, len(l[lang]))
	for file := range l[lang] {
		out = append(out, file)
	}
	sort.Strings(out)
	return out
}

// KeyCount returns the number of leaves across all files.
func (l Local) KeyCount() int {
	n := 0
	for _, files := range l {
		for _, t := range files {
			n += t.Count()
		}
	}
	return n
}

// FileCount returns the number of language/file pairs.
func (l Local) FileCount() int {
	n := 0
	for _, files := range l {
		n += len(files)
	}
	return n
}

// ---------------------------------------------------------------------------
// Pivot
// ---------------------------------------------------------------------------

// fileSuffixes are stripped from remote file names.
var fileSuffixes = []string{".php", ".json", ".yaml", ".yml"}

// NormalizeFileName strips a trailing format extension from a resource file
// name.
func NormalizeFileName(name string) string {
	lower := strings.ToLower(name)
	for _, suffix := range fileSuffixes {
		if strings.HasSuffix(lower, suffix) && len(name) > len(suffix) {
			return name[:len(name)-len(suffix)]
		}
	}
	return name
}

// ToLocal pivots a remote catalog into the local shape. Null values are
// dropped, and when language is non-empty only that language is kept. Each
// resulting tree is flat: its top-level keys are the remote key paths,
// inserted in sorted order. Use Expand to build nested trees.
func ToLocal(r Remote, language string) Local {
	out := make(Local)
	for _, file := range sortedKeys(r) {
		name := NormalizeFileName(file)
		keys := r[file]
		for _, key := range sortedKeys(keys) {
			langs := keys[key]
			for _, lang := range sortedKeys(langs) {
				v := langs[lang]
				if v == nil {
					continue
				}
				if language != "" && lang != language {
					continue
				}
				files, ok := out[lang]
				if !ok {
					files = make(map[string]*keypath.Tree)
					out[lang] = files
				}
				t, ok := files[name]
				if !ok {
					t = keypath.New()
					files[name] = t
				}
				t.SetLeaf(key, *v)
			}
		}
	}
	return out
}

// ToRemote pivots a local catalog into the remote shape. Nested trees are
// flattened into dot-joined key paths.
func ToRemote(l Local) Remote {
	out := make(Remote)
	for lang, files := range l {
		for file, t := range files {
			for _, e := range keypath.Flatten(t) {
				v := e.Value
				out.Set(file, e.Path, lang, &v)
			}
		}
	}
	return out
}

// Expand returns a copy of l whose trees are expanded from dotted keys into
// nested maps. Keys are processed in tree order, so for a flat tree built by
// ToLocal "a" is seen before "a.b" and the nested form wins.
func Expand(l Local) (Local, error) {
	out := make(Local, len(l))
	for lang, files := range l {
		for file, t := range files {
			nested, err := keypath.Expand(keypath.Flatten(t))
			if err != nil {
				return nil, &KeyError{Language: lang, File: file, Err: err}
			}
			out.Put(lang, file, nested)
		}
	}
	return out, nil
}

// KeyError reports which file held an unusable key path.
type KeyError struct {
	Language string
	File     string
	Err      error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.Language, e.File, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
