// Package store reads and writes translation files laid out as
// <root>/<language>/<file>.<ext>.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/minios-linux/transync/catalog"
	"github.com/minios-linux/transync/format"
	"github.com/minios-linux/transync/keypath"
)

// ErrShadowed marks a file ignored because another file of the same
// language has the same name with a different extension.
var ErrShadowed = errors.New("shadowed by another file with the same name")

// ErrInvalidName marks a language or file name that cannot be used as a
// single path element under the root.
var ErrInvalidName = errors.New("invalid name")

// Store is a translation tree on disk.
type Store struct {
	root string
	log  *zap.Logger
}

// New returns a store rooted at root.
func New(root string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{root: root, log: log}
}

// Root returns the root directory.
func (s *Store) Root() string { return s.root }

// Path returns the location of lang/file in the given format.
func (s *Store) Path(lang, file string, k format.Kind) string {
	return filepath.Join(s.root, lang, file+k.Extension())
}

// CheckName rejects language and file names that would leave lang/file
// under the root: empty names, "." and "..", and names holding a path
// separator or a NUL byte.
func CheckName(lang, file string) error {
	for _, name := range []string{lang, file} {
		switch {
		case name == "", name == ".", name == "..":
			return fmt.Errorf("%w %q", ErrInvalidName, name)
		case strings.ContainsAny(name, "/\\\x00"), strings.ContainsRune(name, filepath.Separator):
			return fmt.Errorf("%w %q: contains a path separator", ErrInvalidName, name)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Filter restricts Load to one language and/or one file name.
type Filter struct {
	Language string
	File     string
}

// File describes one loaded translation file.
type File struct {
	Language string
	Name     string
	Path     string
	Kind     format.Kind
	Keys     int
}

// Skipped is a file that could not be used.
type Skipped struct {
	Path string
	Err  error
}

// LoadResult is what Load found.
type LoadResult struct {
	Catalog catalog.Local
	// Files lists loaded files ordered by language, then name.
	Files   []File
	Skipped []Skipped
}

// Load reads every translation file under the root that matches filter.
// Unreadable or malformed files are reported in Skipped and do not stop the
// load; empty files are ignored. A missing root is an error.
func (s *Store) Load(filter Filter) (*LoadResult, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("translation directory not found: %s", s.root)
		}
		return nil, fmt.Errorf("reading %s: %w", s.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", s.root)
	}

	langs, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.root, err)
	}

	res := &LoadResult{Catalog: make(catalog.Local)}
	for _, d := range langs {
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		lang := d.Name()
		if filter.Language != "" && lang != filter.Language {
			continue
		}
		if err := s.loadLanguage(lang, filter.File, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *Store) loadLanguage(lang, fileFilter string, res *LoadResult) error {
	dir := filepath.Join(s.root, lang)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	byName := make(map[string]int)
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		kind, ok := format.KindForFile(e.Name())
		if !ok {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if fileFilter != "" && name != fileFilter {
			continue
		}

		path := filepath.Join(dir, e.Name())
		tree, err := s.readFile(path, kind)
		if err != nil {
			s.log.Warn("skipping translation file", zap.String("path", path), zap.Error(err))
			res.Skipped = append(res.Skipped, Skipped{Path: path, Err: err})
			continue
		}
		if tree == nil || tree.Count() == 0 {
			s.log.Debug("ignoring empty translation file", zap.String("path", path))
			continue
		}

		f := File{Language: lang, Name: name, Path: path, Kind: kind, Keys: tree.Count()}
		if i, dup := byName[name]; dup {
			prev := res.Files[i]
			s.log.Warn("duplicate translation file", zap.String("path", prev.Path), zap.String("shadowed_by", path))
			res.Skipped = append(res.Skipped, Skipped{Path: prev.Path, Err: fmt.Errorf("%w %s", ErrShadowed, filepath.Base(path))})
			res.Files[i] = f
		} else {
			byName[name] = len(res.Files)
			res.Files = append(res.Files, f)
		}
		res.Catalog.Put(lang, name, tree)
	}
	return nil
}

// readFile returns nil for a file with no content.
func (s *Store) readFile(path string, kind format.Kind) (*keypath.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	tree, err := format.Parse(data, kind)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := checkSegments(tree, nil); err != nil {
		return nil, fmt.Errorf("parsing %s: %w: %w", path, format.ErrMalformedDocument, err)
	}
	return tree, nil
}

// checkSegments rejects empty keys at any depth; they cannot be sent as key
// paths.
func checkSegments(t *keypath.Tree, prefix keypath.Path) error {
	for _, k := range t.Keys() {
		p := append(prefix[:len(prefix):len(prefix)], k)
		if k == "" {
			return fmt.Errorf("%w: %q has an empty segment", keypath.ErrInvalidKeyPath, p.String())
		}
		if n, _ := t.Get(k); n.Kind == keypath.Interior {
			if err := checkSegments(n.Children, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// WriteStatus tells what Write did.
type WriteStatus int

const (
	Created WriteStatus = iota
	Updated
	Unchanged
)

func (w WriteStatus) String() string {
	switch w {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Write stores data as lang/file in the given format. A file that already
// holds exactly data is left alone. New content is written to a temporary
// file and renamed into place. Names rejected by CheckName are never
// written.
func (s *Store) Write(lang, file string, k format.Kind, data []byte) (string, WriteStatus, error) {
	if err := CheckName(lang, file); err != nil {
		return "", 0, err
	}
	path := s.Path(lang, file, k)

	status := Created
	existing, err := os.ReadFile(path)
	switch {
	case err == nil && bytes.Equal(existing, data):
		s.log.Debug("translation file unchanged", zap.String("path", path))
		return path, Unchanged, nil
	case err == nil:
		status = Updated
	case !errors.Is(err, os.ErrNotExist):
		return path, 0, fmt.Errorf("reading %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return path, 0, fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := writeAtomic(path, data); err != nil {
		return path, 0, err
	}
	s.log.Debug("translation file written", zap.String("path", path), zap.Stringer("status", status))
	return path, status, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
