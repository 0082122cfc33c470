// Package credentials stores API tokens for translation services.
//
// Tokens live in the XDG data directory:
//
//	$XDG_DATA_HOME/transync/auth.json  (default: ~/.local/share/transync/auth.json)
//
// The file is a JSON object keyed by API base URL, so one machine can hold
// tokens for several installations of the service. File permissions are
// 0600 (owner read/write only).
//
// Lookup order for the token:
//  1. --token flag (highest priority)
//  2. SMARTPMS_TRANSLATION_TOKEN environment variable or project file
//  3. This credential store
package credentials

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const (
	dataDirName = "transync"
	fileName    = "auth.json"
)

// Entry is one stored token.
type Entry struct {
	Token string `json:"token"`
	// Saved is a Unix timestamp.
	Saved int64 `json:"saved,omitempty"`
}

// Store holds all entries, keyed by normalized API URL.
type Store map[string]*Entry

// URLs returns the stored API URLs in sorted order.
func (s Store) URLs() []string {
	return slices.Sorted(maps.Keys(s))
}

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// dataDir respects $XDG_DATA_HOME and falls back to ~/.local/share.
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json file path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}
	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Token helpers
// ---------------------------------------------------------------------------

// normalizeURL makes "https://x/api/" and "https://x/api" share an entry.
func normalizeURL(apiURL string) string {
	return strings.TrimRight(strings.TrimSpace(apiURL), "/")
}

// Token returns the stored token for apiURL, or "" if there is none.
func Token(apiURL string) string {
	e := Load()[normalizeURL(apiURL)]
	if e == nil {
		return ""
	}
	return e.Token
}

// SetToken stores token for apiURL.
func SetToken(apiURL, token string) error {
	store := Load()
	store[normalizeURL(apiURL)] = &Entry{Token: token, Saved: time.Now().Unix()}
	return Save(store)
}

// Remove deletes the token for apiURL. Reports whether one existed.
func Remove(apiURL string) (bool, error) {
	store := Load()
	key := normalizeURL(apiURL)
	if _, ok := store[key]; !ok {
		return false, nil
	}
	delete(store, key)
	return true, Save(store)
}

// RemoveAll removes all stored credentials.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Display helpers
// ---------------------------------------------------------------------------

// MaskKey returns a masked version of a key/token for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
