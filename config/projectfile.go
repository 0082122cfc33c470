package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Project file names, in lookup order.
const (
	YAMLFileName = ".transync.yaml"
	TOMLFileName = ".transync.toml"
)

// LoadProjectFile reads the project file from rootDir. Returns nil if there
// is none. When both exist the YAML file wins.
func LoadProjectFile(rootDir string) (*Config, error) {
	path := filepath.Join(rootDir, YAMLFileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		cfg.Source = path
		return &cfg, nil
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	path = filepath.Join(rootDir, TOMLFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	cfg.Source = path
	return &cfg, nil
}

// WriteProjectFile writes cfg as .transync.yaml in rootDir. The token is
// never written; it belongs in the credential store or the environment.
func WriteProjectFile(rootDir string, cfg Config) (string, error) {
	cfg.APIToken = ""
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	path := filepath.Join(rootDir, YAMLFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
