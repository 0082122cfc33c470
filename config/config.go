// Package config resolves transync settings from defaults, the project
// file, and the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Defaults.
const (
	DefaultAPIURL       = "https://pms-intool.smartness.com/api"
	DefaultFormat       = "php"
	DefaultStatusFilter = "approved"
	DefaultTimeout      = 30
	DefaultOutputDir    = "lang"
)

// Environment variables.
const (
	EnvAPIURL    = "SMARTPMS_TRANSLATION_API_URL"
	EnvToken     = "SMARTPMS_TRANSLATION_TOKEN"
	EnvOutputDir = "SMARTPMS_TRANSLATION_OUTPUT_DIR"
	EnvFormat    = "SMARTPMS_TRANSLATION_FORMAT"
	EnvStatus    = "SMARTPMS_TRANSLATION_STATUS"
	EnvTimeout   = "SMARTPMS_TRANSLATION_TIMEOUT"
)

// Formats lists the accepted output formats.
var Formats = []string{"json", "php", "raw", "yaml"}

// Statuses lists the accepted status filters. "all" disables filtering.
var Statuses = []string{"approved", "pending", "rejected", "all"}

// outputDirCandidates are probed, in order, when no output directory is
// configured.
var outputDirCandidates = []string{"lang", filepath.Join("resources", "lang")}

// Config holds every setting a command needs. It is built once and passed
// down explicitly.
type Config struct {
	APIURL       string `yaml:"api_url,omitempty" toml:"api_url"`
	APIToken     string `yaml:"api_token,omitempty" toml:"api_token"`
	OutputDir    string `yaml:"output_dir,omitempty" toml:"output_dir"`
	Format       string `yaml:"format,omitempty" toml:"format"`
	StatusFilter string `yaml:"status_filter,omitempty" toml:"status_filter"`
	// Timeout is in seconds.
	Timeout int `yaml:"timeout,omitempty" toml:"timeout"`

	// Source is the project file the values were read from, if any.
	Source string `yaml:"-" toml:"-"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		APIURL:       DefaultAPIURL,
		OutputDir:    DefaultOutputDir,
		Format:       DefaultFormat,
		StatusFilter: DefaultStatusFilter,
		Timeout:      DefaultTimeout,
	}
}

// Load resolves the configuration for the project in rootDir: defaults,
// then the project file, then the environment. When no output directory is
// configured it is detected from the project layout. A relative output
// directory is resolved against rootDir.
func Load(rootDir string) (Config, error) {
	cfg := Default()

	pf, err := LoadProjectFile(rootDir)
	if err != nil {
		return cfg, err
	}
	if pf != nil {
		cfg.Merge(*pf)
		cfg.Source = pf.Source
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}

	if (pf == nil || pf.OutputDir == "") && os.Getenv(EnvOutputDir) == "" {
		cfg.OutputDir = DetectOutputDir(rootDir)
	}
	if !filepath.IsAbs(cfg.OutputDir) {
		cfg.OutputDir = filepath.Join(rootDir, cfg.OutputDir)
	}
	return cfg, nil
}

// Merge copies every non-zero field of o into c.
func (c *Config) Merge(o Config) {
	if o.APIURL != "" {
		c.APIURL = o.APIURL
	}
	if o.APIToken != "" {
		c.APIToken = o.APIToken
	}
	if o.OutputDir != "" {
		c.OutputDir = o.OutputDir
	}
	if o.Format != "" {
		c.Format = o.Format
	}
	if o.StatusFilter != "" {
		c.StatusFilter = o.StatusFilter
	}
	if o.Timeout != 0 {
		c.Timeout = o.Timeout
	}
}

// ApplyEnv overrides c with the SMARTPMS_TRANSLATION_* variables that are
// set.
func (c *Config) ApplyEnv() error {
	var env Config
	env.APIURL = strings.TrimSpace(os.Getenv(EnvAPIURL))
	env.APIToken = strings.TrimSpace(os.Getenv(EnvToken))
	env.OutputDir = strings.TrimSpace(os.Getenv(EnvOutputDir))
	env.Format = strings.TrimSpace(os.Getenv(EnvFormat))
	env.StatusFilter = strings.TrimSpace(os.Getenv(EnvStatus))
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid timeout %q", EnvTimeout, v)
		}
		env.Timeout = n
	}
	c.Merge(env)
	return nil
}

// DetectOutputDir returns the first conventional translation directory
// that exists under rootDir, relative to it, or DefaultOutputDir.
func DetectOutputDir(rootDir string) string {
	for _, dir := range outputDirCandidates {
		if info, err := os.Stat(filepath.Join(rootDir, dir)); err == nil && info.IsDir() {
			return dir
		}
	}
	return DefaultOutputDir
}

// TimeoutDuration returns the timeout as a duration.
func (c Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Validate checks the settings. The token is only required when the
// command talks to the service.
func (c Config) Validate(requireToken bool) error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API URL %q", c.APIURL)
	}
	if !contains(Formats, strings.ToLower(c.Format)) {
		return fmt.Errorf("unknown format %q (valid: %s)", c.Format, strings.Join(Formats, ", "))
	}
	if c.StatusFilter != "" && !contains(Statuses, strings.ToLower(c.StatusFilter)) {
		return fmt.Errorf("unknown status filter %q (valid: %s)", c.StatusFilter, strings.Join(Statuses, ", "))
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", c.Timeout)
	}
	if requireToken && c.APIToken == "" {
		return fmt.Errorf("API token not configured. Please set %s or run 'transync auth login'", EnvToken)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
