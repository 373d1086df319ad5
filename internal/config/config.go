package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Search contains configuration for the screenshot search index.
type Search struct {
	Addresses      []string `toml:"addresses"`
	Index          string   `toml:"index"`
	Username       string   `toml:"username"`
	Password       string   `toml:"password"`
	APIKey         string   `toml:"api_key"`
	MaxResults     int      `toml:"max_results"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// DocGen contains configuration for the remote document generation service.
type DocGen struct {
	BaseURL        string `toml:"base_url"`
	RepositoryID   string `toml:"repository_id"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Mail contains configuration for the dispatch backend.
type Mail struct {
	// Transport selects the backend: "multipart", "graph", or "none".
	Transport      string `toml:"transport"`
	Endpoint       string `toml:"endpoint"`
	GraphSender    string `toml:"graph_sender"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Export contains document layout and formatting rules.
type Export struct {
	Timezone          string   `toml:"timezone"`
	Locale            string   `toml:"locale"`
	ImageAppTypes     []string `toml:"image_app_types"`
	LocatorAppType    string   `toml:"locator_app_type"`
	URLDenyAppTypes   []string `toml:"url_deny_app_types"`
	TranslatedDefault bool     `toml:"translated_default"`
	FilenamePrefix    string   `toml:"filename_prefix"`
}

// API contains HTTP surface tuning.
type API struct {
	SendPerMinute int `toml:"send_per_minute"`
	SendBurst     int `toml:"send_burst"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for variantshare.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Search: screenshot search index connection
//   - DocGen: remote PDF rendering service
//   - Mail: artifact dispatch backend
//   - Export: document layout rules, timezone and locale
//   - API: send endpoint rate limiting
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Search  Search  `toml:"search"`
	DocGen  DocGen  `toml:"docgen"`
	Mail    Mail    `toml:"mail"`
	Export  Export  `toml:"export"`
	API     API     `toml:"api"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/variantshare/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("variantshare.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// UserDBPath returns the SQLite database backing user lookups.
func (c *Config) UserDBPath() string {
	return filepath.Join(c.Paths.DataDir, "users.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "variantshared.lock")
}

// Location resolves the configured export timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Export.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SearchTimeout returns the per-request search index timeout.
func (c *Config) SearchTimeout() time.Duration {
	return secondsOr(c.Search.TimeoutSeconds, 15)
}

// DocGenTimeout returns the per-request document generation timeout.
func (c *Config) DocGenTimeout() time.Duration {
	return secondsOr(c.DocGen.TimeoutSeconds, 60)
}

// MailTimeout returns the per-request dispatch timeout.
func (c *Config) MailTimeout() time.Duration {
	return secondsOr(c.Mail.TimeoutSeconds, 30)
}

func secondsOr(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
