package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"variantshare/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "variantshare")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7590" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Mail.Transport != "none" {
		t.Fatalf("expected mail transport none by default, got %q", cfg.Mail.Transport)
	}
	if cfg.Export.LocatorAppType != "web" {
		t.Fatalf("unexpected locator app type: %q", cfg.Export.LocatorAppType)
	}
	if got := cfg.Location().String(); got != "Asia/Kolkata" {
		t.Fatalf("unexpected export location: %q", got)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "variantshare.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		Mail struct {
			Transport string `toml:"transport"`
			Endpoint  string `toml:"endpoint"`
		} `toml:"mail"`
		Export struct {
			ImageAppTypes []string `toml:"image_app_types"`
			Timezone      string   `toml:"timezone"`
		} `toml:"export"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Mail.Transport = "Multipart"
	custom.Mail.Endpoint = "https://mailer.example.com/send/"
	custom.Export.ImageAppTypes = []string{" Web ", "web", "SAP", ""}
	custom.Export.Timezone = "UTC"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Mail.Transport != "multipart" {
		t.Fatalf("expected normalized transport, got %q", cfg.Mail.Transport)
	}
	if cfg.Mail.Endpoint != "https://mailer.example.com/send" {
		t.Fatalf("expected trimmed endpoint, got %q", cfg.Mail.Endpoint)
	}
	if strings.Join(cfg.Export.ImageAppTypes, ",") != "web,sap" {
		t.Fatalf("unexpected image app types: %v", cfg.Export.ImageAppTypes)
	}
	if cfg.UserDBPath() != filepath.Join(tempDir, "data", "users.db") {
		t.Fatalf("unexpected user db path: %q", cfg.UserDBPath())
	}
}

func TestEnvVarFallbacksForCredentials(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "variantshare.toml")
	body := "[mail]\ntransport = \"graph\"\ngraph_sender = \"exports@example.com\"\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("VARIANTSHARE_MAIL_TOKEN", "env-mail")
	t.Setenv("VARIANTSHARE_SEARCH_API_KEY", "env-search")
	t.Setenv("VARIANTSHARE_API_TOKEN", "env-api")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Mail.Token != "env-mail" {
		t.Errorf("expected mail token from env, got %q", cfg.Mail.Token)
	}
	if cfg.Search.APIKey != "env-search" {
		t.Errorf("expected search key from env, got %q", cfg.Search.APIKey)
	}
	if cfg.Paths.APIToken != "env-api" {
		t.Errorf("expected api token from env, got %q", cfg.Paths.APIToken)
	}
	if cfg.Mail.Endpoint != "https://graph.microsoft.com/v1.0" {
		t.Errorf("expected default graph endpoint, got %q", cfg.Mail.Endpoint)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "variantshare") {
		t.Fatalf("expected data dir to contain variantshare, got %q", cfg.Paths.DataDir)
	}
	if cfg.Export.LocatorAppType != "web" {
		t.Fatalf("unexpected sample locator app type %q", cfg.Export.LocatorAppType)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"multipart without endpoint", func(c *config.Config) { c.Mail.Transport = "multipart" }},
		{"graph without sender", func(c *config.Config) {
			c.Mail.Transport = "graph"
			c.Mail.Endpoint = "https://graph.example.com"
			c.Mail.Token = "tok"
		}},
		{"unknown transport", func(c *config.Config) { c.Mail.Transport = "pigeon" }},
		{"docgen without repository", func(c *config.Config) { c.DocGen.BaseURL = "https://docgen.example.com" }},
		{"bad timezone", func(c *config.Config) { c.Export.Timezone = "Mars/Olympus" }},
		{"bad locale", func(c *config.Config) { c.Export.Locale = "not a locale!" }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"bad search address", func(c *config.Config) { c.Search.Addresses = []string{"ftp://index"} }},
		{"burst missing", func(c *config.Config) { c.API.SendBurst = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
