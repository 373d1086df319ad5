package testsupport

import (
	"path/filepath"
	"testing"

	"variantshare/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Export.Timezone = "UTC"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSearch points the search index at address.
func WithSearch(address, index string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Search.Addresses = []string{address}
		if index != "" {
			b.cfg.Search.Index = index
		}
	}
}

// WithDocGen points the document generation service at baseURL.
func WithDocGen(baseURL, repositoryID string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.DocGen.BaseURL = baseURL
		b.cfg.DocGen.RepositoryID = repositoryID
	}
}

// WithMail selects a dispatch transport and endpoint.
func WithMail(transport, endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mail.Transport = transport
		b.cfg.Mail.Endpoint = endpoint
	}
}

// WithAPIToken enables bearer authentication on the daemon API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// BaseDir returns the temp root used for the config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
