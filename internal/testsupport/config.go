package testsupport

import (
	"path/filepath"
	"testing"

	"fxpipe/internal/config"
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
	cfgVal.Paths.ArtifactDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Export.SQLitePath = filepath.Join(base, "data", "fxpipe.db")
	cfgVal.Source.Currencies = []string{"USD", "SEK"}
	cfgVal.Source.RequestsPerSecond = 0
	cfgVal.Source.RetryAttempts = 1
	cfgVal.Source.RefreshHours = 0
	cfgVal.Workflow.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithCurrencies replaces the quote currencies of the source registry.
func WithCurrencies(codes ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Source.Currencies = codes
	}
}

// WithSourceURL points the ECB client at a test server.
func WithSourceURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Source.BaseURL = url
	}
}

// WithMetricsTextfile enables the metrics textfile under the temp directory.
func WithMetricsTextfile(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Textfile = filepath.Join(b.baseDir, "metrics", name)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ArtifactDir)
}
