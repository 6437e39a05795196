package testsupport

import (
	"path/filepath"
	"testing"

	"renderlane/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults one lane and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "videos")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Lanes = []config.Lane{{Name: "lane-1", APIKey: "key-1"}}

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

// WithRemote points both API base URLs at the given server.
func WithRemote(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Remote.BaseURL = baseURL
		b.cfg.Remote.UploadBaseURL = baseURL
	}
}

// WithLanes replaces the configured lanes.
func WithLanes(lanes ...config.Lane) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Lanes = lanes
	}
}

// WithPollerTuning overrides the poller budgets for fast test runs.
func WithPollerTuning(tune func(*config.Poller)) ConfigOption {
	return func(b *configBuilder) {
		tune(&b.cfg.Poller)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
