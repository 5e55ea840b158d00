package testsupport

import (
	"path/filepath"
	"testing"

	"cupspdf/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a normalized config whose lock directory and journal
// live in a per-test temp directory. Logging goes to the cups format.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.MustDefault()
	cfg.Lock.Dir = filepath.Join(base, "locks")
	cfg.Journal.Path = filepath.Join(base, "journal.db")
	cfg.Logging.Format = "cups"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithAtomic toggles temp-file-then-rename delivery.
func WithAtomic(atomic bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.Atomic = atomic
	}
}

// WithTitlePolicy sets output.title_policy.
func WithTitlePolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.TitlePolicy = policy
	}
}

// WithInspectMode sets inspect.mode.
func WithInspectMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Inspect.Mode = mode
	}
}

// WithoutLocking disables destination locks.
func WithoutLocking() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Lock.Dir = ""
	}
}

// WithJournal enables the journal at its temp path.
func WithJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Journal.Path)
}
