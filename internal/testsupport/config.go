package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"datarecv/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The source defaults to replaying a recording at <base>/input.eti, the
// index is off and settling is short so synthetic broadcasts stay small.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "records")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Source.Kind = "file"
	cfgVal.Source.Path = filepath.Join(base, "input.eti")
	cfgVal.Store.Index = false
	cfgVal.Receiver.SettleFrames = 4
	cfgVal.Receiver.AcquireTimeoutSeconds = 5

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

// WithIndex enables the SQLite record index.
func WithIndex() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Index = true
	}
}

// WithSettleFrames overrides how long the ensemble must stay unchanged.
func WithSettleFrames(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Receiver.SettleFrames = n
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default receiver command is
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{config.Default().Source.Command}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
