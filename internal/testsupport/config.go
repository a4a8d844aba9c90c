package testsupport

import (
	"path/filepath"
	"testing"

	"dropsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Segmentation uses a window of 1 so fixtures read literally.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogsDir = filepath.Join(base, "logs")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.DropRoot = filepath.Join(base, "drops")
	cfgVal.Paths.LogDir = ""
	cfgVal.Paths.EventIndex = filepath.Join(base, "ImageIndex.csv")
	cfgVal.Segmentation.SmoothingWindow = 1
	cfgVal.Segmentation.MinDurationS = 2
	cfgVal.Batch.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithWorkers overrides the batch worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Batch.Workers = n
	}
}

// WithCatalog enables the SQLite catalog inside the temp output directory.
func WithCatalog() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.Catalog = true
		b.cfg.Output.CatalogPath = filepath.Join(b.baseDir, "output", "dropsync.db")
	}
}

// WithSegmentation overrides smoothing, threshold, and minimum duration.
func WithSegmentation(window int, threshold, minDurationS float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Segmentation = config.Segmentation{
			SmoothingWindow: window,
			Threshold:       threshold,
			MinDurationS:    minDurationS,
		}
	}
}

// WithAlignment overrides tolerance and buffer.
func WithAlignment(toleranceS, bufferS float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Alignment.ToleranceS = toleranceS
		b.cfg.Alignment.BufferS = bufferS
	}
}
