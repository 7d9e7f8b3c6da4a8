package testsupport

import (
	"path/filepath"
	"testing"

	"stitch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories and two
// small CSV datasets per test. It defaults common fields and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Match.Workers = 2
	cfgVal.Output.Dir = filepath.Join(base, "out")
	cfgVal.DatasetA = config.Dataset{
		Name:     "alpha",
		Path:     WriteDatasetA(t, base),
		IDColumn: "person_id",
		Fields:   DefaultFieldMap(),
	}
	cfgVal.DatasetB = config.Dataset{
		Name:     "beta",
		Path:     WriteDatasetB(t, base),
		IDColumn: "person_id",
		Fields:   DefaultFieldMap(),
	}
	cfgVal.Passes = map[string]config.Pass{
		"1": {Block: []string{"ssn"}, ChunkSize: 100, Compare: []string{"fname"}},
	}

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

// WithDedup switches the config to a single-dataset dedup run.
func WithDedup() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Match.Type = config.MatchDedup
		b.cfg.DatasetB = config.Dataset{}
	}
}

// WithGroundTruth adds ground-truth identifier fields to the test config.
func WithGroundTruth(ids ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Match.GroundTruthIDs = ids
	}
}

// WithPasses replaces the configured blocking passes.
func WithPasses(passes map[string]config.Pass) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Passes = passes
	}
}

// WithSQLiteDatabase points the config at a sqlite blocking database under
// the test's temp directory.
func WithSQLiteDatabase() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Database = &config.Database{
			Driver: "sqlite",
			DSN:    filepath.Join(b.baseDir, "blocking.db"),
		}
	}
}
