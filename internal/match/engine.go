package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"stitch/internal/blocking"
	"stitch/internal/compare"
	"stitch/internal/config"
	"stitch/internal/logging"
	"stitch/internal/output"
	"stitch/internal/recordset"
)

// Summary describes a finished run.
type Summary struct {
	RunID      string
	ResultPath string
	Rows       int64
	Duration   time.Duration
	Passes     []PassReport
	TallyOrder []string
	Tallies    map[string]PassTally
}

// Engine runs a complete matching job from configuration.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewEngine creates an engine for the given configuration.
func NewEngine(cfg *config.Config, logger *slog.Logger) *Engine {
	return &Engine{cfg: cfg, logger: logging.WithComponent(logger, "engine")}
}

// Run executes the full job: load record sets, generate and score every
// pass's candidates, and merge the shards into one weight-ordered result
// file. The output directory is locked for the duration so concurrent runs
// cannot interleave shards.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	if err := e.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(e.cfg.Output.Dir, ".stitch.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another run is already using this output directory")
	}
	defer lock.Unlock()

	runID := runToken()
	log := e.logger.With(logging.String(logging.FieldRunID, runID))
	log.Info("run starting",
		logging.String("match_type", e.cfg.Match.Type),
		logging.Int("workers", e.cfg.Match.Workers))

	setA, setB, err := e.loadSets(log)
	if err != nil {
		return nil, err
	}

	plan, err := blocking.PlanFromConfig(e.cfg)
	if err != nil {
		return nil, err
	}

	backend, err := e.openBackend(ctx, runID, setA, setB)
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	scorer := compare.NewScorer(setA, setB, plan, e.cfg)
	weigher := NewWeigher(plan)
	tally := NewTally()
	writer := output.NewShardWriter(e.cfg.Output.Dir, scorer.AllVars(plan), e.cfg.Output.Compress)

	sink := func(rows []output.Row) error {
		tally.Observe(rows)
		_, err := writer.WriteShard(rows)
		return err
	}
	dispatcher := NewDispatcher(e.cfg.Match.Workers, scorer, weigher, sink, log)
	orchestrator := NewOrchestrator(backend, plan, dispatcher, tally, log, 0)

	reports, err := orchestrator.Run(ctx)
	if err != nil {
		return nil, err
	}
	if err := dispatcher.Flush(ctx); err != nil {
		return nil, err
	}

	resultPath, rows, err := output.Merge(e.cfg.Output.Dir, runID, writer.Columns(), writer.Paths(), e.cfg.Output.Compress)
	if err != nil {
		return nil, err
	}

	order, tallies := tally.Snapshot()
	summary := &Summary{
		RunID:      runID,
		ResultPath: resultPath,
		Rows:       rows,
		Duration:   time.Since(start),
		Passes:     reports,
		TallyOrder: order,
		Tallies:    tallies,
	}
	log.Info("run complete",
		logging.Int64("rows", rows),
		logging.String("result", resultPath),
		logging.Duration("duration", summary.Duration))
	return summary, nil
}

func (e *Engine) loadSets(log *slog.Logger) (*recordset.Set, *recordset.Set, error) {
	setA, err := recordset.LoadCSV(e.cfg.DatasetA)
	if err != nil {
		return nil, nil, err
	}
	log.Info("dataset loaded",
		logging.String("dataset", setA.Name()),
		logging.Int("records", setA.Len()))

	if e.cfg.Dedup() {
		return setA, setA, nil
	}

	setB, err := recordset.LoadCSV(e.cfg.DatasetB)
	if err != nil {
		return nil, nil, err
	}
	log.Info("dataset loaded",
		logging.String("dataset", setB.Name()),
		logging.Int("records", setB.Len()))
	return setA, setB, nil
}

func (e *Engine) openBackend(ctx context.Context, runID string, setA, setB *recordset.Set) (blocking.Backend, error) {
	if e.cfg.Database == nil {
		return blocking.NewMemoryBackend(setA, setB), nil
	}
	db, dialect, err := blocking.OpenDatabase(ctx, e.cfg.Database, e.cfg.Output.Dir)
	if err != nil {
		return nil, err
	}
	backend, err := blocking.NewSQLBackend(ctx, db, dialect, runID, setA, setB)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &dbClosingBackend{Backend: backend, db: db}, nil
}

// dbClosingBackend ties the database handle's lifetime to the backend's.
type dbClosingBackend struct {
	blocking.Backend
	db interface{ Close() error }
}

func (b *dbClosingBackend) Close() error {
	backendErr := b.Backend.Close()
	dbErr := b.db.Close()
	if backendErr != nil {
		return backendErr
	}
	return dbErr
}

// runToken yields a short unique run identifier safe for file and table
// names.
func runToken() string {
	id := uuid.NewString()
	return strings.ReplaceAll(id, "-", "")[:12]
}
