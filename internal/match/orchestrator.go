package match

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stitch/internal/blocking"
	"stitch/internal/logging"
)

// Pass status values reported per pass.
const (
	PassCompleted = "completed"
	PassSkipped   = "skipped"
)

// PassReport records one pass's outcome.
type PassReport struct {
	Name       string
	Status     string
	Reason     string
	Candidates int64
	Duration   time.Duration
}

// Orchestrator drives the run's passes in plan order against one backend.
// It owns the exclusion state: each pass generates against the state
// committed by its predecessors, and a pass's blocking tuple is committed
// only after its candidate set materializes. A skipped pass commits nothing,
// so the next pass still covers the pairs the skipped tuple would have
// caught.
type Orchestrator struct {
	backend     blocking.Backend
	plan        blocking.Plan
	dispatcher  *Dispatcher
	tally       *Tally
	logger      *slog.Logger
	gtChunkSize int

	excl blocking.Exclusion
}

// NewOrchestrator wires a run. gtChunkSize bounds streaming for ground-truth
// passes, which carry no per-pass chunk configuration.
func NewOrchestrator(backend blocking.Backend, plan blocking.Plan, dispatcher *Dispatcher, tally *Tally, logger *slog.Logger, gtChunkSize int) *Orchestrator {
	if gtChunkSize < 1 {
		gtChunkSize = 50000
	}
	return &Orchestrator{
		backend:     backend,
		plan:        plan,
		dispatcher:  dispatcher,
		tally:       tally,
		logger:      logging.WithComponent(logger, "orchestrator"),
		gtChunkSize: gtChunkSize,
	}
}

// Run executes every pass: ground truth first in configuration order, then
// numbered passes ascending. Configuration and not-found failures skip the
// pass; anything else aborts.
func (o *Orchestrator) Run(ctx context.Context) ([]PassReport, error) {
	reports := make([]PassReport, 0, len(o.plan.GroundTruth)+len(o.plan.Passes))

	for _, gt := range o.plan.GroundTruth {
		report, err := o.runPass(ctx, gt.Spec(o.plan.Dedup), o.gtChunkSize)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}

	for _, pass := range o.plan.Passes {
		if len(pass.Vars) == 0 {
			o.logger.Warn("pass has no blocking variables, skipping",
				logging.String(logging.FieldPass, pass.Name))
			reports = append(reports, PassReport{
				Name:   pass.Name,
				Status: PassSkipped,
				Reason: "no blocking variables",
			})
			continue
		}
		chunkSize := pass.ChunkSize
		if chunkSize < 1 {
			chunkSize = o.gtChunkSize
		}
		report, err := o.runPass(ctx, pass.Spec(o.plan.Dedup), chunkSize)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// Exclusion exposes the committed state, mainly for tests.
func (o *Orchestrator) Exclusion() blocking.Exclusion { return o.excl }

func (o *Orchestrator) runPass(ctx context.Context, spec blocking.Spec, chunkSize int) (PassReport, error) {
	start := time.Now()
	log := o.logger.With(logging.String(logging.FieldPass, spec.Name))
	log.Info("generating candidates", logging.Int("exclusion_version", o.excl.Version()))

	stream, count, err := o.backend.GenerateCandidates(ctx, spec, o.excl)
	if err != nil {
		if blocking.Recoverable(err) {
			log.Warn("pass skipped", logging.Error(err))
			return PassReport{
				Name:     spec.Name,
				Status:   PassSkipped,
				Reason:   err.Error(),
				Duration: time.Since(start),
			}, nil
		}
		return PassReport{}, fmt.Errorf("pass %s: %w", spec.Name, err)
	}
	defer stream.Close()

	// The candidate set exists now; later passes must not offer these pairs
	// again even if streaming below fails partway.
	o.excl = o.excl.Combine(spec.VarsA, spec.VarsB)
	o.tally.AddCandidates(spec.Name, count)
	log.Info("candidates generated", logging.Int64("candidates", count))

	for {
		pairs, err := stream.Next(ctx, chunkSize)
		if err != nil {
			return PassReport{}, fmt.Errorf("pass %s: stream candidates: %w", spec.Name, err)
		}
		if len(pairs) == 0 {
			break
		}
		chunk := blocking.Chunk{PassName: spec.Name, Pairs: pairs}
		if err := o.dispatcher.Offer(ctx, chunk); err != nil {
			return PassReport{}, fmt.Errorf("pass %s: %w", spec.Name, err)
		}
	}

	duration := time.Since(start)
	log.Info("pass complete",
		logging.Int64("candidates", count),
		logging.Duration("duration", duration))
	return PassReport{
		Name:       spec.Name,
		Status:     PassCompleted,
		Candidates: count,
		Duration:   duration,
	}, nil
}
