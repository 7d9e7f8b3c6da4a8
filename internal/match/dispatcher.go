package match

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"stitch/internal/blocking"
	"stitch/internal/compare"
	"stitch/internal/logging"
	"stitch/internal/output"
)

// Dispatcher feeds candidate chunks to a bounded pool of scoring workers.
// Chunks accumulate until a full batch of twice the worker count is pending,
// then the whole batch is scored concurrently and delivered to the sink in
// offer order as one unit. Batches never pipeline: the next batch starts only
// after the sink has consumed the previous one. A worker failure aborts the
// run.
type Dispatcher struct {
	workers int
	scorer  *compare.Scorer
	weigher Weigher
	sink    func([]output.Row) error
	logger  *slog.Logger

	pending []blocking.Chunk
	batches int
}

// NewDispatcher creates a dispatcher over the run's scorer and weigher. sink
// receives each scored batch exactly once.
func NewDispatcher(workers int, scorer *compare.Scorer, weigher Weigher, sink func([]output.Row) error, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		workers: workers,
		scorer:  scorer,
		weigher: weigher,
		sink:    sink,
		logger:  logging.WithComponent(logger, "dispatcher"),
	}
}

// Offer queues one chunk, flushing when a full batch is pending.
func (d *Dispatcher) Offer(ctx context.Context, chunk blocking.Chunk) error {
	if len(chunk.Pairs) == 0 {
		return nil
	}
	d.pending = append(d.pending, chunk)
	if len(d.pending) >= 2*d.workers {
		return d.flush(ctx)
	}
	return nil
}

// Flush scores any trailing partial batch. Call once after the final pass.
func (d *Dispatcher) Flush(ctx context.Context) error {
	if len(d.pending) == 0 {
		return nil
	}
	return d.flush(ctx)
}

func (d *Dispatcher) flush(ctx context.Context) error {
	batch := d.pending
	d.pending = nil
	d.batches++

	results := make([][]output.Row, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, chunk := range batch {
		i, chunk := i, chunk
		g.Go(func() error {
			scored, err := d.scorer.Score(gctx, chunk)
			if err != nil {
				return fmt.Errorf("score chunk (%s): %w", chunk.PassName, err)
			}
			rows := make([]output.Row, len(scored))
			for k, s := range scored {
				rows[k] = output.Row{Scored: s, Weight: d.weigher.Weight(s)}
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	total := 0
	for _, rows := range results {
		total += len(rows)
	}
	combined := make([]output.Row, 0, total)
	for _, rows := range results {
		combined = append(combined, rows...)
	}
	d.logger.Debug("batch scored",
		logging.Int("batch", d.batches),
		logging.Int("chunks", len(batch)),
		logging.Int("rows", len(combined)))
	return d.sink(combined)
}
