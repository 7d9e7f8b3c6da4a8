package blocking

import "context"

// Pair is one candidate produced by exactly one pass.
type Pair struct {
	IDA  string
	IDB  string
	IdxA int
	IdxB int
}

// Chunk is a bounded slice of candidates from one pass, the unit of work the
// dispatcher hands to scoring workers.
type Chunk struct {
	PassName string
	Pairs    []Pair
}

// Stream yields a pass's candidates in bounded batches. Next returns an
// empty slice once the stream is exhausted. Close releases any pass-scoped
// resources (the relational backend drops its candidate table).
type Stream interface {
	Next(ctx context.Context, limit int) ([]Pair, error)
	Close() error
}

// Backend generates the candidate pairs for one pass, honoring the exclusion
// state committed by earlier passes.
//
// GenerateCandidates returns the stream plus the number of candidate rows
// materialized. A Spec referencing a blocking variable absent from either
// side fails with ErrConfiguration; a pass whose candidate set no longer
// exists fails with ErrNotFound. Both are absorbed as pass skips upstream.
// The backend never mutates the exclusion state; committing the pass into it
// is the orchestrator's job.
type Backend interface {
	GenerateCandidates(ctx context.Context, spec Spec, excl Exclusion) (Stream, int64, error)
	Close() error
}

// sliceStream serves an in-memory pair slice in bounded batches.
type sliceStream struct {
	pairs []Pair
	pos   int
}

func (s *sliceStream) Next(ctx context.Context, limit int) ([]Pair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.pairs) {
		return nil, nil
	}
	if limit <= 0 {
		limit = len(s.pairs) - s.pos
	}
	end := s.pos + limit
	if end > len(s.pairs) {
		end = len(s.pairs)
	}
	batch := s.pairs[s.pos:end]
	s.pos = end
	return batch, nil
}

func (s *sliceStream) Close() error {
	s.pairs = nil
	return nil
}
