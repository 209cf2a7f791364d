package filter

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/animecal/anilist"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers sets the number of worker goroutines
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if workers > 0 {
			e.workerCount = workers
		}
	}
}

// WithBatchSize sets the batch size for chunked processing
func WithBatchSize(size int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// ConcurrentEvaluator implements Evaluator, splitting large listings into
// chunks evaluated in parallel
type ConcurrentEvaluator struct {
	workerCount int
	batchSize   int
}

// NewConcurrentEvaluator creates a new concurrent evaluator
func NewConcurrentEvaluator(opts ...EvaluatorOption) *ConcurrentEvaluator {
	e := &ConcurrentEvaluator{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   100,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Evaluate returns the media matching filter, preserving order
func (e *ConcurrentEvaluator) Evaluate(ctx context.Context, filter CompiledFilter, media []anilist.Media) ([]anilist.Media, error) {
	if len(media) == 0 {
		return []anilist.Media{}, nil
	}

	// For small listings, don't bother with concurrency
	if len(media) < e.batchSize {
		return evaluateSequential(filter, media), nil
	}

	return e.evaluateConcurrent(ctx, filter, media)
}

// evaluateSequential evaluates a filter against all media sequentially
func evaluateSequential(filter CompiledFilter, media []anilist.Media) []anilist.Media {
	matches := make([]anilist.Media, 0, len(media))
	for _, m := range media {
		if filter.Evaluate(m) {
			matches = append(matches, m)
		}
	}
	return matches
}

// evaluateConcurrent evaluates chunks in parallel and joins them in order
func (e *ConcurrentEvaluator) evaluateConcurrent(ctx context.Context, filter CompiledFilter, media []anilist.Media) ([]anilist.Media, error) {
	chunkSize := max(len(media)/e.workerCount, e.batchSize)
	chunks := (len(media) + chunkSize - 1) / chunkSize
	results := make([][]anilist.Media, chunks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)

	for i := range chunks {
		start := i * chunkSize
		end := min(start+chunkSize, len(media))

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = evaluateSequential(filter, media[start:end])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	matches := make([]anilist.Media, 0, total)
	for _, r := range results {
		matches = append(matches, r...)
	}

	return matches, nil
}
