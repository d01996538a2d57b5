package engine

import "github.com/papercomputeco/marquee/pkg/eventstream"

// Option configures an Engine.
type Option func(*Engine)

// WithBatchSize sets how many items are embedded and upserted together.
// Values below 1 keep the default.
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithPublisher emits indexing events to p.
func WithPublisher(p eventstream.Publisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.publisher = p
		}
	}
}

// WithProgress registers a callback invoked after each committed batch
// with the number of items done so far and the total for the run.
func WithProgress(fn func(done, total int)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}
