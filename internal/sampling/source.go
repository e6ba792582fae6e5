// Package sampling produces timeline batches from live or recorded sources.
//
// Sources run on their own goroutine and hand completed batches to the
// chart's goroutine over a channel. They never touch the chart directly.
package sampling

import (
	"context"
	"errors"

	"github.com/wandb/threadline/internal/timeline"
)

// DefaultQueueSize is the capacity of the hand-off channel between a
// source and the chart.
const DefaultQueueSize = 256

// Source produces sample batches.
type Source interface {
	// Rows describes the rows of every batch, in value order.
	Rows() []timeline.Descriptor

	// Run sends batches to out until the source is exhausted or ctx is
	// done. It does not close out.
	Run(ctx context.Context, out chan<- timeline.Batch) error
}

// NewQueue returns a hand-off channel of the given capacity, or
// DefaultQueueSize if size is not positive.
func NewQueue(size int) chan timeline.Batch {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return make(chan timeline.Batch, size)
}

// IsShutdown reports whether err only signals that the context ended.
func IsShutdown(err error) bool {
	return err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// send delivers b unless ctx is done first.
func send(ctx context.Context, out chan<- timeline.Batch, b timeline.Batch) error {
	select {
	case out <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
