// Package debounce coalesces bursts of change notifications.
package debounce

import (
	"golang.org/x/time/rate"

	"github.com/wandb/threadline/internal/observability"
)

// Debouncer runs a pending action at most at a fixed rate.
//
// Callers mark work as pending with SetNeedsDebounce and poll Debounce;
// Flush runs pending work regardless of the rate. Not safe for concurrent
// use.
type Debouncer struct {
	limiter       *rate.Limiter
	finished      bool
	needsDebounce bool
	logger        *observability.CoreLogger
}

func NewDebouncer(
	eventRate rate.Limit,
	burstSize int,
	logger *observability.CoreLogger,
) *Debouncer {
	return &Debouncer{
		limiter: rate.NewLimiter(eventRate, burstSize),
		logger:  observability.OrNoOp(logger),
	}
}

func (d *Debouncer) SetNeedsDebounce() {
	if d == nil {
		return
	}
	d.needsDebounce = true
}

// Pending reports whether work is waiting for the next Debounce or Flush.
func (d *Debouncer) Pending() bool {
	return d != nil && !d.finished && d.needsDebounce
}

// Debounce calls f if work is pending and the rate limit allows it, and
// reports whether it did.
func (d *Debouncer) Debounce(f func()) bool {
	if !d.Pending() || !d.limiter.Allow() {
		return false
	}
	return d.Flush(f)
}

// Flush calls f if work is pending and reports whether it did.
func (d *Debouncer) Flush(f func()) bool {
	if !d.Pending() {
		return false
	}
	d.logger.Debug("debounce: flushing")
	d.needsDebounce = false
	f()
	return true
}

// Stop makes all future operations no-ops.
func (d *Debouncer) Stop() {
	if d == nil {
		return
	}
	d.finished = true
}
