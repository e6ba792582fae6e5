// Package watcher polls capture files for changes.
package watcher

import (
	"time"

	"github.com/wandb/threadline/internal/observability"
)

// DefaultPollingPeriod is how often files are polled if Params leaves it
// unset.
const DefaultPollingPeriod = 250 * time.Millisecond

// Watcher invokes callbacks when watched files change.
type Watcher interface {
	// Watch begins watching the file at path.
	//
	// onChange usually runs after the file's contents may have changed, or
	// after the file was created at the path. It may be skipped if the
	// file's mtime did not change, so the final write to a file is not
	// guaranteed to be reported.
	//
	// onChange runs on the watcher's goroutine and must not block.
	Watch(path string, onChange func()) error

	// Finish stops the watcher and waits for its goroutines to exit.
	Finish()
}

type Params struct {
	Logger *observability.CoreLogger

	// PollingPeriod defaults to DefaultPollingPeriod.
	PollingPeriod time.Duration
}

func New(params Params) Watcher {
	return newWatcher(params)
}
