package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	poller "github.com/radovskyb/watcher"
	"golang.org/x/sync/errgroup"

	"github.com/wandb/threadline/internal/observability"
)

type watcher struct {
	sync.Mutex
	logger     *observability.CoreLogger
	delegate   *poller.Watcher
	wg         sync.WaitGroup
	handlers   map[string]func()
	isFinished bool

	pollingPeriod time.Duration
}

func newWatcher(params Params) *watcher {
	if params.PollingPeriod <= 0 {
		params.PollingPeriod = DefaultPollingPeriod
	}

	return &watcher{
		logger:        observability.OrNoOp(params.Logger),
		handlers:      make(map[string]func()),
		pollingPeriod: params.PollingPeriod,
	}
}

func (w *watcher) Watch(path string, onChange func()) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watcher: %v", err)
	}

	w.Lock()
	defer w.Unlock()

	if w.isFinished {
		return fmt.Errorf("watcher: tried to call Watch() after Finish()")
	}

	if w.delegate == nil {
		if err := w.startWatcher(); err != nil {
			return err
		}
	}

	if err := w.delegate.Add(absPath); err != nil {
		return fmt.Errorf("watcher: %v", err)
	}
	w.handlers[absPath] = onChange

	return nil
}

func (w *watcher) Finish() {
	w.Lock()
	w.isFinished = true
	delegate := w.delegate
	w.Unlock()

	if delegate != nil {
		delegate.Close()
	}
	w.wg.Wait()
}

func (w *watcher) startWatcher() error {
	w.delegate = poller.New()

	// The poller sometimes reports Create for files that already exist, so
	// Write and Create are treated alike.
	w.delegate.FilterOps(poller.Write, poller.Create)

	grp, ctx := errgroup.WithContext(context.Background())
	w.wg.Add(2)

	grp.Go(func() error {
		defer w.wg.Done()
		w.loopWatchFiles(ctx)
		return nil
	})

	grp.Go(func() error {
		defer w.wg.Done()
		return w.delegate.Start(w.pollingPeriod)
	})

	// Close() is a no-op until Start() is polling, so wait for that (or for
	// Start() to fail) before letting Finish() run.
	started := make(chan struct{})
	go func() {
		w.delegate.Wait()
		close(started)
	}()
	select {
	case <-started:
	case <-ctx.Done():
		return grp.Wait()
	}

	return nil
}

// loopWatchFiles dispatches poller events until the poller closes.
//
// ctx ends the loop if the poller fails to start, in which case none of its
// channels will ever receive.
func (w *watcher) loopWatchFiles(ctx context.Context) {
	for {
		select {
		case event := <-w.delegate.Event:
			if event.IsDir() {
				continue
			}
			w.onChange(event.Path)

		case err := <-w.delegate.Error:
			w.logger.CaptureError(fmt.Errorf("watcher: error in file watcher: %v", err))

		case <-w.delegate.Closed:
			return

		case <-ctx.Done():
			return
		}
	}
}

func (w *watcher) onChange(path string) {
	w.Lock()
	handler := w.handlers[path]
	w.Unlock()

	if handler != nil {
		handler()
	}
}
