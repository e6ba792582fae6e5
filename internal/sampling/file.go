package sampling

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wandb/simplejsonext"
	"golang.org/x/time/rate"

	"github.com/wandb/threadline/internal/debounce"
	"github.com/wandb/threadline/internal/observability"
	"github.com/wandb/threadline/internal/timeline"
	"github.com/wandb/threadline/internal/watcher"
)

// A capture file is JSONL: a header naming the rows, then one line per
// batch.
//
//	{"rows":[{"name":"main","kind":"state"},{"name":"cpu %","kind":"counter"}]}
//	{"t":1700000000000,"v":[1,37]}
const (
	keyRows      = "rows"
	keyName      = "name"
	keyKind      = "kind"
	keyTimestamp = "t"
	keyValues    = "v"
)

type FileParams struct {
	Logger *observability.CoreLogger

	// Follow keeps reading as the file grows, until the context ends.
	Follow bool

	// Watcher reports file changes in follow mode. If nil, one is created
	// with PollingPeriod and finished when Run returns.
	Watcher       watcher.Watcher
	PollingPeriod time.Duration

	// MinReadInterval limits how often the file is re-read after changes.
	// Defaults to 100ms.
	MinReadInterval time.Duration
}

// FileSource replays, and optionally tails, a capture file.
type FileSource struct {
	path   string
	file   *os.File
	reader *bufio.Reader
	rows   []timeline.Descriptor

	// partial holds an incomplete last line until the rest is written.
	partial []byte

	params FileParams
	logger *observability.CoreLogger
}

// NewFileSource opens a capture file and reads its header.
func NewFileSource(path string, params FileParams) (*FileSource, error) {
	if params.MinReadInterval <= 0 {
		params.MinReadInterval = 100 * time.Millisecond
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sampling: %w", err)
	}

	s := &FileSource{
		path:   path,
		file:   file,
		reader: bufio.NewReader(file),
		params: params,
		logger: observability.OrNoOp(params.Logger),
	}

	header, err := s.reader.ReadBytes('\n')
	if err == nil || (errors.Is(err, io.EOF) && len(header) > 0) {
		s.rows, err = parseHeader(header)
	}
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("sampling: reading header of %s: %w", path, err)
	}
	return s, nil
}

func (s *FileSource) Rows() []timeline.Descriptor { return s.rows }

// Run sends the batches in the file. In follow mode it then waits for the
// file to grow until ctx is done. The file is closed when Run returns.
func (s *FileSource) Run(ctx context.Context, out chan<- timeline.Batch) error {
	defer func() { _ = s.file.Close() }()

	if err := s.readAvailable(ctx, out); err != nil || !s.params.Follow {
		return err
	}

	w := s.params.Watcher
	if w == nil {
		w = watcher.New(watcher.Params{
			Logger:        s.logger,
			PollingPeriod: s.params.PollingPeriod,
		})
		defer w.Finish()
	}

	changed := make(chan struct{}, 1)
	err := w.Watch(s.path, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("sampling: %w", err)
	}

	debouncer := debounce.NewDebouncer(rate.Every(s.params.MinReadInterval), 1, s.logger)
	ticker := time.NewTicker(s.params.MinReadInterval)
	defer ticker.Stop()

	var readErr error
	read := func() { readErr = s.readAvailable(ctx, out) }

	for readErr == nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
			debouncer.SetNeedsDebounce()
			debouncer.Debounce(read)
		case <-ticker.C:
			debouncer.Debounce(read)
		}
	}
	return readErr
}

// readAvailable sends every complete line written so far.
func (s *FileSource) readAvailable(ctx context.Context, out chan<- timeline.Batch) error {
	for {
		line, err := s.reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			s.partial = append(s.partial, line...)
			return nil
		}
		if err != nil {
			return fmt.Errorf("sampling: reading %s: %w", s.path, err)
		}

		if len(s.partial) > 0 {
			line = append(s.partial, line...)
			s.partial = nil
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		b, err := parseBatch(line)
		if err != nil {
			s.logger.CaptureWarnLimited(
				"sampling: skipping malformed capture line",
				"path", s.path,
				"error", err,
			)
			continue
		}
		if err := send(ctx, out, b); err != nil {
			return err
		}
	}
}

func parseHeader(line []byte) ([]timeline.Descriptor, error) {
	obj, err := simplejsonext.UnmarshalObject(bytes.TrimSpace(line))
	if err != nil {
		return nil, err
	}

	raw, ok := obj[keyRows].([]any)
	if !ok || len(raw) == 0 {
		return nil, errors.New("header has no rows")
	}

	rows := make([]timeline.Descriptor, 0, len(raw))
	for i, r := range raw {
		row, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("row %d is not an object", i)
		}
		name, _ := row[keyName].(string)
		kind, _ := row[keyKind].(string)
		rows = append(rows, timeline.Descriptor{Name: name, Kind: timeline.ParseKind(kind)})
	}
	return rows, nil
}

func parseBatch(line []byte) (timeline.Batch, error) {
	obj, err := simplejsonext.UnmarshalObject(line)
	if err != nil {
		return timeline.Batch{}, err
	}

	ts, ok := asInt(obj[keyTimestamp])
	if !ok {
		return timeline.Batch{}, errors.New("missing timestamp")
	}

	raw, _ := obj[keyValues].([]any)
	values := make([]int64, len(raw))
	for i, v := range raw {
		if values[i], ok = asInt(v); !ok {
			return timeline.Batch{}, fmt.Errorf("value %d is not a number", i)
		}
	}
	return timeline.Batch{Timestamp: ts, Values: values}, nil
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}
