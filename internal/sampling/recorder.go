package sampling

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/wandb/simplejsonext"
	"golang.org/x/sync/errgroup"

	"github.com/wandb/threadline/internal/timeline"
)

// Recorder writes batches in the capture file format.
type Recorder struct {
	w *bufio.Writer
}

// NewRecorder writes the capture header for rows to w.
func NewRecorder(w io.Writer, rows []timeline.Descriptor) (*Recorder, error) {
	r := &Recorder{w: bufio.NewWriter(w)}

	header := make([]any, len(rows))
	for i, row := range rows {
		header[i] = map[string]any{keyName: row.Name, keyKind: row.Kind.String()}
	}
	if err := r.writeLine(map[string]any{keyRows: header}); err != nil {
		return nil, err
	}
	return r, r.Flush()
}

// Record appends one batch.
func (r *Recorder) Record(b timeline.Batch) error {
	return r.writeLine(map[string]any{
		keyTimestamp: b.Timestamp,
		keyValues:    b.Values,
	})
}

// Flush writes buffered lines to the underlying writer.
func (r *Recorder) Flush() error {
	if err := r.w.Flush(); err != nil {
		return fmt.Errorf("sampling: %w", err)
	}
	return nil
}

func (r *Recorder) writeLine(v any) error {
	line, err := simplejsonext.Marshal(v)
	if err != nil {
		return fmt.Errorf("sampling: encoding capture line: %w", err)
	}
	line = append(line, '\n')
	if _, err := r.w.Write(line); err != nil {
		return fmt.Errorf("sampling: %w", err)
	}
	return nil
}

// Recorded wraps a source so that every batch it produces is also written
// to w.
func Recorded(src Source, w io.Writer) Source {
	return &recordedSource{src: src, w: w}
}

type recordedSource struct {
	src Source
	w   io.Writer
}

func (s *recordedSource) Rows() []timeline.Descriptor { return s.src.Rows() }

func (s *recordedSource) Run(ctx context.Context, out chan<- timeline.Batch) error {
	rec, err := NewRecorder(s.w, s.src.Rows())
	if err != nil {
		return err
	}

	in := make(chan timeline.Batch)
	grp, ctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		defer close(in)
		return s.src.Run(ctx, in)
	})

	grp.Go(func() error {
		defer func() { _ = rec.Flush() }()
		for b := range in {
			if err := rec.Record(b); err != nil {
				return err
			}
			if err := rec.Flush(); err != nil {
				return err
			}
			if err := send(ctx, out, b); err != nil {
				return err
			}
		}
		return nil
	})

	return grp.Wait()
}
