package sampling_test

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandb/threadline/internal/observabilitytest"
	"github.com/wandb/threadline/internal/sampling"
	"github.com/wandb/threadline/internal/timeline"
)

const captureHeader = `{"rows":[{"name":"main","kind":"state"},{"name":"cpu %","kind":"counter"}]}`

func writeCapture(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.jsonl")
	content := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func drain(out chan timeline.Batch) []timeline.Batch {
	var batches []timeline.Batch
	for {
		select {
		case b := <-out:
			batches = append(batches, b)
		default:
			return batches
		}
	}
}

func TestFileSourceReplaysCapture(t *testing.T) {
	logger, logs := observabilitytest.NewRecordingTestLogger(t)
	path := writeCapture(t,
		captureHeader,
		`{"t":1000,"v":[1,20]}`,
		``,
		`not json`,
		`{"t":1100,"v":[2,25]}`,
		`{"t":1200,"v":[3]}`,
	)

	s, err := sampling.NewFileSource(path, sampling.FileParams{Logger: logger})
	require.NoError(t, err)
	out := sampling.NewQueue(0)
	require.NoError(t, s.Run(context.Background(), out))

	assert.Equal(t,
		[]timeline.Descriptor{
			{Name: "main", Kind: timeline.KindState},
			{Name: "cpu %", Kind: timeline.KindCounter},
		},
		s.Rows())
	assert.Equal(t,
		[]timeline.Batch{
			{Timestamp: 1000, Values: []int64{1, 20}},
			{Timestamp: 1100, Values: []int64{2, 25}},
			{Timestamp: 1200, Values: []int64{3}},
		},
		drain(out))
	assert.Contains(t, logs.String(), "sampling: skipping malformed capture line")
}

func TestFileSourceRejectsBadHeader(t *testing.T) {
	testCases := map[string]string{
		"empty file":   "",
		"not json":     "rows\n",
		"no rows":      `{"rows":[]}` + "\n",
		"row not dict": `{"rows":[1]}` + "\n",
	}

	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "capture.jsonl")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			_, err := sampling.NewFileSource(path, sampling.FileParams{})

			assert.Error(t, err)
		})
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	_, err := sampling.NewFileSource(
		filepath.Join(t.TempDir(), "missing.jsonl"),
		sampling.FileParams{},
	)

	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestFileSourceFollowsAppends(t *testing.T) {
	path := writeCapture(t, captureHeader, `{"t":1000,"v":[1,20]}`)
	before, err := os.Stat(path)
	require.NoError(t, err)

	s, err := sampling.NewFileSource(path, sampling.FileParams{
		Logger:          observabilitytest.NewTestLogger(t),
		Follow:          true,
		PollingPeriod:   10 * time.Millisecond,
		MinReadInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan timeline.Batch)
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, out) }()

	select {
	case b := <-out:
		assert.Equal(t, int64(1000), b.Timestamp)
	case <-time.After(5 * time.Second):
		t.Fatal("took too long: expected first batch")
	}

	time.Sleep(100 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString(`{"t":1100,` + `"v":[2,21]}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	after, err := os.Stat(path)
	require.NoError(t, err)
	if before.ModTime() == after.ModTime() {
		cancel()
		<-done
		t.Skip("test ran too fast and mtime didn't change")
	}

	select {
	case b := <-out:
		assert.Equal(t, timeline.Batch{Timestamp: 1100, Values: []int64{2, 21}}, b)
	case <-time.After(5 * time.Second):
		t.Fatal("took too long: expected appended batch")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

// sliceSource sends a fixed list of batches.
type sliceSource struct {
	rows    []timeline.Descriptor
	batches []timeline.Batch
}

func (s *sliceSource) Rows() []timeline.Descriptor { return s.rows }

func (s *sliceSource) Run(ctx context.Context, out chan<- timeline.Batch) error {
	for _, b := range s.batches {
		select {
		case out <- b:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func TestRecordedCaptureReplays(t *testing.T) {
	src := &sliceSource{
		rows: []timeline.Descriptor{
			{Name: "worker-1", Kind: timeline.KindState},
			{Name: "heap MiB", Kind: timeline.KindCounter},
		},
		batches: []timeline.Batch{
			{Timestamp: 10, Values: []int64{1, 64}},
			{Timestamp: 20, Values: []int64{3, 70}},
		},
	}
	var buf bytes.Buffer
	out := sampling.NewQueue(4)

	require.NoError(t, sampling.Recorded(src, &buf).Run(context.Background(), out))
	assert.Equal(t, src.batches, drain(out))

	path := filepath.Join(t.TempDir(), "capture.jsonl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	replay, err := sampling.NewFileSource(path, sampling.FileParams{})
	require.NoError(t, err)
	replayed := sampling.NewQueue(4)
	require.NoError(t, replay.Run(context.Background(), replayed))

	assert.Equal(t, src.rows, replay.Rows())
	assert.Equal(t, src.batches, drain(replayed))
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestRecorderKeepsWriteErrorCause(t *testing.T) {
	diskFull := errors.New("disk full")

	_, err := sampling.NewRecorder(
		failingWriter{err: diskFull},
		[]timeline.Descriptor{{Name: "main", Kind: timeline.KindState}},
	)

	assert.ErrorIs(t, err, diskFull)
}
