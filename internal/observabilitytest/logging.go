// Package observabilitytest provides loggers for tests.
package observabilitytest

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wandb/threadline/internal/observability"
)

// NewTestLogger returns a logger that's captured by the testing framework.
//
// Messages are displayed in the test output on failure.
func NewTestLogger(t *testing.T) *observability.CoreLogger {
	t.Helper()
	return observability.NewCoreLogger(
		slog.New(slog.NewJSONHandler(t.Output(), &slog.HandlerOptions{})),
		nil,
	)
}

// NewRecordingTestLogger is like NewTestLogger but also returns a buffer
// that captures log messages.
func NewRecordingTestLogger(t *testing.T) (
	*observability.CoreLogger,
	*bytes.Buffer,
) {
	t.Helper()
	return NewRecordingTestLoggerWithParams(t, nil)
}

// NewRecordingTestLoggerWithParams is NewRecordingTestLogger with explicit
// logger parameters, such as a rate limiter.
func NewRecordingTestLoggerWithParams(
	t *testing.T,
	params *observability.CoreLoggerParams,
) (*observability.CoreLogger, *bytes.Buffer) {
	t.Helper()

	recordedLogs := &bytes.Buffer{}
	writer := io.MultiWriter(t.Output(), recordedLogs)

	return observability.NewCoreLogger(
		slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{})),
		params,
	), recordedLogs
}

// ExtractLogs parses the records from a [NewRecordingTestLogger] buffer.
//
// The "time" key is dropped. Records always contain "level" and "msg",
// plus custom attributes rendered as strings.
func ExtractLogs(t *testing.T, buf *bytes.Buffer) []map[string]string {
	t.Helper()
	records := make([]map[string]string, 0)

	for line := range bytes.Lines(buf.Bytes()) {
		var raw map[string]any
		require.NoError(t, json.Unmarshal(line, &raw))

		record := make(map[string]string, len(raw))
		for key, value := range raw {
			if key == "time" {
				continue
			}
			if s, ok := value.(string); ok {
				record[key] = s
			} else {
				encoded, err := json.Marshal(value)
				require.NoError(t, err)
				record[key] = string(encoded)
			}
		}

		records = append(records, record)
	}

	return records
}
