// Package observability provides the structured logger shared by all
// threadline components.
package observability

import (
	"context"
	"io"
	"log/slog"

	"github.com/wandb/threadline/internal/sentry_ext"
)

type Tags map[string]string

// NewTags creates Tags from a mix of slog.Attr values and key-value pairs.
//
// Incomplete pairs and values of other types are ignored.
func NewTags(args ...any) Tags {
	tags := Tags{}
	for len(args) > 0 {
		switch x := args[0].(type) {
		case slog.Attr:
			tags[x.Key] = x.Value.String()
			args = args[1:]
		case string:
			if len(args) < 2 {
				return tags
			}
			attr := slog.Any(x, args[1])
			tags[attr.Key] = attr.Value.String()
			args = args[2:]
		default:
			args = args[1:]
		}
	}
	return tags
}

const LevelFatal = slog.Level(12)

type CoreLoggerParams struct {
	Sentry *sentry_ext.Client
	Tags   Tags

	// Limiter throttles CaptureWarnLimited. Nil lets everything through.
	Limiter *CaptureRateLimiter
}

// CoreLogger is a slog.Logger that can also forward events to Sentry.
type CoreLogger struct {
	*slog.Logger
	baseTags Tags
	sentry   *sentry_ext.Client
	limiter  *CaptureRateLimiter
}

func NewCoreLogger(logger *slog.Logger, params *CoreLoggerParams) *CoreLogger {
	if params == nil {
		params = &CoreLoggerParams{}
	}

	tags := Tags{}
	var args []any
	for key, value := range params.Tags {
		args = append(args, slog.String(key, value))
		tags[key] = value
	}

	return &CoreLogger{
		Logger:   logger.With(args...),
		baseTags: tags,
		sentry:   params.Sentry,
		limiter:  params.Limiter,
	}
}

// tagsFor merges args with the logger's base tags. Base tags win.
func (cl *CoreLogger) tagsFor(args ...any) Tags {
	tags := NewTags(args...)
	for key, value := range cl.baseTags {
		tags[key] = value
	}
	return tags
}

// SetGlobalTags updates tags shared by this logger and all loggers derived
// from it with With.
func (cl *CoreLogger) SetGlobalTags(tags Tags) {
	for key, value := range tags {
		cl.baseTags[key] = value
	}
}

// With returns a derived logger that includes the given attributes.
func (cl *CoreLogger) With(args ...any) *CoreLogger {
	return &CoreLogger{
		Logger:   cl.Logger.With(args...),
		baseTags: cl.baseTags,
		sentry:   cl.sentry,
		limiter:  cl.limiter,
	}
}

// CaptureError logs an error and sends it to Sentry.
func (cl *CoreLogger) CaptureError(err error, args ...any) {
	cl.Error(err.Error(), args...)
	cl.sentry.CaptureException(err, cl.tagsFor(args...))
}

// CaptureFatal logs an error at fatal level and sends it to Sentry.
func (cl *CoreLogger) CaptureFatal(err error, args ...any) {
	cl.Log(context.Background(), LevelFatal, err.Error(), args...)
	cl.sentry.CaptureException(err, cl.tagsFor(args...))
}

// CaptureWarn logs a warning and sends it to Sentry.
func (cl *CoreLogger) CaptureWarn(msg string, args ...any) {
	cl.Warn(msg, args...)
	cl.sentry.CaptureMessage(msg, cl.tagsFor(args...))
}

// CaptureWarnLimited is CaptureWarn gated by the logger's rate limiter.
//
// The limiter keys on msg alone, so attributes should carry the varying
// details. Returns whether the warning was emitted.
func (cl *CoreLogger) CaptureWarnLimited(msg string, args ...any) bool {
	if !cl.limiter.AllowCapture(msg) {
		return false
	}
	cl.CaptureWarn(msg, args...)
	return true
}

// Reraise reports a panic to Sentry and re-panics. Use with defer.
func (cl *CoreLogger) Reraise(args ...any) {
	if err := recover(); err != nil {
		cl.Log(context.Background(), LevelFatal, "panic", "err", err)
		cl.sentry.Reraise(err, cl.tagsFor(args...))
	}
}

// GetTags returns the base tags.
//
// Used for testing.
func (cl *CoreLogger) GetTags() Tags {
	return cl.baseTags
}

// NewNoOpLogger returns a logger that discards all messages.
func NewNoOpLogger() *CoreLogger {
	return NewCoreLogger(
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
		nil,
	)
}

// OrNoOp returns logger, or a no-op logger if it is nil.
func OrNoOp(logger *CoreLogger) *CoreLogger {
	if logger == nil {
		return NewNoOpLogger()
	}
	return logger
}
