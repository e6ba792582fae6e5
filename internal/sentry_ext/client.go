// Package sentry_ext reports errors and panics from threadline to Sentry.
package sentry_ext

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

type Params struct {
	// DSN is the Data Source Name. An empty DSN disables sending.
	DSN string

	// Disabled turns the client into a no-op even if DSN is set.
	Disabled bool

	// AttachStacktrace attaches a stacktrace to message events.
	AttachStacktrace bool

	// Release is the application version.
	Release string

	// Environment is the environment the application runs in.
	Environment string

	// Transport overrides the HTTP transport, used by tests.
	Transport sentry.Transport

	// LRUSize is the number of distinct recent events remembered for
	// de-duplication.
	LRUSize int

	// DedupWindow is how long an identical event is suppressed.
	DedupWindow time.Duration
}

// Client sends de-duplicated events to a private Sentry hub.
//
// A nil *Client is valid and discards everything.
type Client struct {
	hub    *sentry.Hub
	recent *recentEvents
}

// New creates a Sentry client.
//
// Returns nil if the client is disabled or cannot be set up; all methods
// accept a nil receiver.
func New(params Params) *Client {
	if params.Disabled {
		slog.Debug("sentry_ext: New: error reporting disabled")
		return nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              params.DSN,
		AttachStacktrace: params.AttachStacktrace,
		Release:          params.Release,
		Environment:      params.Environment,
		Transport:        params.Transport,
	})
	if err != nil {
		slog.Error("sentry_ext: New: failed to create client", "err", err)
		return nil
	}

	recent, err := newRecentEvents(params.LRUSize, params.DedupWindow)
	if err != nil {
		slog.Error("sentry_ext: New: failed to create cache", "err", err)
		return nil
	}

	return &Client{
		hub:    sentry.NewHub(client, sentry.NewScope()),
		recent: recent,
	}
}

// CaptureException sends err as an error-level event with the given tags.
func (s *Client) CaptureException(err error, tags map[string]string) {
	if s == nil || err == nil || !s.recent.shouldCapture(err.Error(), time.Now()) {
		return
	}

	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		s.hub.CaptureException(err)
	})
}

// CaptureMessage sends msg as an info-level event with the given tags.
func (s *Client) CaptureMessage(msg string, tags map[string]string) {
	if s == nil || !s.recent.shouldCapture(msg, time.Now()) {
		return
	}

	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		s.hub.CaptureMessage(msg)
	})
}

// Reraise reports a recovered panic value and panics again with it.
func (s *Client) Reraise(recovered any, tags map[string]string) {
	if recovered == nil {
		return
	}

	err, ok := recovered.(error)
	if !ok {
		err = fmt.Errorf("%v", recovered)
	}
	var wrapped interface{ Unwrap() error }
	if errors.As(err, &wrapped) && wrapped.Unwrap() != nil {
		tags = withTag(tags, "cause", wrapped.Unwrap().Error())
	}

	s.CaptureException(err, tags)
	s.Flush(2 * time.Second)
	panic(recovered)
}

// Flush waits up to timeout for buffered events to be sent.
func (s *Client) Flush(timeout time.Duration) bool {
	if s == nil {
		return true
	}
	return s.hub.Flush(timeout)
}

func withTag(tags map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(tags)+1)
	for k, v := range tags {
		out[k] = v
	}
	out[key] = value
	return out
}
