package sampling_test

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandb/threadline/internal/sampling"
	"github.com/wandb/threadline/internal/timeline"
)

func TestDemoIsDeterministic(t *testing.T) {
	a := sampling.NewDemoSource(sampling.DemoParams{Threads: 4, Seed: 7})
	b := sampling.NewDemoSource(sampling.DemoParams{Threads: 4, Seed: 7})

	for ts := int64(0); ts < 50; ts++ {
		require.Equal(t, a.Next(ts), b.Next(ts))
	}
}

func TestDemoValuesMatchRows(t *testing.T) {
	s := sampling.NewDemoSource(sampling.DemoParams{Threads: 3, Seed: 1})
	rows := s.Rows()
	require.Len(t, rows, 5)
	assert.Equal(t, timeline.KindState, rows[0].Kind)
	assert.Equal(t, timeline.KindCounter, rows[3].Kind)

	for ts := int64(0); ts < 500; ts++ {
		b := s.Next(ts)
		require.Len(t, b.Values, len(rows))
		for _, state := range b.Values[:3] {
			require.NotEqual(t, timeline.StateUnknown, state)
		}
		require.GreaterOrEqual(t, b.Values[3], int64(0))
		require.LessOrEqual(t, b.Values[3], int64(100))
		require.GreaterOrEqual(t, b.Values[4], int64(16))
	}
}

func TestDemoRunTicks(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		s := sampling.NewDemoSource(sampling.DemoParams{Interval: time.Second})
		out := make(chan timeline.Batch)
		done := make(chan error, 1)

		go func() { done <- s.Run(ctx, out) }()

		first := <-out
		second := <-out
		assert.Equal(t, int64(1_000), second.Timestamp-first.Timestamp)

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})
}

func TestIsShutdown(t *testing.T) {
	assert.True(t, sampling.IsShutdown(nil))
	assert.True(t, sampling.IsShutdown(context.Canceled))
	assert.False(t, sampling.IsShutdown(assert.AnError))
}
