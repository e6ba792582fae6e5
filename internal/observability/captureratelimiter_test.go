package observability_test

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandb/threadline/internal/observability"
)

func TestCaptureRateLimiter(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rl, err := observability.NewCaptureRateLimiter(2, time.Minute)
		require.NoError(t, err)

		assert.True(t, rl.AllowCapture("timestamp went backwards"))
		assert.True(t, rl.AllowCapture("value count mismatch"))

		time.Sleep(30 * time.Second)
		assert.False(t, rl.AllowCapture("timestamp went backwards"))
		assert.False(t, rl.AllowCapture("value count mismatch"))

		time.Sleep(31 * time.Second)
		assert.True(t, rl.AllowCapture("timestamp went backwards"))
		assert.True(t, rl.AllowCapture("value count mismatch"))
	})
}

func TestCaptureRateLimiterNil(t *testing.T) {
	var rl *observability.CaptureRateLimiter

	assert.True(t, rl.AllowCapture("test"))
}
