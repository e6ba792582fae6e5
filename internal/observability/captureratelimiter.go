package observability

import (
	"crypto/md5"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// CaptureRateLimiter limits how often an identical message is emitted.
//
// It maps message hashes to the last time the message was allowed. Memory is
// bounded by an LRU cache; with too many distinct frequent messages some
// repeats may still get through.
//
// A nil value lets all messages through.
type CaptureRateLimiter struct {
	cache       *lru.Cache
	minDuration time.Duration
}

// NewCaptureRateLimiter returns a limiter using a cache of the given size
// that allows each message at most once per minDuration.
func NewCaptureRateLimiter(
	size int,
	minDuration time.Duration,
) (*CaptureRateLimiter, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &CaptureRateLimiter{cache, minDuration}, nil
}

// AllowCapture reports whether msg may be emitted and, if so, records the
// current time for it.
func (rl *CaptureRateLimiter) AllowCapture(msg string) bool {
	if rl == nil {
		return true
	}

	sum := md5.Sum([]byte(msg))
	hash := string(sum[:])

	now := time.Now()
	if lastSent, ok := rl.cache.Get(hash); ok &&
		now.Sub(lastSent.(time.Time)) < rl.minDuration {
		return false
	}

	rl.cache.Add(hash, now)
	return true
}
