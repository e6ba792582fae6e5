package sentry_ext

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

const (
	recentEventDuration = time.Minute * 5
	defaultCacheSize    = 100
)

// recentEvents remembers when each distinct message was last sent.
type recentEvents struct {
	*lru.Cache
	window time.Duration
}

func newRecentEvents(size int, window time.Duration) (*recentEvents, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	if window <= 0 {
		window = recentEventDuration
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &recentEvents{Cache: c, window: window}, nil
}

// shouldCapture reports whether msg was not sent within the window and,
// if so, records now as its last send time.
func (r *recentEvents) shouldCapture(msg string, now time.Time) bool {
	sum := md5.Sum([]byte(msg))
	key := hex.EncodeToString(sum[:])

	if lastSent, ok := r.Get(key); ok {
		if now.Sub(lastSent.(time.Time)) < r.window {
			return false
		}
	}

	r.Add(key, now)
	return true
}
