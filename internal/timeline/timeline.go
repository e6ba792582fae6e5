package timeline

// Timeline is the timestamp axis shared by all items of an ItemsModel.
//
// Timestamps are in milliseconds. They are expected to increase, but
// out-of-order timestamps are stored and flagged rather than dropped.
type Timeline struct {
	timestamps []int64
	outOfOrder map[int]struct{}
}

func NewTimeline() *Timeline {
	return &Timeline{outOfOrder: make(map[int]struct{})}
}

// Count returns the number of timestamps.
func (tl *Timeline) Count() int {
	return len(tl.timestamps)
}

// TimeAt returns the i-th timestamp.
func (tl *Timeline) TimeAt(i int) int64 {
	return tl.timestamps[i]
}

// StartTime returns the first timestamp, or 0 if there are none.
func (tl *Timeline) StartTime() int64 {
	if len(tl.timestamps) == 0 {
		return 0
	}
	return tl.timestamps[0]
}

// EndTime returns the newest timestamp, or 0 if there are none.
//
// This is the authoritative "now" of the session even when it is smaller
// than an earlier timestamp.
func (tl *Timeline) EndTime() int64 {
	if len(tl.timestamps) == 0 {
		return 0
	}
	return tl.timestamps[len(tl.timestamps)-1]
}

// OutOfOrder reports whether the i-th timestamp was not greater than its
// predecessor when appended.
func (tl *Timeline) OutOfOrder(i int) bool {
	_, ok := tl.outOfOrder[i]
	return ok
}

// append adds a timestamp and reports whether it was out of order.
func (tl *Timeline) append(ts int64) bool {
	n := len(tl.timestamps)
	late := n > 0 && ts <= tl.timestamps[n-1]
	if late {
		tl.outOfOrder[n] = struct{}{}
	}
	tl.timestamps = append(tl.timestamps, ts)
	return late
}

func (tl *Timeline) reset() {
	tl.timestamps = tl.timestamps[:0]
	clear(tl.outOfOrder)
}
