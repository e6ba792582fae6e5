package viewport

// Position of a sample relative to the view.
type Position int

const (
	Left Position = iota
	Within
	Right
)

func (p Position) String() string {
	switch p {
	case Left:
		return "left"
	case Within:
		return "within"
	default:
		return "right"
	}
}

// LastVisibleKind tags a LastVisible value.
type LastVisibleKind int

const (
	// NoData means the row has no samples.
	NoData LastVisibleKind = iota

	// AtIndex means Index is the last sample at or before the right edge.
	AtIndex

	// AllLeft means every sample lies left of the view: the view is past
	// the end of the row.
	AllLeft

	// AllRight means every sample lies at or past the right edge: the view
	// is before the start of the row.
	AllRight
)

func (k LastVisibleKind) String() string {
	switch k {
	case NoData:
		return "no-data"
	case AtIndex:
		return "index"
	case AllLeft:
		return "all-left"
	case AllRight:
		return "all-right"
	default:
		return "unknown"
	}
}

// LastVisible is a row cursor's position.
type LastVisible struct {
	Kind LastVisibleKind

	// Index is meaningful only when Kind is AtIndex.
	Index int
}

func at(i int) LastVisible { return LastVisible{Kind: AtIndex, Index: i} }

// Cursor tracks the last sample of a row that is at or before the right
// edge of the view.
//
// It moves incrementally as the view changes so that most events touch only
// the samples that cross an edge. A Cursor reads its row but does not own it.
type Cursor struct {
	c    *Controller
	row  Row
	last LastVisible

	probes int
}

func newCursor(c *Controller, row Row) *Cursor {
	cur := &Cursor{c: c, row: row}
	cur.last = cur.scan()
	return cur
}

// LastVisible returns the cursor position.
func (cur *Cursor) LastVisible() LastVisible { return cur.last }

// LastIndex returns the last visible index, or -1 if there is none.
func (cur *Cursor) LastIndex() int {
	if cur.last.Kind != AtIndex {
		return -1
	}
	return cur.last.Index
}

// MaxIndex returns the index of the row's newest sample, or -1.
func (cur *Cursor) MaxIndex() int { return cur.row.Count() - 1 }

// Row returns the row the cursor walks.
func (cur *Cursor) Row() Row { return cur.row }

// Probes returns how many samples the cursor has classified so far.
func (cur *Cursor) Probes() int { return cur.probes }

// Classify returns the position of sample i relative to the view.
func (cur *Cursor) Classify(i int) Position {
	cur.probes++
	x := cur.c.PixelX(cur.row.TimeAt(i), true)
	switch {
	case x < 0:
		return Left
	case x >= cur.c.width:
		return Right
	default:
		return Within
	}
}

// RecomputeFromScratch discards the cursor state and searches again from
// the newest sample.
func (cur *Cursor) RecomputeFromScratch() LastVisible {
	cur.c.metrics.IncCursorRescan()
	cur.update(cur.scan)
	return cur.last
}

// update runs a search and reports the number of probes it took.
func (cur *Cursor) update(search func() LastVisible) {
	before := cur.probes
	cur.last = search()
	cur.c.metrics.AddCursorProbes(cur.probes - before)
}

// pinned reports whether the answer is trivially the newest sample.
func (cur *Cursor) pinned() bool {
	return cur.c.fit || cur.c.IsTrackingEnd()
}

func (cur *Cursor) scan() LastVisible {
	maxIndex := cur.MaxIndex()
	if maxIndex < 0 {
		return LastVisible{}
	}
	if cur.pinned() {
		return at(maxIndex)
	}
	return cur.seekLeft(maxIndex)
}

// seekLeft walks left from i while samples are right of the view.
func (cur *Cursor) seekLeft(i int) LastVisible {
	maxIndex := cur.MaxIndex()
	pos := cur.Classify(i)
	for i > 0 && pos == Right {
		i--
		pos = cur.Classify(i)
	}

	switch {
	case pos == Right:
		return LastVisible{Kind: AllRight}
	case pos == Left && i == maxIndex:
		return LastVisible{Kind: AllLeft}
	default:
		return at(i)
	}
}

// seekRight walks right from i while the next sample is not right of the
// view. Falls back to seekLeft if i itself is right of the view.
func (cur *Cursor) seekRight(i int) LastVisible {
	maxIndex := cur.MaxIndex()
	pos := cur.Classify(i)
	if pos == Right {
		return cur.seekLeft(i)
	}

	for i < maxIndex {
		next := cur.Classify(i + 1)
		if next == Right {
			return at(i)
		}
		i++
		pos = next
	}

	if pos == Left {
		return LastVisible{Kind: AllLeft}
	}
	return at(maxIndex)
}

// valid reports whether the current position can seed an incremental step.
func (cur *Cursor) valid() bool {
	switch cur.last.Kind {
	case AtIndex:
		return cur.last.Index >= 0 && cur.last.Index <= cur.MaxIndex()
	case AllLeft, AllRight:
		return true
	default:
		return false
	}
}

// advance applies an edge move: forward means the view's right edge moved
// right relative to the data, backward means it moved left. The left edge
// must not move against that direction.
func (cur *Cursor) advance(forward bool) {
	maxIndex := cur.MaxIndex()
	switch {
	case maxIndex < 0:
		cur.last = LastVisible{}
	case cur.pinned():
		cur.last = at(maxIndex)
	case !cur.valid():
		cur.update(cur.scan)
	case forward:
		cur.update(func() LastVisible {
			switch cur.last.Kind {
			case AllLeft:
				return cur.last
			case AllRight:
				return cur.seekRight(0)
			default:
				return cur.seekRight(cur.last.Index)
			}
		})
	default:
		cur.update(func() LastVisible {
			switch cur.last.Kind {
			case AllRight:
				return cur.last
			case AllLeft:
				return cur.seekLeft(maxIndex)
			default:
				return cur.seekLeft(cur.last.Index)
			}
		})
	}
}

func (cur *Cursor) offsetChanged(oldOffset, newOffset int) {
	cur.advance(newOffset > oldOffset)
}

func (cur *Cursor) widthChanged(oldWidth, newWidth int) {
	cur.advance(newWidth > oldWidth)
}

// reseek handles changes that move samples in either direction, such as a
// zoom around the view centre. The current sample's position decides the
// direction of the walk.
func (cur *Cursor) reseek() {
	maxIndex := cur.MaxIndex()
	switch {
	case maxIndex < 0:
		cur.last = LastVisible{}
	case cur.pinned():
		cur.last = at(maxIndex)
	case cur.last.Kind != AtIndex || !cur.valid():
		cur.RecomputeFromScratch()
	default:
		cur.update(func() LastVisible {
			return cur.seekRight(cur.last.Index)
		})
	}
}

// valuesAdded handles samples appended on the right. Existing samples keep
// their positions unless the view is pinned to the newest data.
func (cur *Cursor) valuesAdded() {
	maxIndex := cur.MaxIndex()
	switch {
	case maxIndex < 0:
		cur.last = LastVisible{}
	case cur.pinned():
		cur.last = at(maxIndex)
	case !cur.valid():
		cur.update(cur.scan)
	default:
		cur.update(func() LastVisible {
			switch cur.last.Kind {
			case AllRight:
				return cur.seekRight(0)
			case AllLeft:
				return cur.seekLeft(maxIndex)
			default:
				return cur.seekRight(cur.last.Index)
			}
		})
	}
}

func (cur *Cursor) reset() {
	cur.last = LastVisible{}
}
