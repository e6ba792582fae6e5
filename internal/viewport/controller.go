// Package viewport maps session time to screen columns and tracks, per row,
// the last sample visible in the window.
package viewport

import (
	"math"
	"sort"

	"github.com/wandb/threadline/internal/chartmetrics"
	"github.com/wandb/threadline/internal/observability"
	"github.com/wandb/threadline/internal/timeaxis"
)

const (
	// DefaultZoom is the initial zoom in pixels per millisecond.
	DefaultZoom = 0.03

	// MaxZoom is the largest zoom factor.
	MaxZoom = 5.0

	// MinViewFraction bounds zooming out: the rendered data must cover at
	// least 1/MinViewFraction of the view.
	MinViewFraction = 3

	zoomInFactor  = 1.2
	zoomOutFactor = 0.8

	// minZoom keeps the zoom positive when the view has no width.
	minZoom = 1e-9

	// maxTicks caps TickMarks output for degenerate zoom values.
	maxTicks = 1024
)

// DataRange is the time span of the session's data.
type DataRange interface {
	StartTime() int64
	EndTime() int64
}

// Row is the sample sequence a Cursor walks.
type Row interface {
	Count() int
	TimeAt(i int) int64
}

// ZoomActions is the enabled state of the zoom actions.
type ZoomActions struct {
	ZoomIn  bool
	ZoomOut bool
}

// Tick is one time-axis mark.
type Tick struct {
	Time int64
	X    int
}

type Params struct {
	Range DataRange

	// InitialZoom defaults to DefaultZoom.
	InitialZoom float64

	// MinTickDistance defaults to timeaxis.DefaultMinTickDistance.
	MinTickDistance int

	Logger  *observability.CoreLogger
	Metrics *chartmetrics.Metrics
}

// Controller owns the zoom, horizontal offset, view width and fit mode of
// a chart, and the row cursors that depend on them.
//
// Not safe for concurrent use.
type Controller struct {
	data DataRange

	initialZoom    float64
	zoom           float64
	lastManualZoom float64
	fit            bool

	offset    int
	width     int
	prefWidth int

	minTickDistance int
	tickUnit        int64

	cursors map[Row]*Cursor

	logger  *observability.CoreLogger
	metrics *chartmetrics.Metrics
}

func NewController(params Params) *Controller {
	if params.InitialZoom <= 0 {
		params.InitialZoom = DefaultZoom
	}
	params.InitialZoom = min(params.InitialZoom, MaxZoom)
	if params.MinTickDistance <= 0 {
		params.MinTickDistance = timeaxis.DefaultMinTickDistance
	}

	c := &Controller{
		data:            params.Range,
		initialZoom:     params.InitialZoom,
		zoom:            params.InitialZoom,
		lastManualZoom:  params.InitialZoom,
		minTickDistance: params.MinTickDistance,
		cursors:         make(map[Row]*Cursor),
		logger:          observability.OrNoOp(params.Logger),
		metrics:         params.Metrics,
	}
	c.refresh()
	return c
}

func (c *Controller) Zoom() float64        { return c.zoom }
func (c *Controller) Offset() int          { return c.offset }
func (c *Controller) Width() int           { return c.width }
func (c *Controller) IsFit() bool          { return c.fit }
func (c *Controller) TickUnit() int64      { return c.tickUnit }
func (c *Controller) MinTickDistance() int { return c.minTickDistance }

// ContentWidth is the width in pixels of the whole data range at the
// current zoom (the preferred width of the view).
func (c *Controller) ContentWidth() int { return c.prefWidth }

// IsTrackingEnd reports whether the right edge of the view is at or past
// the newest data.
func (c *Controller) IsTrackingEnd() bool {
	return c.offset+c.width >= c.prefWidth
}

// PixelX maps a timestamp to a column.
//
// With relative set the result is relative to the left edge of the view,
// otherwise to the start of the data. All components use this mapping so a
// timestamp always lands on the same column.
func (c *Controller) PixelX(t int64, relative bool) int {
	x := c.pixels(t - c.data.StartTime())
	if relative && !c.fit {
		x -= c.offset
	}
	return x
}

// TimeAt maps a column back to a timestamp.
func (c *Controller) TimeAt(x int, relative bool) int64 {
	if relative && !c.fit {
		x += c.offset
	}
	return c.data.StartTime() + int64(math.Round(float64(x)/c.zoom))
}

// IndexAtX returns the last sample of row drawn at or before column x of
// the view, or -1. It goes through PixelX, so a column always resolves to
// the sample drawn in it.
//
// Binary search, so the result assumes increasing timestamps.
func (c *Controller) IndexAtX(row Row, x int) int {
	return sort.Search(row.Count(), func(i int) bool {
		return c.PixelX(row.TimeAt(i), true) > x
	}) - 1
}

func (c *Controller) pixels(dt int64) int {
	return int(math.Round(float64(dt) * c.zoom))
}

func (c *Controller) dataWidth() int64 {
	return c.data.EndTime() - c.data.StartTime()
}

// FirstTickMark returns the first multiple of TickUnit at or after the
// start of the data, or with relative set, at or after the left edge of
// the view.
func (c *Controller) FirstTickMark(relative bool) int64 {
	first := c.data.StartTime()
	if relative && !c.fit {
		first += int64(float64(c.offset) / c.zoom)
	}
	return timeaxis.FirstMark(first, c.tickUnit)
}

// TickMarks returns the ticks that fall inside the view.
func (c *Controller) TickMarks() []Tick {
	if c.tickUnit <= 0 || c.width <= 0 {
		return nil
	}

	var ticks []Tick
	for t := c.FirstTickMark(true); len(ticks) < maxTicks; t += c.tickUnit {
		x := c.PixelX(t, true)
		if x >= c.width {
			break
		}
		if x >= 0 {
			ticks = append(ticks, Tick{Time: t, X: x})
		}
	}
	return ticks
}

// Actions returns the enabled state of the zoom actions.
func (c *Controller) Actions() ZoomActions {
	lo, hi, ok := c.zoomBounds()
	if c.fit || !ok {
		return ZoomActions{}
	}
	return ZoomActions{
		ZoomIn:  c.zoom < hi,
		ZoomOut: c.zoom > lo,
	}
}

// ZoomBounds returns the allowed zoom range for the current width and
// data, and false when there is no data to zoom.
func (c *Controller) ZoomBounds() (lo, hi float64, ok bool) {
	return c.zoomBounds()
}

func (c *Controller) zoomBounds() (float64, float64, bool) {
	dw := c.dataWidth()
	if dw <= 0 {
		return 0, 0, false
	}
	lo := float64(c.width) / MinViewFraction / float64(dw)
	lo = min(max(lo, minZoom), MaxZoom)
	return lo, MaxZoom, true
}

// ZoomIn multiplies the zoom by 1.2, up to MaxZoom.
//
// A zoom left outside the bounds by a resize or by early data is first
// brought back into range.
func (c *Controller) ZoomIn() ZoomActions {
	return c.zoomBy(zoomInFactor)
}

// ZoomOut multiplies the zoom by 0.8, down to the minimum view fraction.
func (c *Controller) ZoomOut() ZoomActions {
	return c.zoomBy(zoomOutFactor)
}

func (c *Controller) zoomBy(factor float64) ZoomActions {
	lo, hi, ok := c.zoomBounds()
	if c.fit || !ok {
		return c.Actions()
	}
	if c.zoom < lo || c.zoom > hi {
		c.setZoom(c.zoom)
		return c.Actions()
	}

	actions := c.Actions()
	if (factor > 1 && actions.ZoomIn) || (factor < 1 && actions.ZoomOut) {
		c.setZoom(c.zoom * factor)
	}
	return c.Actions()
}

// setZoom applies a manual zoom, keeping the centre of the view in place.
func (c *Controller) setZoom(zoom float64) {
	lo, hi, _ := c.zoomBounds()
	zoom = min(max(zoom, lo), hi)
	old := c.zoom
	if zoom == old {
		return
	}

	centre := (float64(c.offset) + float64(c.width)/2) / old
	c.zoom = zoom
	c.refresh()
	c.offset = c.clampOffset(int(centre*zoom - float64(c.width)/2))

	for _, cur := range c.cursors {
		cur.reseek()
	}
}

// SetFit switches fit-to-window mode.
//
// Entering fit remembers the manual zoom; leaving it restores that zoom and
// shows the newest data.
func (c *Controller) SetFit(fit bool) ZoomActions {
	if fit == c.fit {
		return c.Actions()
	}

	c.fit = fit
	if fit {
		c.lastManualZoom = c.zoom
		c.applyFitZoom()
		c.offset = 0
	} else {
		c.zoom = c.lastManualZoom
		c.refresh()
		c.offset = c.clampOffset(c.prefWidth - c.width)
	}
	c.logger.Debug("viewport: fit changed", "fit", fit, "zoom", c.zoom)

	for _, cur := range c.cursors {
		cur.reseek()
	}
	return c.Actions()
}

// SetZoomForSpan leaves fit mode and zooms so that span milliseconds fill
// the view, pinned to the newest data.
func (c *Controller) SetZoomForSpan(span int64) ZoomActions {
	if span <= 0 || c.width <= 0 {
		return c.Actions()
	}
	c.fit = false
	c.zoom = min(max(float64(c.width)/float64(span), minZoom), MaxZoom)
	c.lastManualZoom = c.zoom
	c.refresh()
	c.offset = c.clampOffset(c.prefWidth - c.width)

	for _, cur := range c.cursors {
		cur.reseek()
	}
	return c.Actions()
}

// applyFitZoom derives the zoom from the width and the data range. The zoom
// is left unchanged while the data has no extent.
func (c *Controller) applyFitZoom() {
	if dw := c.dataWidth(); dw > 0 && c.width > 0 {
		c.zoom = float64(c.width) / float64(dw)
	}
	c.refresh()
}

// SetOffset scrolls the view. The offset is clamped to the content.
func (c *Controller) SetOffset(offset int) ZoomActions {
	old := c.offset
	offset = c.clampOffset(offset)
	if offset == old {
		return c.Actions()
	}

	c.offset = offset
	for _, cur := range c.cursors {
		cur.offsetChanged(old, offset)
	}
	return c.Actions()
}

// Pan scrolls the view by dx pixels.
func (c *Controller) Pan(dx int) ZoomActions {
	return c.SetOffset(c.offset + dx)
}

// ScrollToStart shows the oldest data.
func (c *Controller) ScrollToStart() ZoomActions {
	return c.SetOffset(0)
}

// ScrollToEnd shows the newest data.
func (c *Controller) ScrollToEnd() ZoomActions {
	return c.SetOffset(c.prefWidth - c.width)
}

func (c *Controller) clampOffset(offset int) int {
	if c.fit {
		return 0
	}
	return min(max(offset, 0), max(0, c.prefWidth-c.width))
}

// SetWidth resizes the view.
//
// In fit mode the zoom is recomputed. Otherwise the zoom is kept, and a view
// that was showing the newest data keeps showing it.
func (c *Controller) SetWidth(width int) ZoomActions {
	width = max(width, 0)
	old := c.width
	if width == old {
		return c.Actions()
	}

	if c.fit {
		c.width = width
		c.applyFitZoom()
		for _, cur := range c.cursors {
			cur.reseek()
		}
		return c.Actions()
	}

	wasTracking := c.IsTrackingEnd()
	oldOffset := c.offset
	c.width = width
	if wasTracking {
		c.offset = c.clampOffset(c.prefWidth - c.width)
	} else {
		c.offset = c.clampOffset(c.offset)
	}

	for _, cur := range c.cursors {
		if c.offset == oldOffset {
			cur.widthChanged(old, width)
		} else {
			cur.reseek()
		}
	}
	return c.Actions()
}

// Update brings the view up to date after samples were appended.
//
// In fit mode the zoom is recomputed. Otherwise a view that was showing the
// newest data follows it.
func (c *Controller) Update() {
	wasTracking := c.IsTrackingEnd()
	if c.fit {
		c.applyFitZoom()
	} else {
		c.refresh()
		if wasTracking {
			c.offset = c.clampOffset(c.prefWidth - c.width)
		}
	}

	for _, cur := range c.cursors {
		cur.valuesAdded()
	}
}

// Reset returns the view to its initial state after the data was cleared.
// Cursors are kept but forget their position.
func (c *Controller) Reset() {
	c.offset = 0
	if !c.fit {
		c.zoom = c.initialZoom
	}
	c.lastManualZoom = c.initialZoom
	c.refresh()
	c.logger.Debug("viewport: reset")

	for _, cur := range c.cursors {
		cur.reset()
	}
}

// refresh recomputes state derived from the zoom and data range.
func (c *Controller) refresh() {
	c.prefWidth = max(0, c.pixels(c.dataWidth()))
	c.tickUnit = timeaxis.OptimalUnit(c.zoom, c.minTickDistance)
	c.metrics.SetViewport(c.zoom, c.fit)
}

// Cursor returns the cursor for row, creating it on first use.
func (c *Controller) Cursor(row Row) *Cursor {
	if cur, ok := c.cursors[row]; ok {
		return cur
	}
	cur := newCursor(c, row)
	c.cursors[row] = cur
	return cur
}

// RemoveCursor drops the cursor for row.
func (c *Controller) RemoveCursor(row Row) {
	delete(c.cursors, row)
}

// CursorCount returns the number of live cursors.
func (c *Controller) CursorCount() int { return len(c.cursors) }
