package chart

import (
	"github.com/wandb/threadline/internal/selection"
	"github.com/wandb/threadline/internal/timeline"
	"github.com/wandb/threadline/internal/viewport"
)

// User actions. Each one refreshes the overlay because samples move on
// screen. Zoom and fit changes also cancel a pending auto-fit.

func (c *Chart) ZoomIn() viewport.ZoomActions {
	c.touchZoom()
	defer c.overlay.Refresh()
	return c.viewport.ZoomIn()
}

func (c *Chart) ZoomOut() viewport.ZoomActions {
	c.touchZoom()
	defer c.overlay.Refresh()
	return c.viewport.ZoomOut()
}

func (c *Chart) SetFit(fit bool) viewport.ZoomActions {
	c.touchZoom()
	defer c.overlay.Refresh()
	return c.viewport.SetFit(fit)
}

// ToggleFit flips fit-to-window mode.
func (c *Chart) ToggleFit() viewport.ZoomActions {
	return c.SetFit(!c.viewport.IsFit())
}

func (c *Chart) SetOffset(offset int) viewport.ZoomActions {
	defer c.overlay.Refresh()
	return c.viewport.SetOffset(offset)
}

func (c *Chart) Pan(dx int) viewport.ZoomActions {
	defer c.overlay.Refresh()
	return c.viewport.Pan(dx)
}

func (c *Chart) ScrollToStart() viewport.ZoomActions {
	defer c.overlay.Refresh()
	return c.viewport.ScrollToStart()
}

func (c *Chart) ScrollToEnd() viewport.ZoomActions {
	defer c.overlay.Refresh()
	return c.viewport.ScrollToEnd()
}

func (c *Chart) SetWidth(width int) viewport.ZoomActions {
	defer c.overlay.Refresh()
	return c.viewport.SetWidth(width)
}

// RowsResized tells the overlay that row positions on the surface changed.
func (c *Chart) RowsResized() {
	c.overlay.Refresh()
}

func (c *Chart) touchZoom() {
	c.userZoomed = true
	if c.autoFitArmed {
		c.autoFitArmed = false
		c.logger.Debug("chart: auto-fit cancelled by user")
	}
}

// SampleAt returns the index of the sample of item that covers column x of
// the view: the last sample drawn at or before the column.
func (c *Chart) SampleAt(item *timeline.TimeSeries, x int) (int, bool) {
	if item.Count() == 0 || x < 0 || x >= c.viewport.Width() {
		return -1, false
	}
	i := c.viewport.IndexAtX(item, x)
	return i, i >= 0
}

// ToggleLastVisible toggles the selection of the last visible sample of
// item and reports whether it is now selected.
func (c *Chart) ToggleLastVisible(item *timeline.TimeSeries) bool {
	i := c.viewport.Cursor(item).LastIndex()
	if i < 0 {
		return false
	}
	return c.selection.Toggle(selection.Key{Row: item.ID(), Index: i})
}

// ToggleSampleAt toggles the selection of the sample of item under column x.
func (c *Chart) ToggleSampleAt(item *timeline.TimeSeries, x int) bool {
	i, ok := c.SampleAt(item, x)
	if !ok {
		return false
	}
	return c.selection.Toggle(selection.Key{Row: item.ID(), Index: i})
}

// HighlightAt highlights the sample of item under column x, or clears the
// highlight if there is none. A nil item clears it too.
func (c *Chart) HighlightAt(item *timeline.TimeSeries, x int) {
	if item == nil {
		c.selection.SetHighlighted()
		return
	}
	i, ok := c.SampleAt(item, x)
	if !ok {
		c.selection.SetHighlighted()
		return
	}
	c.selection.SetHighlighted(selection.Key{Row: item.ID(), Index: i})
}

// ToggleTimestampAt toggles the selection of the timeline index under
// column x and reports whether it is now selected.
func (c *Chart) ToggleTimestampAt(x int) bool {
	if x < 0 || x >= c.viewport.Width() {
		return false
	}
	i := c.viewport.IndexAtX(c.model.Timeline(), x)
	if i < 0 {
		return false
	}
	return c.selection.ToggleTimestamp(i)
}

// ClearSelection drops all selected samples and timestamps.
func (c *Chart) ClearSelection() {
	c.selection.Clear()
}
