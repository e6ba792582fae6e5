package chart

import (
	"github.com/wandb/threadline/internal/selection"
	"github.com/wandb/threadline/internal/timeline"
)

// Surface is the paint collaborator that draws the chart.
type Surface interface {
	// Height is the height of the drawing surface.
	Height() int

	// RowY maps a value of item to a surface row, or -1 if the item is not
	// on screen.
	RowY(item *timeline.TimeSeries, value int64) int

	// Repaint requests a redraw of part of an overlay layer.
	Repaint(layer selection.Layer, r selection.Region)
}

type noSurface struct{}

func (noSurface) Height() int                          { return 0 }
func (noSurface) RowY(*timeline.TimeSeries, int64) int { return -1 }

func (noSurface) Repaint(selection.Layer, selection.Region) {}

// surfaceAdapter presents the chart to its selection overlay.
type surfaceAdapter struct{ c *Chart }

func (a surfaceAdapter) Width() int  { return a.c.viewport.Width() }
func (a surfaceAdapter) Height() int { return a.c.surface.Height() }

func (a surfaceAdapter) Repaint(layer selection.Layer, r selection.Region) {
	a.c.surface.Repaint(layer, r)
}

func (a surfaceAdapter) KeysAt(timelineIndex int) []selection.Key {
	var keys []selection.Key
	for _, item := range a.c.model.Items() {
		i := timelineIndex - item.Start()
		if i >= 0 && i < item.Count() {
			keys = append(keys, selection.Key{Row: item.ID(), Index: i})
		}
	}
	return keys
}

func (a surfaceAdapter) Locate(k selection.Key) (selection.Point, bool) {
	item, ok := a.c.model.Item(k.Row)
	if !ok || k.Index < 0 || k.Index >= item.Count() {
		return selection.Point{}, false
	}
	return selection.Point{
		X: a.c.viewport.PixelX(item.TimeAt(k.Index), true),
		Y: a.c.surface.RowY(item, item.ValueAt(k.Index)),
	}, true
}
