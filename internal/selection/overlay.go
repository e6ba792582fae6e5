package selection

//go:generate mockgen -package=selectiontest -destination=selectiontest/mock_chart.go . Chart

import (
	"cmp"
	"slices"

	"github.com/wandb/threadline/internal/chartmetrics"
	"github.com/wandb/threadline/internal/observability"
)

// Extent is the half-width in columns of a selection marker.
const Extent = 3

// Point is a marker position in chart coordinates.
//
// Y is -1 when the sample's row is not on screen. Such points still count
// for repaint regions but are not painted.
type Point struct {
	X, Y int
}

func comparePoints(a, b Point) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	return cmp.Compare(a.Y, b.Y)
}

// Region is a rectangle of the chart surface to repaint.
type Region struct {
	X, Y          int
	Width, Height int
}

// Empty reports whether the region covers nothing.
func (r Region) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Chart is the surface an Overlay draws on.
type Chart interface {
	// Width and Height are the size of the drawing surface.
	Width() int
	Height() int

	// KeysAt returns the sample at a timeline index on every row that has
	// one.
	KeysAt(timelineIndex int) []Key

	// Locate maps a sample to the surface. It returns false if the sample
	// does not exist.
	Locate(k Key) (Point, bool)

	// Repaint requests a redraw of part of one layer.
	Repaint(layer Layer, r Region)
}

type OverlayParams struct {
	Logger  *observability.CoreLogger
	Metrics *chartmetrics.Metrics
}

// Overlay keeps the screen positions of selected and highlighted samples
// and requests the smallest repaint that covers a change.
//
// The chart owns the overlay. The overlay refers to the chart only between
// Attach and Detach.
type Overlay struct {
	chart       Chart
	model       *Model
	unsubscribe func()

	points [2][]Point

	logger  *observability.CoreLogger
	metrics *chartmetrics.Metrics
}

func NewOverlay(params OverlayParams) *Overlay {
	return &Overlay{
		logger:  observability.OrNoOp(params.Logger),
		metrics: params.Metrics,
	}
}

// Attach connects the overlay to a chart and its selection model.
func (o *Overlay) Attach(chart Chart, model *Model) {
	o.Detach()
	o.chart = chart
	o.model = model
	o.unsubscribe = model.Subscribe(o.update)
	o.logger.Debug("selection: overlay attached")
	o.Refresh()
}

// Detach disconnects the overlay and forgets all points.
func (o *Overlay) Detach() {
	if o.unsubscribe != nil {
		o.unsubscribe()
		o.logger.Debug("selection: overlay detached")
	}
	o.chart = nil
	o.model = nil
	o.unsubscribe = nil
	o.points = [2][]Point{}
}

// Attached reports whether the overlay is connected to a chart.
func (o *Overlay) Attached() bool { return o.chart != nil }

// Refresh recomputes both layers. The chart calls it after anything that
// moves samples on screen: pan, zoom, resize, appends and row changes.
func (o *Overlay) Refresh() {
	o.update(LayerSelected)
	o.update(LayerHighlighted)
}

// Points returns the paintable markers of a layer, ordered by column.
func (o *Overlay) Points(layer Layer) []Point {
	var out []Point
	for _, p := range o.points[layer] {
		if p.Y != -1 {
			out = append(out, p)
		}
	}
	return out
}

// Columns returns the distinct marker columns of a layer.
func (o *Overlay) Columns(layer Layer) []int {
	var out []int
	for _, p := range o.Points(layer) {
		if len(out) == 0 || out[len(out)-1] != p.X {
			out = append(out, p.X)
		}
	}
	return out
}

func (o *Overlay) update(layer Layer) {
	if o.chart == nil {
		return
	}

	old := o.points[layer]
	next := o.locate(o.keys(layer))
	if slices.Equal(old, next) {
		return
	}
	o.points[layer] = next

	r := repaintRegion(old, next, o.chart.Height())
	if r.Empty() {
		return
	}
	o.metrics.ObserveRepaint(layer.String(), r.Width)
	o.chart.Repaint(layer, r)
}

func (o *Overlay) keys(layer Layer) []Key {
	if layer == LayerHighlighted {
		return o.model.Highlighted()
	}

	keys := o.model.Selected()
	for _, index := range o.model.Timestamps() {
		keys = append(keys, o.chart.KeysAt(index)...)
	}
	return keys
}

// locate maps keys to distinct on-surface points sorted by column.
func (o *Overlay) locate(keys []Key) []Point {
	width := o.chart.Width()

	var points []Point
	for _, k := range keys {
		p, ok := o.chart.Locate(k)
		if !ok || p.X < 0 || p.X > width {
			continue
		}
		points = append(points, p)
	}

	slices.SortFunc(points, comparePoints)
	return slices.Compact(points)
}

// repaintRegion returns the strip or rectangle that covers every column of
// old and next.
func repaintRegion(old, next []Point, height int) Region {
	if len(old) == 0 && len(next) == 0 {
		return Region{}
	}

	lo, hi := 0, 0
	for i, p := range slices.Concat(old, next) {
		if i == 0 || p.X < lo {
			lo = p.X
		}
		if i == 0 || p.X > hi {
			hi = p.X
		}
	}

	return Region{
		X:      lo - Extent,
		Width:  hi - lo + 2*Extent,
		Height: height,
	}
}
