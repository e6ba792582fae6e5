// Package chart ties the timeline engine together: it owns the items model,
// the viewport with its row cursors, and the selection overlay, and routes
// model events between them.
package chart

import (
	"context"
	"fmt"
	"time"

	"github.com/wandb/threadline/internal/chartmetrics"
	"github.com/wandb/threadline/internal/observability"
	"github.com/wandb/threadline/internal/selection"
	"github.com/wandb/threadline/internal/timeline"
	"github.com/wandb/threadline/internal/viewport"
)

// DefaultAutoFitPeriod is how long a new session stays in fit mode before
// the view switches to a fixed span at the live edge.
const DefaultAutoFitPeriod = 3 * time.Minute

type Params struct {
	Rows []timeline.Descriptor

	// Fit starts the chart in fit-to-window mode.
	Fit bool

	// AutoFitPeriod is the span after which a chart that started in fit
	// mode switches to manual zoom. Zero means DefaultAutoFitPeriod and a
	// negative value disables the switch.
	AutoFitPeriod time.Duration

	InitialZoom     float64
	MinTickDistance int

	Logger  *observability.CoreLogger
	Metrics *chartmetrics.Metrics
}

// Chart is the context object of one timeline view.
//
// All methods must be called from the goroutine that owns the chart.
type Chart struct {
	model     *timeline.ItemsModel
	viewport  *viewport.Controller
	selection *selection.Model
	overlay   *selection.Overlay
	surface   Surface

	fitOnStart    bool
	autoFitPeriod int64
	autoFitArmed  bool
	userZoomed    bool

	unsubscribe func()

	logger  *observability.CoreLogger
	metrics *chartmetrics.Metrics
}

func New(params Params) (*Chart, error) {
	logger := observability.OrNoOp(params.Logger)

	items := make([]*timeline.TimeSeries, len(params.Rows))
	for i, desc := range params.Rows {
		items[i] = timeline.NewTimeSeries(desc)
	}
	model, err := timeline.NewItemsModel(nil, items, timeline.ItemsModelParams{
		Logger:  logger,
		Metrics: params.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}

	switch {
	case params.AutoFitPeriod == 0:
		params.AutoFitPeriod = DefaultAutoFitPeriod
	case params.AutoFitPeriod < 0:
		params.AutoFitPeriod = 0
	}

	c := &Chart{
		model: model,
		viewport: viewport.NewController(viewport.Params{
			Range:           model.Timeline(),
			InitialZoom:     params.InitialZoom,
			MinTickDistance: params.MinTickDistance,
			Logger:          logger,
			Metrics:         params.Metrics,
		}),
		selection:     selection.NewModel(),
		overlay:       selection.NewOverlay(selection.OverlayParams{Logger: logger, Metrics: params.Metrics}),
		surface:       noSurface{},
		fitOnStart:    params.Fit,
		autoFitPeriod: params.AutoFitPeriod.Milliseconds(),
		logger:        logger,
		metrics:       params.Metrics,
	}

	for _, item := range items {
		c.viewport.Cursor(item)
	}
	c.startFit()

	c.unsubscribe = model.Subscribe(c.onEvent)
	c.overlay.Attach(surfaceAdapter{c}, c.selection)
	return c, nil
}

// Close detaches the chart from its model and overlay.
func (c *Chart) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.overlay.Detach()
}

func (c *Chart) Model() *timeline.ItemsModel    { return c.model }
func (c *Chart) Viewport() *viewport.Controller { return c.viewport }
func (c *Chart) Selection() *selection.Model    { return c.selection }
func (c *Chart) Overlay() *selection.Overlay    { return c.overlay }
func (c *Chart) Items() []*timeline.TimeSeries  { return c.model.Items() }
func (c *Chart) Timeline() *timeline.Timeline   { return c.model.Timeline() }
func (c *Chart) AutoFitPending() bool           { return c.autoFitArmed }

// Cursor returns the viewport cursor of a row.
func (c *Chart) Cursor(item *timeline.TimeSeries) *viewport.Cursor {
	return c.viewport.Cursor(item)
}

// SetSurface installs the paint collaborator. A nil surface disables
// painting.
func (c *Chart) SetSurface(s Surface) {
	if s == nil {
		s = noSurface{}
	}
	c.surface = s
	c.overlay.Refresh()
}

// Append records one sampling tick.
func (c *Chart) Append(timestamp int64, values []int64) {
	c.model.Append(timestamp, values)
}

// AddRows creates rows for the descriptors. New rows start at the current
// end of the timeline.
func (c *Chart) AddRows(descs ...timeline.Descriptor) ([]*timeline.TimeSeries, error) {
	items := make([]*timeline.TimeSeries, len(descs))
	for i, desc := range descs {
		items[i] = timeline.NewTimeSeries(desc)
	}
	if err := c.model.AddItems(items...); err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	return items, nil
}

// RemoveRows removes the rows with the given IDs.
func (c *Chart) RemoveRows(ids ...int) error {
	items := make([]*timeline.TimeSeries, 0, len(ids))
	for _, id := range ids {
		item, ok := c.model.Item(id)
		if !ok {
			return fmt.Errorf("chart: %w: id %d", timeline.ErrUnknownItem, id)
		}
		items = append(items, item)
	}
	if err := c.model.RemoveItems(items...); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	return nil
}

// Reset clears all samples, as on a session restart.
func (c *Chart) Reset() {
	c.model.Reset()
}

// Consume appends batches from in until it is closed or ctx is done.
//
// It must run on the goroutine that owns the chart.
func (c *Chart) Consume(ctx context.Context, in <-chan timeline.Batch) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-in:
			if !ok {
				return nil
			}
			c.Append(b.Timestamp, b.Values)
		}
	}
}

func (c *Chart) onEvent(e timeline.Event) {
	switch e.Kind {
	case timeline.ValuesAdded:
		c.viewport.Update()
		c.checkAutoFit()

	case timeline.ValuesReset:
		c.viewport.Reset()
		c.selection.Reset()
		if !c.userZoomed {
			c.startFit()
		}

	case timeline.ItemsAdded:
		for _, item := range e.Items {
			c.viewport.Cursor(item)
		}

	case timeline.ItemsRemoved:
		for _, item := range e.Items {
			c.viewport.RemoveCursor(item)
			c.selection.RemoveRow(item.ID())
		}
	}

	c.overlay.Refresh()
}

func (c *Chart) startFit() {
	if !c.fitOnStart {
		return
	}
	c.viewport.SetFit(true)
	c.autoFitArmed = c.autoFitPeriod > 0
}

// checkAutoFit leaves fit mode once the data span exceeds the auto-fit
// period, showing one period at the live edge.
func (c *Chart) checkAutoFit() {
	if !c.autoFitArmed || !c.viewport.IsFit() || c.viewport.Width() <= 0 {
		return
	}

	tl := c.model.Timeline()
	if tl.EndTime()-tl.StartTime() <= c.autoFitPeriod {
		return
	}

	c.autoFitArmed = false
	c.viewport.SetZoomForSpan(c.autoFitPeriod)
	c.logger.Info(
		"chart: auto-fit period elapsed",
		"period_ms", c.autoFitPeriod,
		"zoom", c.viewport.Zoom(),
	)
}
