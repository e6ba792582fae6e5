// Package chartmetrics exposes Prometheus metrics for the timeline engine.
//
// A nil *Metrics is valid; every method is then a no-op.
package chartmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "threadline"

type Metrics struct {
	appends        prometheus.Counter
	outOfOrder     prometheus.Counter
	cursorProbes   prometheus.Counter
	cursorRescans  prometheus.Counter
	repaints       *prometheus.CounterVec
	repaintColumns prometheus.Counter
	zoom           prometheus.Gauge
	fit            prometheus.Gauge
}

// New creates the metrics and registers them with reg.
//
// A nil reg leaves the metrics unregistered, which is useful in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		appends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appends_total",
			Help:      "Sampling ticks appended to the items model.",
		}),
		outOfOrder: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "out_of_order_appends_total",
			Help:      "Appends whose timestamp did not increase.",
		}),
		cursorProbes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cursor_probes_total",
			Help:      "Sample classifications performed by row cursors.",
		}),
		cursorRescans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cursor_rescans_total",
			Help:      "Row cursor recomputations from scratch.",
		}),
		repaints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlay_repaints_total",
			Help:      "Overlay repaint requests by layer.",
		}, []string{"layer"}),
		repaintColumns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlay_repaint_columns_total",
			Help:      "Total width of requested overlay repaint regions.",
		}),
		zoom: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "viewport_zoom",
			Help:      "Current zoom factor in pixels per millisecond.",
		}),
		fit: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "viewport_fit",
			Help:      "1 if the viewport is in fit-to-window mode.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.appends,
			m.outOfOrder,
			m.cursorProbes,
			m.cursorRescans,
			m.repaints,
			m.repaintColumns,
			m.zoom,
			m.fit,
		)
	}
	return m
}

func (m *Metrics) IncAppend() {
	if m == nil {
		return
	}
	m.appends.Inc()
}

func (m *Metrics) IncOutOfOrder() {
	if m == nil {
		return
	}
	m.outOfOrder.Inc()
}

func (m *Metrics) AddCursorProbes(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cursorProbes.Add(float64(n))
}

func (m *Metrics) IncCursorRescan() {
	if m == nil {
		return
	}
	m.cursorRescans.Inc()
}

// ObserveRepaint records one repaint request of the given width.
func (m *Metrics) ObserveRepaint(layer string, width int) {
	if m == nil {
		return
	}
	m.repaints.WithLabelValues(layer).Inc()
	if width > 0 {
		m.repaintColumns.Add(float64(width))
	}
}

func (m *Metrics) SetViewport(zoom float64, fit bool) {
	if m == nil {
		return
	}
	m.zoom.Set(zoom)
	if fit {
		m.fit.Set(1)
	} else {
		m.fit.Set(0)
	}
}

// Appends returns the appends counter.
//
// Used for testing.
func (m *Metrics) Appends() prometheus.Counter { return m.appends }

// OutOfOrder returns the out-of-order counter.
//
// Used for testing.
func (m *Metrics) OutOfOrder() prometheus.Counter { return m.outOfOrder }

// CursorProbes returns the cursor probe counter.
//
// Used for testing.
func (m *Metrics) CursorProbes() prometheus.Counter { return m.cursorProbes }

// CursorRescans returns the rescan counter.
//
// Used for testing.
func (m *Metrics) CursorRescans() prometheus.Counter { return m.cursorRescans }

// Repaints returns the repaint counter for a layer.
//
// Used for testing.
func (m *Metrics) Repaints(layer string) prometheus.Counter {
	return m.repaints.WithLabelValues(layer)
}
