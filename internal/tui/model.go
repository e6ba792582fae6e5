// Package tui is the terminal front end of threadline: it paints a chart.Chart
// and turns keyboard and mouse input into viewport and selection actions.
package tui

import (
	"fmt"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"github.com/wandb/threadline/internal/chart"
	"github.com/wandb/threadline/internal/observability"
	"github.com/wandb/threadline/internal/sampling"
	"github.com/wandb/threadline/internal/selection"
	"github.com/wandb/threadline/internal/timeline"
)

type Params struct {
	Chart  *chart.Chart
	Config *ConfigManager

	// Source names the producer in the header.
	Source string

	// Batches is the producer queue. Done receives the producer's result
	// before Batches is closed.
	Batches <-chan timeline.Batch
	Done    <-chan error

	// Location is used for wall-clock labels. Defaults to time.Local.
	Location *time.Location

	Logger *observability.CoreLogger
}

// Model is the top-level bubbletea model.
//
// It is the chart's paint surface: row positions and value scales are
// recomputed after every update and the overlay is refreshed when they move.
type Model struct {
	chart  *chart.Chart
	config *ConfigManager
	help   *HelpModel
	keyMap map[string]func(*Model, tea.KeyMsg) tea.Cmd

	source  string
	batches <-chan timeline.Batch
	done    <-chan error

	sourceDone bool
	sourceErr  error

	width, height int

	// slots are the rows currently on screen, in display order.
	slots     []rowSlot
	rowScroll int
	focus     int

	// hoverX is the plot column under the mouse pointer, or -1.
	hoverX int

	repaints [2]int

	loc    *time.Location
	logger *observability.CoreLogger
}

// rowSlot is the on-screen placement of a row.
type rowSlot struct {
	item *timeline.TimeSeries

	// top is relative to the first row line.
	top, height int

	// first and last bound the samples drawn in the view, or are -1.
	first, last int

	// lo and hi are the value range of a counter row.
	lo, hi int64
}

func NewModel(params Params) *Model {
	logger := observability.OrNoOp(params.Logger)
	config := params.Config
	if config == nil {
		config = NewConfigManager(afero.NewMemMapFs(), ConfigName, logger)
	}
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}

	m := &Model{
		chart:   params.Chart,
		config:  config,
		help:    NewHelp(),
		keyMap:  buildKeyMap(ModelKeyBindings()),
		source:  params.Source,
		batches: params.Batches,
		done:    params.Done,
		hoverX:  -1,
		loc:     loc,
		logger:  logger,
	}
	m.chart.SetSurface(m)
	return m
}

// Chart returns the chart being displayed.
func (m *Model) Chart() *chart.Chart { return m.chart }

// FocusedRow returns the focused row, or nil if there are no rows.
func (m *Model) FocusedRow() *timeline.TimeSeries {
	items := m.chart.Items()
	if m.focus < 0 || m.focus >= len(items) {
		return nil
	}
	return items[m.focus]
}

// SourceDone reports whether the producer has stopped, and its error.
func (m *Model) SourceDone() (bool, error) { return m.sourceDone, m.sourceErr }

// Repaints returns how many overlay repaints were requested for layer.
func (m *Model) Repaints(layer selection.Layer) int { return m.repaints[layer] }

// Init returns the initial command for the application to run.
//
// Implements tea.Model.Init.
func (m *Model) Init() tea.Cmd {
	m.logger.Debug("model: Init called")
	return tea.Batch(
		windowTitleCmd(),
		waitForBatches(m.batches, m.done),
	)
}

// Update handles incoming events and updates the model accordingly.
//
// Implements tea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer m.logPanic("Update")

	if handled, cmd := m.handleHelp(msg); handled {
		return m, cmd
	}

	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKeyMsg(msg)

	case tea.MouseMsg:
		cmd = m.handleMouseMsg(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.SetSize(msg.Width, msg.Height)
		m.chart.SetWidth(m.plotWidth())

	case BatchMsg:
		for _, b := range msg.Batches {
			m.chart.Append(b.Timestamp, b.Values)
		}
		cmd = waitForBatches(m.batches, m.done)

	case SourceDoneMsg:
		m.sourceDone = true
		m.sourceErr = msg.Err
		if sampling.IsShutdown(msg.Err) {
			m.logger.Info("model: source finished")
		} else {
			m.logger.CaptureError(fmt.Errorf("model: source failed: %v", msg.Err))
		}
	}

	m.layoutRows()
	return m, cmd
}

// handleHelp centralizes help toggle and routing while active.
func (m *Model) handleHelp(msg tea.Msg) (bool, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "h", "?":
			m.help.Toggle()
			return true, nil
		}
	}

	// When help is visible, it owns key/mouse
	if m.help.IsActive() {
		switch msg.(type) {
		case tea.KeyMsg, tea.MouseMsg:
			updated, cmd := m.help.Update(msg)
			m.help = updated
			return true, cmd
		}
	}
	return false, nil
}

// nameColumnWidth is the width of the row names plus the separator.
func (m *Model) nameColumnWidth() int {
	return m.config.NameWidth() + 1
}

func (m *Model) plotWidth() int {
	w := m.width - m.nameColumnWidth()
	if w < MinPlotWidth {
		return max(w, 0)
	}
	return w
}

// rowsTop is the screen line of the first row.
func (m *Model) rowsTop() int {
	return HeaderHeight + AxisHeight
}

// Height implements chart.Surface: the number of lines available to rows.
func (m *Model) Height() int {
	return max(m.height-m.rowsTop()-StatusBarHeight, 0)
}

// RowY implements chart.Surface.
func (m *Model) RowY(item *timeline.TimeSeries, value int64) int {
	slot := m.slotOf(item)
	if slot == nil {
		return -1
	}
	if item.Kind() != timeline.KindCounter || slot.hi <= slot.lo {
		return slot.top + slot.height - 1
	}
	span := slot.height - 1
	frac := float64(value-slot.lo) / float64(slot.hi-slot.lo)
	y := slot.top + span - int(frac*float64(span)+0.5)
	return min(max(y, slot.top), slot.top+span)
}

// Repaint implements chart.Surface.
//
// The whole view is re-rendered after every update, so a repaint request
// is only recorded.
func (m *Model) Repaint(layer selection.Layer, r selection.Region) {
	m.repaints[layer]++
	m.logger.Debug(
		"model: overlay repaint",
		"layer", layer.String(),
		"x", r.X,
		"width", r.Width,
	)
}

func (m *Model) slotOf(item *timeline.TimeSeries) *rowSlot {
	for i := range m.slots {
		if m.slots[i].item == item {
			return &m.slots[i]
		}
	}
	return nil
}

func (m *Model) rowHeight(item *timeline.TimeSeries) int {
	if item.Kind() == timeline.KindCounter {
		return m.config.CounterRowHeight()
	}
	return 1
}

// layoutRows places rows on screen, keeps the focused row visible and
// recomputes visible sample ranges and counter scales.
//
// The overlay is refreshed if any row moved or was rescaled.
func (m *Model) layoutRows() {
	items := m.chart.Items()
	m.focus = min(max(m.focus, 0), max(len(items)-1, 0))
	m.rowScroll = min(m.rowScroll, m.focus)

	height := m.Height()
	var slots []rowSlot
	for {
		slots = m.placeRows(items, height)
		if len(items) == 0 || m.rowScroll >= m.focus ||
			m.rowScroll+len(slots) > m.focus {
			break
		}
		m.rowScroll++
	}

	for i := range slots {
		m.measure(&slots[i])
	}

	if !sameSlots(m.slots, slots) {
		m.slots = slots
		m.chart.RowsResized()
		return
	}
	m.slots = slots
}

func (m *Model) placeRows(items []*timeline.TimeSeries, height int) []rowSlot {
	var slots []rowSlot
	top := 0
	for _, item := range items[min(m.rowScroll, len(items)):] {
		h := m.rowHeight(item)
		if top+h > height {
			break
		}
		slots = append(slots, rowSlot{item: item, top: top, height: h, first: -1, last: -1})
		top += h
	}
	return slots
}

// measure finds the samples of the slot's row drawn in the view: the last
// visible sample and every sample back to the one covering column 0.
func (m *Model) measure(slot *rowSlot) {
	item := slot.item
	last := m.chart.Cursor(item).LastIndex()
	if last < 0 {
		return
	}

	vp := m.chart.Viewport()
	first := last
	for first > 0 && vp.PixelX(item.TimeAt(first), true) > 0 {
		first--
	}
	slot.first, slot.last = first, last

	if item.Kind() != timeline.KindCounter {
		return
	}

	lo, hi := item.ValueAt(first), item.ValueAt(first)
	for i := first + 1; i <= last; i++ {
		v := item.ValueAt(i)
		lo, hi = min(lo, v), max(hi, v)
	}
	slot.lo, slot.hi = niceRange(lo, hi, slot.height)
}

func sameSlots(a, b []rowSlot) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].item != b[i].item ||
			a[i].top != b[i].top ||
			a[i].height != b[i].height ||
			a[i].lo != b[i].lo ||
			a[i].hi != b[i].hi {
			return false
		}
	}
	return true
}

// logPanic logs panics to Sentry before re-panicking.
func (m *Model) logPanic(context string) {
	if r := recover(); r != nil {
		stackTrace := string(debug.Stack())
		m.logger.CaptureError(fmt.Errorf("PANIC in %s: %v\nStack trace:\n%s", context, r, stackTrace))

		panic(r)
	}
}
