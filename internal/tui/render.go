package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/canvas/graph"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/wandb/threadline/internal/sampling"
	"github.com/wandb/threadline/internal/selection"
	"github.com/wandb/threadline/internal/timeaxis"
	"github.com/wandb/threadline/internal/timeline"
	"github.com/wandb/threadline/internal/viewport"
)

// maxTicks caps the number of relative ticks per render.
const maxTicks = 1024

// cellStyle identifies the style of a plot cell. Values from styleState
// on are styleState plus a state code.
type cellStyle int

const (
	styleBlank cellStyle = iota
	styleAxis
	styleLabel
	styleCounter
	styleSelected
	styleHighlighted
	styleState
)

func (s cellStyle) style() lipgloss.Style {
	switch {
	case s >= styleState:
		return stateStyle(int64(s - styleState))
	case s == styleAxis:
		return axisStyle
	case s == styleLabel:
		return labelStyle
	case s == styleCounter:
		return counterStyle
	case s == styleSelected:
		return selectedStyle
	case s == styleHighlighted:
		return highlightedStyle
	default:
		return blankStyle
	}
}

// cells is one line of the plot area.
type cells struct {
	runes  []rune
	styles []cellStyle
}

func newCells(width int) cells {
	c := cells{runes: make([]rune, width), styles: make([]cellStyle, width)}
	for i := range c.runes {
		c.runes[i] = emptyRune
	}
	return c
}

func (c cells) set(x int, r rune, s cellStyle) {
	if x < 0 || x >= len(c.runes) {
		return
	}
	c.runes[x] = r
	c.styles[x] = s
}

// restyle changes the style of a cell, drawing a block if it is empty.
func (c cells) restyle(x int, s cellStyle) {
	if x < 0 || x >= len(c.runes) {
		return
	}
	if c.runes[x] == emptyRune {
		c.runes[x] = blockRune
	}
	c.styles[x] = s
}

// put writes text starting at x if it fits entirely.
func (c cells) put(x int, text string, s cellStyle) bool {
	runes := []rune(text)
	if x < 0 || x+len(runes) > len(c.runes) {
		return false
	}
	for i, r := range runes {
		c.set(x+i, r, s)
	}
	return true
}

// render styles runs of equal cells together.
func (c cells) render() string {
	var b strings.Builder
	for start := 0; start < len(c.runes); {
		end := start + 1
		for end < len(c.runes) && c.styles[end] == c.styles[start] {
			end++
		}
		text := string(c.runes[start:end])
		if c.styles[start] == styleBlank {
			b.WriteString(text)
		} else {
			b.WriteString(c.styles[start].style().Render(text))
		}
		start = end
	}
	return b.String()
}

// View renders the UI.
//
// Implements tea.Model.View.
func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	if m.help.IsActive() {
		return lipgloss.JoinVertical(lipgloss.Left, m.help.View(), m.renderStatusBar())
	}

	lines := []string{m.renderHeader()}
	lines = append(lines, m.renderAxis()...)
	lines = append(lines, m.renderRows()...)
	for len(lines) < m.height-StatusBarHeight {
		lines = append(lines, "")
	}
	lines = append(lines[:max(m.height-StatusBarHeight, 0)], m.renderStatusBar())

	return strings.Join(lines, "\n")
}

func (m *Model) renderHeader() string {
	vp := m.chart.Viewport()
	parts := []string{
		headerStyle.Render("threadline"),
		m.source,
		fmt.Sprintf("zoom %.4g col/ms", vp.Zoom()),
		fmt.Sprintf("tick %s", timeaxis.Duration(vp.TickUnit())),
		fmt.Sprintf("%d rows", len(m.chart.Items())),
		fmt.Sprintf("%d samples", m.chart.Timeline().Count()),
	}
	if vp.IsFit() {
		parts = append(parts, headerFlagStyle.Render("FIT"))
	}
	if vp.IsTrackingEnd() && !m.sourceDone {
		parts = append(parts, headerFlagStyle.Render("LIVE"))
	}
	if m.chart.AutoFitPending() {
		parts = append(parts, "auto-fit armed")
	}

	return lipgloss.NewStyle().MaxWidth(m.width).Render(" " + strings.Join(parts, " · "))
}

// nameCell renders text in the row name column.
func (m *Model) nameCell(text string, style lipgloss.Style, alignRight bool) string {
	width := m.config.NameWidth()
	text = runewidth.Truncate(text, width, "…")
	if alignRight {
		text = runewidth.FillLeft(text, width)
	} else {
		text = runewidth.FillRight(text, width)
	}
	return style.Render(text) + separatorStyle.Render("│")
}

func (m *Model) renderAxis() []string {
	vp := m.chart.Viewport()
	width := vp.Width()
	labels, ruler := newCells(width), newCells(width)
	for x := range width {
		ruler.set(x, rulerRune, styleAxis)
	}

	next := 0
	format := m.tickFormatter()
	for _, tick := range m.ticks() {
		ruler.set(tick.X, tickRune, styleAxis)
		text := format(tick.Time)
		if tick.X >= next && labels.put(tick.X, text, styleLabel) {
			next = tick.X + runewidth.StringWidth(text) + 1
		}
	}

	overlay := m.chart.Overlay()
	for _, x := range overlay.Columns(selection.LayerHighlighted) {
		ruler.set(x, hoverRune, styleHighlighted)
	}
	for _, x := range overlay.Columns(selection.LayerSelected) {
		ruler.set(x, selectedRune, styleSelected)
	}

	title := "time"
	if m.config.RelativeTime() {
		title = "elapsed"
	}
	return []string{
		m.nameCell(title, labelStyle, false) + labels.render(),
		m.nameCell("", labelStyle, false) + ruler.render(),
	}
}

// ticks returns the time axis ticks: multiples of the tick unit in wall
// time, or since the session start in relative mode.
func (m *Model) ticks() []viewport.Tick {
	vp := m.chart.Viewport()
	tl := m.chart.Timeline()
	if tl.Count() == 0 {
		return nil
	}
	if !m.config.RelativeTime() {
		return vp.TickMarks()
	}

	unit, width := vp.TickUnit(), vp.Width()
	if unit <= 0 || width <= 0 {
		return nil
	}
	start := tl.StartTime()
	elapsed := ceilDiv(vp.TimeAt(0, true)-start, unit) * unit

	var ticks []viewport.Tick
	for ; len(ticks) < maxTicks; elapsed += unit {
		x := vp.PixelX(start+elapsed, true)
		if x >= width {
			break
		}
		if x >= 0 {
			ticks = append(ticks, viewport.Tick{Time: start + elapsed, X: x})
		}
	}
	return ticks
}

func (m *Model) tickFormatter() func(t int64) string {
	vp := m.chart.Viewport()
	unit := vp.TickUnit()

	if m.config.RelativeTime() {
		start := m.chart.Timeline().StartTime()
		return func(t int64) string {
			return timeaxis.FormatElapsed(t-start, unit)
		}
	}

	dayMark := timeaxis.CrossesDay(vp.TimeAt(0, true), vp.TimeAt(vp.Width()-1, true), m.loc)
	return func(t int64) string {
		return timeaxis.FormatMark(t, unit, dayMark, m.loc)
	}
}

func (m *Model) renderRows() []string {
	width := m.chart.Viewport().Width()
	plot := make([]cells, m.Height())
	for y := range plot {
		plot[y] = newCells(width)
	}

	for _, slot := range m.slots {
		lines := plot[slot.top : slot.top+slot.height]
		if slot.item.Kind() == timeline.KindCounter {
			m.drawCounter(lines, slot)
		} else {
			m.drawState(lines[0], slot)
		}
	}

	m.drawMarkers(plot, selection.LayerHighlighted, styleHighlighted)
	m.drawMarkers(plot, selection.LayerSelected, styleSelected)

	out := make([]string, 0, len(plot))
	for _, slot := range m.slots {
		for dy := range slot.height {
			out = append(out, m.rowName(slot, dy)+plot[slot.top+dy].render())
		}
	}
	return out
}

// rowName renders line dy of a row's name column: the name, then the
// scale of counter rows.
func (m *Model) rowName(slot rowSlot, dy int) string {
	style := nameStyle
	if slot.item == m.FocusedRow() {
		style = focusedNameStyle
	}

	switch {
	case dy == 0:
		return m.nameCell(slot.item.Name(), style, false)
	case slot.last < 0:
		return m.nameCell("", labelStyle, true)
	case dy == 1:
		return m.nameCell(strconv.FormatInt(slot.hi, 10), labelStyle, true)
	case dy == slot.height-1:
		return m.nameCell(strconv.FormatInt(slot.lo, 10), labelStyle, true)
	default:
		return m.nameCell("", labelStyle, true)
	}
}

// drawState paints one cell per column in the color of the state sample
// covering it, up to the newest timestamp of the session.
func (m *Model) drawState(line cells, slot rowSlot) {
	if slot.last < 0 {
		return
	}
	vp := m.chart.Viewport()
	item := slot.item
	end := vp.PixelX(m.chart.Timeline().EndTime(), true)

	j := slot.first
	for x := 0; x < len(line.runes) && x <= end; x++ {
		for j < slot.last && vp.PixelX(item.TimeAt(j+1), true) <= x {
			j++
		}
		if vp.PixelX(item.TimeAt(j), true) > x {
			continue
		}
		code := item.ValueAt(j)
		if code < 0 {
			code = timeline.StateUnknown
		}
		line.set(x, blockRune, styleState+cellStyle(code))
	}
}

// drawCounter plots the visible samples of a counter row as a braille line
// scaled to the row's value range.
func (m *Model) drawCounter(lines []cells, slot rowSlot) {
	width, height := len(lines[0].runes), len(lines)
	if slot.last < 0 || width < 2 {
		return
	}
	vp := m.chart.Viewport()
	item := slot.item

	bGrid := graph.NewBrailleGrid(
		width, height,
		0, float64(width-1),
		float64(slot.lo), float64(slot.hi),
	)

	point := func(i int) canvas.Float64Point {
		return canvas.Float64Point{
			X: float64(vp.PixelX(item.TimeAt(i), true)),
			Y: float64(item.ValueAt(i)),
		}
	}

	maxX := float64(width - 1)
	prev := point(slot.first)
	if slot.first == slot.last && prev.X >= 0 && prev.X <= maxX {
		bGrid.Set(bGrid.GridPoint(prev))
	}
	for i := slot.first + 1; i <= slot.last; i++ {
		next := point(i)
		if p1, p2, ok := clipSegment(prev, next, maxX); ok {
			for _, p := range graph.GetLinePoints(bGrid.GridPoint(p1), bGrid.GridPoint(p2)) {
				bGrid.Set(p)
			}
		}
		prev = next
	}

	for y, row := range bGrid.BraillePatterns() {
		if y >= height {
			break
		}
		for x, r := range row {
			if r != brailleBlank {
				lines[y].set(x, r, styleCounter)
			}
		}
	}
}

// drawMarkers restyles the cells under the overlay's points of layer.
func (m *Model) drawMarkers(plot []cells, layer selection.Layer, style cellStyle) {
	for _, p := range m.chart.Overlay().Points(layer) {
		if p.Y >= 0 && p.Y < len(plot) {
			plot[p.Y].restyle(p.X, style)
		}
	}
}

func (m *Model) renderStatusBar() string {
	statusText := m.statusText()

	helpText := "h: help "
	if m.help.IsActive() {
		helpText = "h/esc: close help "
	}

	rightAligned := lipgloss.PlaceHorizontal(
		max(m.width-lipgloss.Width(statusText), 0),
		lipgloss.Right,
		helpText,
	)

	return statusBarStyle.
		Width(m.width).
		MaxWidth(m.width).
		Render(statusText + rightAligned)
}

func (m *Model) statusText() string {
	var parts []string

	if item := m.FocusedRow(); item != nil {
		parts = append(parts, m.describeSample(item))
	}
	if n := len(m.chart.Selection().Selected()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if n := len(m.chart.Selection().Timestamps()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d timestamps", n))
	}
	if m.sourceDone {
		if m.sourceErr != nil && !sampling.IsShutdown(m.sourceErr) {
			parts = append(parts, fmt.Sprintf("source failed: %v", m.sourceErr))
		} else {
			parts = append(parts, "source finished")
		}
	}

	if len(parts) == 0 {
		return " "
	}
	return " " + strings.Join(parts, " • ")
}

// describeSample describes the focused row's sample under the pointer, or
// its last visible sample.
func (m *Model) describeSample(item *timeline.TimeSeries) string {
	i := m.chart.Cursor(item).LastIndex()
	if m.hoverX >= 0 {
		if j, ok := m.chart.SampleAt(item, m.hoverX); ok {
			i = j
		}
	}
	if i < 0 {
		return item.Name()
	}

	v := item.ValueAt(i)
	if item.Kind() == timeline.KindState {
		return fmt.Sprintf("%s: %s", item.Name(), timeline.StateName(v))
	}
	return fmt.Sprintf("%s: %d", item.Name(), v)
}

// clipSegment clips the segment a-b to 0 <= X <= maxX.
func clipSegment(a, b canvas.Float64Point, maxX float64) (canvas.Float64Point, canvas.Float64Point, bool) {
	if a.X > b.X {
		a, b = b, a
	}
	if b.X < 0 || a.X > maxX {
		return a, b, false
	}
	at := func(x float64) canvas.Float64Point {
		return canvas.Float64Point{X: x, Y: a.Y + (b.Y-a.Y)*(x-a.X)/(b.X-a.X)}
	}
	lo, hi := a, b
	if a.X < 0 {
		lo = at(0)
	}
	if b.X > maxX {
		hi = at(maxX)
	}
	return lo, hi, true
}

// niceRange widens [lo, hi] to multiples of a {1,2,5}×10^k step that fits
// about one step per line.
func niceRange(lo, hi int64, lines int) (int64, int64) {
	if hi <= lo {
		return lo, hi
	}
	unit := timeaxis.DecimalUnit(float64(max(lines, 1))/float64(hi-lo), 1)
	if unit <= 0 {
		return lo, hi
	}
	return floorDiv(lo, unit) * unit, ceilDiv(hi, unit) * unit
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	return -floorDiv(-a, b)
}
