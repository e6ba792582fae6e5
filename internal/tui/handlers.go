package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wandb/threadline/internal/timeline"
)

// nameWidthStep is how much < and > change the name column.
const nameWidthStep = 2

// handleKeyMsg processes keyboard events using the centralized key bindings.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if handler, ok := m.keyMap[normalizeKey(msg.String())]; ok && handler != nil {
		return handler(m, msg)
	}
	return nil
}

func (m *Model) handleQuit(tea.KeyMsg) tea.Cmd {
	m.logger.Debug("model: quit requested")
	return tea.Quit
}

func (m *Model) handleZoomIn(tea.KeyMsg) tea.Cmd {
	m.chart.ZoomIn()
	return nil
}

func (m *Model) handleZoomOut(tea.KeyMsg) tea.Cmd {
	m.chart.ZoomOut()
	return nil
}

func (m *Model) handleToggleFit(tea.KeyMsg) tea.Cmd {
	m.chart.ToggleFit()
	return nil
}

// panStep is the pan distance in columns.
func (m *Model) panStep() int {
	return max(m.chart.Viewport().Width()*m.config.PanStepPercent()/100, 1)
}

func (m *Model) handlePanLeft(tea.KeyMsg) tea.Cmd {
	m.chart.Pan(-m.panStep())
	return nil
}

func (m *Model) handlePanRight(tea.KeyMsg) tea.Cmd {
	m.chart.Pan(m.panStep())
	return nil
}

func (m *Model) handleScrollToStart(tea.KeyMsg) tea.Cmd {
	m.chart.ScrollToStart()
	return nil
}

func (m *Model) handleScrollToEnd(tea.KeyMsg) tea.Cmd {
	m.chart.ScrollToEnd()
	return nil
}

func (m *Model) handleFocusUp(tea.KeyMsg) tea.Cmd {
	if m.focus > 0 {
		m.focus--
	}
	return nil
}

func (m *Model) handleFocusDown(tea.KeyMsg) tea.Cmd {
	if m.focus < len(m.chart.Items())-1 {
		m.focus++
	}
	return nil
}

func (m *Model) handleToggleSample(tea.KeyMsg) tea.Cmd {
	if item := m.FocusedRow(); item != nil {
		m.chart.ToggleLastVisible(item)
	}
	return nil
}

// handleToggleTimestamp toggles the timestamp under the pointer, or that of
// the focused row's last visible sample.
func (m *Model) handleToggleTimestamp(tea.KeyMsg) tea.Cmd {
	if m.hoverX >= 0 {
		m.chart.ToggleTimestampAt(m.hoverX)
		return nil
	}

	item := m.FocusedRow()
	if item == nil {
		return nil
	}
	if i := m.chart.Cursor(item).LastIndex(); i >= 0 {
		m.chart.Selection().ToggleTimestamp(item.Start() + i)
	}
	return nil
}

func (m *Model) handleClearSelection(tea.KeyMsg) tea.Cmd {
	m.chart.ClearSelection()
	return nil
}

func (m *Model) handleToggleRelativeTime(tea.KeyMsg) tea.Cmd {
	if err := m.config.SetRelativeTime(!m.config.RelativeTime()); err != nil {
		m.logger.Error(fmt.Sprintf("model: failed to save config: %v", err))
	}
	return nil
}

func (m *Model) handleNarrowNames(tea.KeyMsg) tea.Cmd {
	return m.resizeNames(-nameWidthStep)
}

func (m *Model) handleWidenNames(tea.KeyMsg) tea.Cmd {
	return m.resizeNames(nameWidthStep)
}

func (m *Model) resizeNames(delta int) tea.Cmd {
	width := clamp(m.config.NameWidth()+delta, MinNameWidth, MaxNameWidth)
	if width == m.config.NameWidth() {
		return nil
	}
	if err := m.config.SetNameWidth(width); err != nil {
		m.logger.Error(fmt.Sprintf("model: failed to save config: %v", err))
		return nil
	}
	m.chart.SetWidth(m.plotWidth())
	return nil
}

// handleMouseMsg maps pointer events onto the plot: motion highlights,
// a left click selects, the wheel zooms.
func (m *Model) handleMouseMsg(msg tea.MouseMsg) tea.Cmd {
	x := msg.X - m.nameColumnWidth()
	if x < 0 || x >= m.chart.Viewport().Width() {
		x = -1
	}
	item, onAxis := m.hitTest(msg.Y)

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.chart.ZoomIn()
	case msg.Button == tea.MouseButtonWheelDown:
		m.chart.ZoomOut()

	case msg.Action == tea.MouseActionMotion:
		m.hoverX = x
		if x < 0 {
			item = nil
		}
		m.chart.HighlightAt(item, x)

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if x < 0 {
			return nil
		}
		switch {
		case item != nil:
			m.chart.ToggleSampleAt(item, x)
		case onAxis:
			m.chart.ToggleTimestampAt(x)
		}
	}
	return nil
}

// hitTest returns the row drawn on screen line y, and whether y is on the
// time axis.
func (m *Model) hitTest(y int) (*timeline.TimeSeries, bool) {
	if y >= HeaderHeight && y < m.rowsTop() {
		return nil, true
	}
	y -= m.rowsTop()
	for _, slot := range m.slots {
		if y >= slot.top && y < slot.top+slot.height {
			return slot.item, false
		}
	}
	return nil, false
}
