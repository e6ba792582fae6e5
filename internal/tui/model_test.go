package tui_test

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandb/threadline/internal/chart"
	"github.com/wandb/threadline/internal/observabilitytest"
	"github.com/wandb/threadline/internal/selection"
	"github.com/wandb/threadline/internal/timeline"
	"github.com/wandb/threadline/internal/tui"
)

const (
	startTime  = 1_000_000
	termWidth  = 120
	termHeight = 30

	// plotWidth is termWidth minus the default name column and separator.
	plotWidth = termWidth - tui.DefaultNameWidth - 1
)

type modelTest struct {
	model *tui.Model
	chart *chart.Chart
	fs    afero.Fs
}

func (mt *modelTest) update(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	m, cmd := mt.model.Update(msg)
	require.Same(t, mt.model, m)
	return cmd
}

func (mt *modelTest) key(t *testing.T, s string) tea.Cmd {
	t.Helper()
	switch s {
	case "left":
		return mt.update(t, tea.KeyMsg{Type: tea.KeyLeft})
	case "right":
		return mt.update(t, tea.KeyMsg{Type: tea.KeyRight})
	case "home":
		return mt.update(t, tea.KeyMsg{Type: tea.KeyHome})
	case "end":
		return mt.update(t, tea.KeyMsg{Type: tea.KeyEnd})
	case "up":
		return mt.update(t, tea.KeyMsg{Type: tea.KeyUp})
	case "down":
		return mt.update(t, tea.KeyMsg{Type: tea.KeyDown})
	case "space":
		return mt.update(t, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	default:
		return mt.update(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	}
}

func (mt *modelTest) row(name string) *timeline.TimeSeries {
	for _, item := range mt.chart.Items() {
		if item.Name() == name {
			return item
		}
	}
	return nil
}

// newModelTest creates a 120x30 view over three rows (two state rows and a
// counter) at 0.1 columns per millisecond, with 21 samples 100ms apart so
// that the live edge is 99 columns past the start.
func newModelTest(t *testing.T, height int) *modelTest {
	t.Helper()

	c, err := chart.New(chart.Params{
		Rows: []timeline.Descriptor{
			{Name: "main", Kind: timeline.KindState},
			{Name: "gc", Kind: timeline.KindState},
			{Name: "heap", Kind: timeline.KindCounter},
		},
		AutoFitPeriod:   -1,
		InitialZoom:     0.1,
		MinTickDistance: tui.DefaultTickSpacing,
		Logger:          observabilitytest.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	fs := afero.NewMemMapFs()
	mt := &modelTest{
		model: tui.NewModel(tui.Params{
			Chart:    c,
			Config:   tui.NewConfigManager(fs, tui.ConfigName, observabilitytest.NewTestLogger(t)),
			Source:   "test",
			Location: time.UTC,
			Logger:   observabilitytest.NewTestLogger(t),
		}),
		chart: c,
		fs:    fs,
	}

	mt.update(t, tea.WindowSizeMsg{Width: termWidth, Height: height})
	var batches []timeline.Batch
	for i := range 21 {
		batches = append(batches, timeline.Batch{
			Timestamp: startTime + int64(i)*100,
			Values:    []int64{int64(i%3 + 1), timeline.StateSleeping, int64(i * 10)},
		})
	}
	mt.update(t, tui.BatchMsg{Batches: batches})
	return mt
}

func TestWindowSizeSetsPlotWidth(t *testing.T) {
	mt := newModelTest(t, termHeight)

	assert.Equal(t, plotWidth, mt.chart.Viewport().Width())
	assert.Equal(t, 99, mt.chart.Viewport().Offset())
	assert.Equal(t, termHeight-4, mt.model.Height())
}

func TestBatchesAreDrainedUntilSourceStops(t *testing.T) {
	c, err := chart.New(chart.Params{
		Rows:          []timeline.Descriptor{{Name: "main"}},
		AutoFitPeriod: -1,
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	queue := make(chan timeline.Batch, 4)
	done := make(chan error, 1)
	m := tui.NewModel(tui.Params{Chart: c, Batches: queue, Done: done})

	queue <- timeline.Batch{Timestamp: 1, Values: []int64{1}}
	queue <- timeline.Batch{Timestamp: 2, Values: []int64{2}}
	require.NotNil(t, m.Init())

	var cmd tea.Cmd
	_, cmd = m.Update(tui.BatchMsg{Batches: []timeline.Batch{{Timestamp: 0, Values: []int64{0}}}})
	require.NotNil(t, cmd)

	got := cmd()
	require.IsType(t, tui.BatchMsg{}, got)
	assert.Len(t, got.(tui.BatchMsg).Batches, 2)
	_, cmd = m.Update(got)
	assert.Equal(t, 3, c.Timeline().Count())

	done <- nil
	close(queue)
	got = cmd()
	assert.Equal(t, tui.SourceDoneMsg{}, got)

	m.Update(got)
	finished, err := m.SourceDone()
	assert.True(t, finished)
	assert.NoError(t, err)
}

func TestZoomKeys(t *testing.T) {
	mt := newModelTest(t, termHeight)
	vp := mt.chart.Viewport()

	mt.key(t, "+")
	assert.InDelta(t, 0.12, vp.Zoom(), 1e-9)

	mt.key(t, "-")
	mt.key(t, "-")
	assert.Less(t, vp.Zoom(), 0.1)

	mt.key(t, "f")
	assert.True(t, vp.IsFit())
	mt.key(t, "f")
	assert.False(t, vp.IsFit())
}

func TestPanKeys(t *testing.T) {
	mt := newModelTest(t, termHeight)
	vp := mt.chart.Viewport()
	step := plotWidth * tui.DefaultPanStepPercent / 100

	mt.key(t, "left")
	assert.Equal(t, 99-step, vp.Offset())

	mt.key(t, "right")
	assert.Equal(t, 99, vp.Offset())

	mt.key(t, "home")
	assert.Equal(t, 0, vp.Offset())

	mt.key(t, "end")
	assert.Equal(t, 99, vp.Offset())
}

func TestSpaceSelectsLastVisibleSampleOfFocusedRow(t *testing.T) {
	mt := newModelTest(t, termHeight)
	assert.Equal(t, "main", mt.model.FocusedRow().Name())

	mt.key(t, "down")
	gc := mt.model.FocusedRow()
	require.Equal(t, "gc", gc.Name())

	mt.key(t, "space")

	last := mt.chart.Cursor(gc).LastIndex()
	require.GreaterOrEqual(t, last, 0)
	assert.Equal(t,
		[]selection.Key{{Row: gc.ID(), Index: last}},
		mt.chart.Selection().Selected())
	assert.Positive(t, mt.model.Repaints(selection.LayerSelected))

	mt.key(t, "x")
	assert.Empty(t, mt.chart.Selection().Selected())
}

func TestTimestampKeySelectsFocusedSample(t *testing.T) {
	mt := newModelTest(t, termHeight)
	focused := mt.model.FocusedRow()

	mt.key(t, "t")

	want := focused.Start() + mt.chart.Cursor(focused).LastIndex()
	assert.Equal(t, []int{want}, mt.chart.Selection().Timestamps())
	assert.Len(t, mt.chart.Overlay().Columns(selection.LayerSelected), 1)
}

func TestFocusStaysInRange(t *testing.T) {
	mt := newModelTest(t, termHeight)

	mt.key(t, "up")
	assert.Equal(t, "main", mt.model.FocusedRow().Name())

	for range 5 {
		mt.key(t, "down")
	}
	assert.Equal(t, "heap", mt.model.FocusedRow().Name())
}

func TestRowYMapsRowsToLines(t *testing.T) {
	mt := newModelTest(t, termHeight)

	assert.Equal(t, 0, mt.model.RowY(mt.row("main"), timeline.StateRunning))
	assert.Equal(t, 1, mt.model.RowY(mt.row("gc"), timeline.StateRunning))

	heap := mt.row("heap")
	top, bottom := 2, 2+tui.DefaultCounterRowHeight-1
	assert.Equal(t, top, mt.model.RowY(heap, 1<<40))
	assert.Equal(t, bottom, mt.model.RowY(heap, -(1 << 40)))
}

func TestFocusScrollsRowsIntoView(t *testing.T) {
	// Four row lines: main, gc and two lines short of heap.
	mt := newModelTest(t, 8)
	heap := mt.row("heap")
	assert.Equal(t, -1, mt.model.RowY(heap, 0))

	mt.key(t, "down")
	mt.key(t, "down")

	assert.Equal(t, -1, mt.model.RowY(mt.row("main"), 0))
	assert.Equal(t, 0, mt.model.RowY(mt.row("gc"), 0))
	assert.Equal(t, 3, mt.model.RowY(heap, -(1 << 40)))
}

func TestRelativeTimeKeyPersists(t *testing.T) {
	mt := newModelTest(t, termHeight)

	mt.key(t, "r")

	data, err := afero.ReadFile(mt.fs, tui.ConfigName)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"relative_time": true`)
}

func TestNameWidthKeysResizePlot(t *testing.T) {
	mt := newModelTest(t, termHeight)

	mt.key(t, ">")
	assert.Equal(t, plotWidth-2, mt.chart.Viewport().Width())

	mt.key(t, "<")
	mt.key(t, "<")
	assert.Equal(t, plotWidth+2, mt.chart.Viewport().Width())
}

func TestMouse(t *testing.T) {
	mt := newModelTest(t, termHeight)
	mainRow := mt.row("main")
	x := 50
	screenX := tui.DefaultNameWidth + 1 + x
	rowsTop := tui.HeaderHeight + tui.AxisHeight

	// Column 50 is 1490ms into the session: sample 14.
	i, ok := mt.chart.SampleAt(mainRow, x)
	require.True(t, ok)
	require.Equal(t, 14, i)

	mt.update(t, tea.MouseMsg{X: screenX, Y: rowsTop, Action: tea.MouseActionMotion})
	assert.Equal(t,
		[]selection.Key{{Row: mainRow.ID(), Index: 14}},
		mt.chart.Selection().Highlighted())

	mt.update(t, tea.MouseMsg{
		X:      screenX,
		Y:      rowsTop,
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft,
	})
	assert.Equal(t,
		[]selection.Key{{Row: mainRow.ID(), Index: 14}},
		mt.chart.Selection().Selected())

	mt.update(t, tea.MouseMsg{
		X:      screenX,
		Y:      tui.HeaderHeight,
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft,
	})
	assert.Equal(t, []int{14}, mt.chart.Selection().Timestamps())

	mt.update(t, tea.MouseMsg{X: 0, Y: rowsTop, Action: tea.MouseActionMotion})
	assert.Empty(t, mt.chart.Selection().Highlighted())

	mt.update(t, tea.MouseMsg{
		X:      screenX,
		Y:      rowsTop,
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonWheelUp,
	})
	assert.InDelta(t, 0.12, mt.chart.Viewport().Zoom(), 1e-9)
}

func TestView(t *testing.T) {
	mt := newModelTest(t, termHeight)

	view := mt.model.View()
	lines := strings.Split(view, "\n")

	assert.Len(t, lines, termHeight)
	assert.Contains(t, lines[0], "threadline")
	assert.Contains(t, lines[0], "LIVE")
	assert.Contains(t, lines[0], "tick 250ms")
	for _, name := range []string{"main", "gc", "heap"} {
		assert.Contains(t, view, name)
	}
	// Start is 00:16:40 UTC; the first 250ms tick in view is at 1000ms.
	assert.Contains(t, lines[1], "00:16:41.000")
	assert.Contains(t, lines[len(lines)-1], "main: sleeping")
}

func TestViewRelativeTime(t *testing.T) {
	mt := newModelTest(t, termHeight)
	mt.key(t, "r")

	lines := strings.Split(mt.model.View(), "\n")

	assert.Contains(t, lines[1], "elapsed")
	assert.Contains(t, lines[1], "0:00:01.000")
}

func TestHelpToggle(t *testing.T) {
	mt := newModelTest(t, termHeight)

	mt.key(t, "h")
	assert.Contains(t, mt.model.View(), "Toggle fit to window")

	// Keys go to the help screen while it is open.
	mt.key(t, "+")
	assert.InDelta(t, 0.1, mt.chart.Viewport().Zoom(), 1e-9)

	mt.key(t, "?")
	assert.NotContains(t, mt.model.View(), "Toggle fit to window")
}

func TestQuit(t *testing.T) {
	mt := newModelTest(t, termHeight)

	cmd := mt.key(t, "q")

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
