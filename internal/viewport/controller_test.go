package viewport_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandb/threadline/internal/viewport"
)

func TestContentWidthAtDefaultZoom(t *testing.T) {
	f := newFixture(t, viewport.DefaultZoom, 300, rangeTimes(0, 10_000, 100)...)

	assert.Equal(t, 300, f.vp.ContentWidth())
	assert.True(t, f.vp.IsTrackingEnd())
	assert.Equal(t, f.row.Count()-1, f.vp.Cursor(f.row).LastIndex())
}

func TestScrollingToEndStartsTracking(t *testing.T) {
	f := newFixture(t, viewport.DefaultZoom, 300, rangeTimes(0, 20_000, 100)...)
	f.vp.SetOffset(0)
	cur := f.vp.Cursor(f.row)

	require.False(t, f.vp.IsTrackingEnd())
	assert.Equal(t, 99, cur.LastIndex())

	f.vp.ScrollToEnd()

	assert.Equal(t, 300, f.vp.Offset())
	assert.True(t, f.vp.IsTrackingEnd())
	assert.Equal(t, cur.MaxIndex(), cur.LastIndex())
}

func TestTrackingFollowsAppends(t *testing.T) {
	f := newFixture(t, 0.1, 100, rangeTimes(0, 2_000, 100)...)
	require.True(t, f.vp.IsTrackingEnd())

	for ts := int64(2_100); ts <= 5_000; ts += 100 {
		f.append(ts)
		require.True(t, f.vp.IsTrackingEnd())
		require.Equal(t, f.vp.ContentWidth()-100, f.vp.Offset())
	}
}

func TestScrolledBackViewStaysPut(t *testing.T) {
	f := newFixture(t, 0.1, 100, rangeTimes(0, 5_000, 100)...)
	f.vp.SetOffset(120)

	f.append(5_100)
	f.append(5_200)

	assert.Equal(t, 120, f.vp.Offset())
	assert.False(t, f.vp.IsTrackingEnd())
}

func TestPixelXRounding(t *testing.T) {
	f := newFixture(t, 0.03, 300, 1_000, 11_000)

	assert.Equal(t, 0, f.vp.PixelX(1_000, false))
	assert.Equal(t, 2, f.vp.PixelX(1_060, false))
	assert.Equal(t, 1, f.vp.PixelX(1_049, false))
	assert.Equal(t, 300, f.vp.PixelX(11_000, false))
}

func TestPixelXAndTimeAtAreInverse(t *testing.T) {
	f := newFixture(t, 0.5, 200, rangeTimes(0, 10_000, 100)...)
	f.vp.SetOffset(900)

	for x := 0; x < 200; x += 7 {
		assert.Equal(t, x, f.vp.PixelX(f.vp.TimeAt(x, true), true))
	}
}

func TestIndexAtXMatchesPixelX(t *testing.T) {
	f := newFixture(t, 0.3, 100, 0, 4, 1_000, 1_003, 1_010)
	f.vp.SetOffset(0)

	assert.Equal(t, -1, f.vp.IndexAtX(f.row, -1))
	assert.Equal(t, 0, f.vp.IndexAtX(f.row, 0))
	assert.Equal(t, 1, f.vp.IndexAtX(f.row, 1))
	assert.Equal(t, 1, f.vp.IndexAtX(f.row, 99))

	f.vp.SetOffset(250)
	for i := 2; i < f.row.Count(); i++ {
		x := f.vp.PixelX(f.row.TimeAt(i), true)
		j := f.vp.IndexAtX(f.row, x)
		assert.Equal(t, x, f.vp.PixelX(f.row.TimeAt(j), true), "sample %d", i)
		assert.GreaterOrEqual(t, j, i)
	}
}

func TestOffsetIsClamped(t *testing.T) {
	f := newFixture(t, 0.1, 100, rangeTimes(0, 5_000, 100)...)

	f.vp.SetOffset(-50)
	assert.Equal(t, 0, f.vp.Offset())

	f.vp.SetOffset(10_000)
	assert.Equal(t, f.vp.ContentWidth()-100, f.vp.Offset())
}

func TestZoomInKeepsCentre(t *testing.T) {
	f := newFixture(t, 0.1, 100, rangeTimes(0, 10_000, 100)...)
	f.vp.SetOffset(400)
	centre := f.vp.TimeAt(50, true)

	f.vp.ZoomIn()

	assert.InDelta(t, 0.12, f.vp.Zoom(), 1e-12)
	assert.InDelta(t, centre, f.vp.TimeAt(50, true), 20)
}

func TestZoomStaysWithinBounds(t *testing.T) {
	f := newFixture(t, viewport.DefaultZoom, 300, rangeTimes(0, 100_000, 500)...)
	rng := rand.New(rand.NewSource(42))

	for range 1_000 {
		if rng.Intn(2) == 0 {
			f.vp.ZoomIn()
		} else {
			f.vp.ZoomOut()
		}
		lo, hi, ok := f.vp.ZoomBounds()
		require.True(t, ok)
		require.GreaterOrEqual(t, f.vp.Zoom(), lo)
		require.LessOrEqual(t, f.vp.Zoom(), hi)
	}
}

func TestZoomActionsAtBounds(t *testing.T) {
	f := newFixture(t, viewport.DefaultZoom, 300, rangeTimes(0, 100_000, 500)...)

	var actions viewport.ZoomActions
	for range 100 {
		actions = f.vp.ZoomIn()
	}
	assert.Equal(t, viewport.MaxZoom, f.vp.Zoom())
	assert.False(t, actions.ZoomIn)
	assert.True(t, actions.ZoomOut)

	for range 200 {
		actions = f.vp.ZoomOut()
	}
	lo, _, _ := f.vp.ZoomBounds()
	assert.Equal(t, lo, f.vp.Zoom())
	assert.InDelta(t, 100, f.vp.ContentWidth(), 1)
	assert.True(t, actions.ZoomIn)
	assert.False(t, actions.ZoomOut)

	zoom := f.vp.Zoom()
	f.vp.ZoomOut()
	assert.Equal(t, zoom, f.vp.Zoom())
}

func TestZoomBelowLowerBoundIsClamped(t *testing.T) {
	f := newFixture(t, 0.03, 300, rangeTimes(0, 1_000, 100)...)
	lo, hi, ok := f.vp.ZoomBounds()
	require.True(t, ok)
	require.InDelta(t, 0.1, lo, 1e-12)
	require.Less(t, f.vp.Zoom(), lo)

	var actions viewport.ZoomActions
	for range 5 {
		actions = f.vp.ZoomOut()
	}

	assert.InDelta(t, lo, f.vp.Zoom(), 1e-12)
	assert.LessOrEqual(t, f.vp.Zoom(), hi)
	assert.Equal(t, viewport.ZoomActions{ZoomIn: true, ZoomOut: false}, actions)
}

func TestZoomInBelowLowerBoundStartsFromBound(t *testing.T) {
	f := newFixture(t, 0.03, 300, rangeTimes(0, 1_000, 100)...)

	f.vp.ZoomIn()
	assert.InDelta(t, 0.1, f.vp.Zoom(), 1e-12)

	f.vp.ZoomIn()
	assert.InDelta(t, 0.12, f.vp.Zoom(), 1e-12)
}

func TestZoomActionsDisabledWithoutData(t *testing.T) {
	f := newFixture(t, viewport.DefaultZoom, 300)

	assert.Equal(t, viewport.ZoomActions{}, f.vp.ZoomIn())
	assert.Equal(t, viewport.DefaultZoom, f.vp.Zoom())

	f.append(10)
	assert.Equal(t, viewport.ZoomActions{}, f.vp.Actions())
}

func TestFitMode(t *testing.T) {
	f := newFixture(t, 0.5, 200, rangeTimes(0, 1_000, 100)...)
	f.vp.SetOffset(150)

	actions := f.vp.SetFit(true)

	assert.Equal(t, viewport.ZoomActions{}, actions)
	assert.InDelta(t, 0.2, f.vp.Zoom(), 1e-12)
	assert.Equal(t, 0, f.vp.Offset())
	assert.Equal(t, 200, f.vp.ContentWidth())

	f.append(2_000)
	assert.InDelta(t, 0.1, f.vp.Zoom(), 1e-12)
	assert.Equal(t, f.row.Count()-1, f.vp.Cursor(f.row).LastIndex())

	f.vp.SetWidth(400)
	assert.InDelta(t, 0.2, f.vp.Zoom(), 1e-12)

	f.vp.SetOffset(30)
	assert.Equal(t, 0, f.vp.Offset())

	f.vp.SetFit(false)
	assert.Equal(t, 0.5, f.vp.Zoom())
	assert.True(t, f.vp.IsTrackingEnd())
}

func TestFitWithSingleSampleKeepsZoom(t *testing.T) {
	f := newFixture(t, 0.5, 200, 1_000)

	f.vp.SetFit(true)

	assert.Equal(t, 0.5, f.vp.Zoom())
	assert.False(t, math.IsInf(f.vp.Zoom(), 0))
}

func TestSetZoomForSpan(t *testing.T) {
	f := newFixture(t, 0.5, 200, rangeTimes(0, 10_000, 100)...)
	f.vp.SetFit(true)

	f.vp.SetZoomForSpan(4_000)

	assert.False(t, f.vp.IsFit())
	assert.InDelta(t, 0.05, f.vp.Zoom(), 1e-12)
	assert.True(t, f.vp.IsTrackingEnd())
}

func TestTickMarks(t *testing.T) {
	f := newFixture(t, 1, 200, rangeTimes(150, 2_000, 50)...)

	assert.Equal(t, int64(250), f.vp.TickUnit())
	assert.Equal(t, int64(250), f.vp.FirstTickMark(false))

	f.vp.SetOffset(300)
	assert.Equal(t, int64(500), f.vp.FirstTickMark(true))

	ticks := f.vp.TickMarks()
	require.Len(t, ticks, 1)
	assert.Equal(t, viewport.Tick{Time: 500, X: 50}, ticks[0])
}

func TestTickUnitFollowsZoom(t *testing.T) {
	f := newFixture(t, viewport.DefaultZoom, 300, rangeTimes(0, 1_000_000, 1_000)...)

	prev := f.vp.TickUnit()
	for range 30 {
		f.vp.ZoomIn()
		require.LessOrEqual(t, f.vp.TickUnit(), prev)
		prev = f.vp.TickUnit()
	}
}

func TestResetKeepsCursors(t *testing.T) {
	f := newFixture(t, 0.1, 100, rangeTimes(0, 5_000, 100)...)
	cur := f.vp.Cursor(f.row)
	f.vp.ZoomIn()

	f.model.Reset()
	f.vp.Reset()

	assert.Equal(t, viewport.LastVisible{Kind: viewport.NoData}, cur.LastVisible())
	assert.Equal(t, -1, cur.LastIndex())
	assert.Equal(t, 0.1, f.vp.Zoom())
	assert.Equal(t, 1, f.vp.CursorCount())

	f.append(7_000)
	assert.Equal(t, viewport.LastVisible{Kind: viewport.AtIndex, Index: 0}, cur.LastVisible())
	assert.Same(t, cur, f.vp.Cursor(f.row))
}

func TestRemoveCursor(t *testing.T) {
	f := newFixture(t, 0.1, 100, 0, 100)
	cur := f.vp.Cursor(f.row)

	f.vp.RemoveCursor(f.row)

	assert.Equal(t, 0, f.vp.CursorCount())
	assert.NotSame(t, cur, f.vp.Cursor(f.row))
}

func TestWidthZeroClassifiesEverythingRight(t *testing.T) {
	f := newFixture(t, 0.1, 100, rangeTimes(0, 5_000, 100)...)
	f.vp.SetOffset(0)
	f.vp.SetWidth(0)

	assert.Equal(t, viewport.Right, f.vp.Cursor(f.row).Classify(0))
}
