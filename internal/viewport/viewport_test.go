package viewport_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wandb/threadline/internal/observabilitytest"
	"github.com/wandb/threadline/internal/timeline"
	"github.com/wandb/threadline/internal/viewport"
)

type fixture struct {
	model *timeline.ItemsModel
	vp    *viewport.Controller
	row   *timeline.TimeSeries
}

// newFixture creates a one-row model with samples at the given times and a
// controller of the given zoom and width.
func newFixture(t *testing.T, zoom float64, width int, times ...int64) *fixture {
	t.Helper()
	logger := observabilitytest.NewTestLogger(t)

	row := timeline.NewTimeSeries(timeline.Descriptor{Name: "main"})
	model, err := timeline.NewItemsModel(
		timeline.NewTimeline(),
		[]*timeline.TimeSeries{row},
		timeline.ItemsModelParams{Logger: logger},
	)
	require.NoError(t, err)

	vp := viewport.NewController(viewport.Params{
		Range:       model.Timeline(),
		InitialZoom: zoom,
		Logger:      logger,
	})
	vp.SetWidth(width)

	f := &fixture{model: model, vp: vp, row: row}
	for _, ts := range times {
		f.append(ts)
	}
	return f
}

func (f *fixture) append(ts int64) {
	values := make([]int64, f.model.Len())
	f.model.Append(ts, values)
	f.vp.Update()
}

func rangeTimes(from, to, step int64) []int64 {
	var out []int64
	for ts := from; ts <= to; ts += step {
		out = append(out, ts)
	}
	return out
}
