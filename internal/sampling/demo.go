package sampling

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/wandb/threadline/internal/timeline"
)

type DemoParams struct {
	// Threads is the number of synthetic thread rows. Defaults to 6.
	Threads int

	// Interval between batches. Defaults to 200ms.
	Interval time.Duration

	// Seed makes the generated data reproducible.
	Seed int64
}

// DemoSource generates thread states and two counters from a seeded
// random walk.
type DemoSource struct {
	interval time.Duration
	rng      *rand.Rand
	states   []int64
	cpu      int64
	heap     int64
}

func NewDemoSource(params DemoParams) *DemoSource {
	if params.Threads <= 0 {
		params.Threads = 6
	}
	if params.Interval <= 0 {
		params.Interval = 200 * time.Millisecond
	}

	s := &DemoSource{
		interval: params.Interval,
		rng:      rand.New(rand.NewSource(params.Seed)),
		states:   make([]int64, params.Threads),
		heap:     64,
	}
	for i := range s.states {
		s.states[i] = timeline.StateRunning
	}
	return s
}

func (s *DemoSource) Rows() []timeline.Descriptor {
	rows := make([]timeline.Descriptor, 0, len(s.states)+2)
	for i := range s.states {
		rows = append(rows, timeline.Descriptor{
			Name: fmt.Sprintf("worker-%d", i+1),
			Kind: timeline.KindState,
		})
	}
	return append(rows,
		timeline.Descriptor{Name: "cpu %", Kind: timeline.KindCounter},
		timeline.Descriptor{Name: "heap MiB", Kind: timeline.KindCounter},
	)
}

var demoStates = []int64{
	timeline.StateRunning,
	timeline.StateRunning,
	timeline.StateSleeping,
	timeline.StateWaiting,
	timeline.StateBlocked,
}

// Next returns the batch for timestamp ts and advances the walk.
func (s *DemoSource) Next(ts int64) timeline.Batch {
	values := make([]int64, 0, len(s.states)+2)
	running := int64(0)
	for i := range s.states {
		if s.rng.Intn(5) == 0 {
			s.states[i] = demoStates[s.rng.Intn(len(demoStates))]
		}
		if s.states[i] == timeline.StateRunning {
			running++
		}
		values = append(values, s.states[i])
	}

	target := 100 * running / int64(len(s.states))
	s.cpu += (target-s.cpu)/2 + int64(s.rng.Intn(7)) - 3
	s.cpu = min(max(s.cpu, 0), 100)

	s.heap += int64(s.rng.Intn(9)) - 3
	if s.heap > 512 {
		s.heap = 64
	}
	s.heap = max(s.heap, 16)

	return timeline.Batch{Timestamp: ts, Values: append(values, s.cpu, s.heap)}
}

func (s *DemoSource) Run(ctx context.Context, out chan<- timeline.Batch) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := send(ctx, out, s.Next(now.UnixMilli())); err != nil {
				return err
			}
		}
	}
}
