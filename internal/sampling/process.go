package sampling

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/wandb/threadline/internal/observability"
	"github.com/wandb/threadline/internal/timeline"
)

type ProcessParams struct {
	Logger *observability.CoreLogger

	// Interval between samples. Defaults to 1s.
	Interval time.Duration
}

// ProcessSource samples operating system processes: one state row per
// process, plus total threads, total resident memory and system CPU.
type ProcessSource struct {
	procs    []*process.Process
	names    []string
	interval time.Duration
	logger   *observability.CoreLogger
}

// NewProcessSource looks up the processes to sample. It fails if any of
// them does not exist.
func NewProcessSource(
	ctx context.Context,
	pids []int32,
	params ProcessParams,
) (*ProcessSource, error) {
	if len(pids) == 0 {
		return nil, errors.New("sampling: no pids to sample")
	}
	if params.Interval <= 0 {
		params.Interval = time.Second
	}

	s := &ProcessSource{
		interval: params.Interval,
		logger:   observability.OrNoOp(params.Logger),
	}
	for _, pid := range pids {
		proc, err := process.NewProcessWithContext(ctx, pid)
		if err != nil {
			return nil, fmt.Errorf("sampling: pid %d: %w", pid, err)
		}

		name, err := proc.NameWithContext(ctx)
		if err != nil || name == "" {
			name = "?"
		}

		s.procs = append(s.procs, proc)
		s.names = append(s.names, fmt.Sprintf("%d %s", pid, name))
	}
	return s, nil
}

func (s *ProcessSource) Rows() []timeline.Descriptor {
	rows := make([]timeline.Descriptor, 0, len(s.procs)+3)
	for _, name := range s.names {
		rows = append(rows, timeline.Descriptor{Name: name, Kind: timeline.KindState})
	}
	return append(rows,
		timeline.Descriptor{Name: "threads", Kind: timeline.KindCounter},
		timeline.Descriptor{Name: "rss MiB", Kind: timeline.KindCounter},
		timeline.Descriptor{Name: "cpu %", Kind: timeline.KindCounter},
	)
}

// Sample reads every process once.
//
// Processes that cannot be read report StateUnknown; the failure is
// logged rather than returned so that one exited process does not stop
// the session.
func (s *ProcessSource) Sample(ctx context.Context, ts int64) timeline.Batch {
	values := make([]int64, 0, len(s.procs)+3)
	var threads, rss int64

	for i, proc := range s.procs {
		status, err := proc.StatusWithContext(ctx)
		if err != nil {
			s.logger.CaptureWarnLimited(
				"sampling: cannot read process status",
				"process", s.names[i],
				"error", err,
			)
			values = append(values, timeline.StateUnknown)
			continue
		}
		values = append(values, stateCode(status))

		if n, err := proc.NumThreadsWithContext(ctx); err == nil {
			threads += int64(n)
		}
		if mem, err := proc.MemoryInfoWithContext(ctx); err == nil {
			rss += int64(mem.RSS >> 20)
		}
	}

	var busy int64
	if percent, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percent) > 0 {
		busy = int64(math.Round(percent[0]))
	}

	return timeline.Batch{
		Timestamp: ts,
		Values:    append(values, threads, rss, busy),
	}
}

func (s *ProcessSource) Run(ctx context.Context, out chan<- timeline.Batch) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := send(ctx, out, s.Sample(ctx, now.UnixMilli())); err != nil {
				return err
			}
		}
	}
}

// stateCode maps gopsutil status names to state codes. The first
// recognised status wins.
func stateCode(status []string) int64 {
	for _, st := range status {
		switch st {
		case "running":
			return timeline.StateRunning
		case "sleep":
			return timeline.StateSleeping
		case "wait":
			return timeline.StateWaiting
		case "lock", "blocked":
			return timeline.StateBlocked
		case "idle":
			return timeline.StateIdle
		case "stop":
			return timeline.StateStopped
		case "zombie":
			return timeline.StateZombie
		}
	}
	return timeline.StateUnknown
}
