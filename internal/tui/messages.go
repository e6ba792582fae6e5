package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wandb/threadline/internal/timeline"
)

// maxBatchesPerMsg bounds how many queued batches one BatchMsg carries.
const maxBatchesPerMsg = 256

// BatchMsg carries sampling ticks drained from the producer queue.
type BatchMsg struct {
	Batches []timeline.Batch
}

// SourceDoneMsg indicates that the producer stopped.
type SourceDoneMsg struct {
	Err error
}

// waitForBatches returns a command that blocks for the next batch on in
// and then drains whatever else is already queued.
//
// When in is closed the command reports the producer's result from done.
func waitForBatches(in <-chan timeline.Batch, done <-chan error) tea.Cmd {
	if in == nil {
		return nil
	}
	return func() tea.Msg {
		b, ok := <-in
		if !ok {
			return sourceDone(done)
		}

		batches := []timeline.Batch{b}
		for len(batches) < maxBatchesPerMsg {
			select {
			case b, ok := <-in:
				if !ok {
					return BatchMsg{Batches: batches}
				}
				batches = append(batches, b)
			default:
				return BatchMsg{Batches: batches}
			}
		}
		return BatchMsg{Batches: batches}
	}
}

func sourceDone(done <-chan error) SourceDoneMsg {
	select {
	case err := <-done:
		return SourceDoneMsg{Err: err}
	default:
		return SourceDoneMsg{}
	}
}
