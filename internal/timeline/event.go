package timeline

// EventKind identifies a change to an ItemsModel.
type EventKind int

const (
	// ValuesAdded means samples were appended; Deltas describe growth.
	ValuesAdded EventKind = iota

	// ValuesReset means all series were cleared.
	ValuesReset

	// ItemsAdded means Items joined the model.
	ItemsAdded

	// ItemsRemoved means Items left the model.
	ItemsRemoved
)

func (k EventKind) String() string {
	switch k {
	case ValuesAdded:
		return "ValuesAdded"
	case ValuesReset:
		return "ValuesReset"
	case ItemsAdded:
		return "ItemsAdded"
	case ItemsRemoved:
		return "ItemsRemoved"
	default:
		return "Unknown"
	}
}

// Delta is the growth of one item in a ValuesAdded event.
type Delta struct {
	Item     *TimeSeries
	OldCount int
	NewCount int
}

// Event is delivered to ItemsModel subscribers.
type Event struct {
	Kind   EventKind
	Items  []*TimeSeries
	Deltas []Delta
}
