package timeline

import (
	"errors"
	"fmt"
	"slices"

	"github.com/wandb/threadline/internal/chartmetrics"
	"github.com/wandb/threadline/internal/observability"
)

var (
	ErrNoItems      = errors.New("timeline: no items")
	ErrNilItem      = errors.New("timeline: nil item")
	ErrUnknownItem  = errors.New("timeline: unknown item")
	ErrItemAttached = errors.New("timeline: item already belongs to a model")
)

type ItemsModelParams struct {
	Logger  *observability.CoreLogger
	Metrics *chartmetrics.Metrics
}

// ItemsModel aggregates TimeSeries that share one Timeline.
//
// Not safe for concurrent use: all calls must come from the goroutine that
// owns the chart.
type ItemsModel struct {
	timeline *Timeline
	items    []*TimeSeries
	nextID   int

	subscribers []*subscriber
	nextSubID   int

	logger  *observability.CoreLogger
	metrics *chartmetrics.Metrics
}

type subscriber struct {
	id int
	fn func(Event)
}

// NewItemsModel creates a model over tl with an initial, non-empty item set.
func NewItemsModel(
	tl *Timeline,
	items []*TimeSeries,
	params ItemsModelParams,
) (*ItemsModel, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	if tl == nil {
		tl = NewTimeline()
	}

	m := &ItemsModel{
		timeline: tl,
		logger:   observability.OrNoOp(params.Logger),
		metrics:  params.Metrics,
	}
	if err := m.validate(items); err != nil {
		return nil, err
	}
	m.attach(items)

	return m, nil
}

// Timeline returns the shared timestamp axis.
func (m *ItemsModel) Timeline() *Timeline { return m.timeline }

// Items returns the items in display order.
func (m *ItemsModel) Items() []*TimeSeries { return slices.Clone(m.items) }

// Len returns the number of items.
func (m *ItemsModel) Len() int { return len(m.items) }

// Item returns the item with the given ID.
func (m *ItemsModel) Item(id int) (*TimeSeries, bool) {
	for _, item := range m.items {
		if item.id == id {
			return item, true
		}
	}
	return nil, false
}

// Subscribe registers fn for all future events and returns a function that
// removes it.
func (m *ItemsModel) Subscribe(fn func(Event)) func() {
	id := m.nextSubID
	m.nextSubID++
	m.subscribers = append(m.subscribers, &subscriber{id: id, fn: fn})

	return func() {
		m.subscribers = slices.DeleteFunc(m.subscribers, func(s *subscriber) bool {
			return s.id == id
		})
	}
}

// Append adds one sample to every item.
//
// values are matched to items in display order. Missing values repeat the
// item's previous value; extra values are ignored. A timestamp that does not
// increase is kept and flagged.
func (m *ItemsModel) Append(timestamp int64, values []int64) {
	if len(values) != len(m.items) {
		m.logger.CaptureWarnLimited(
			"timeline: value count does not match item count",
			"values", len(values),
			"items", len(m.items),
		)
	}

	previous := m.timeline.EndTime()
	if m.timeline.append(timestamp) {
		m.metrics.IncOutOfOrder()
		m.logger.CaptureWarnLimited(
			"timeline: timestamp did not increase",
			"previous", previous,
			"timestamp", timestamp,
		)
	}
	m.metrics.IncAppend()

	deltas := make([]Delta, len(m.items))
	for i, item := range m.items {
		value := item.lastValue()
		if i < len(values) {
			value = values[i]
		}
		old := len(item.values)
		item.values = append(item.values, value)
		deltas[i] = Delta{Item: item, OldCount: old, NewCount: old + 1}
	}

	m.fire(Event{Kind: ValuesAdded, Items: m.Items(), Deltas: deltas})
}

// AddItems appends items to the model.
//
// New items start empty at the current end of the timeline. If the timeline
// already has samples, a ValuesAdded event for the new items follows the
// ItemsAdded event so they get an initial render.
func (m *ItemsModel) AddItems(items ...*TimeSeries) error {
	if len(items) == 0 {
		return nil
	}
	if err := m.validate(items); err != nil {
		return err
	}
	m.attach(items)

	added := slices.Clone(items)
	m.fire(Event{Kind: ItemsAdded, Items: added})

	if m.timeline.Count() > 0 {
		deltas := make([]Delta, len(added))
		for i, item := range added {
			deltas[i] = Delta{Item: item, OldCount: item.Count(), NewCount: item.Count()}
		}
		m.fire(Event{Kind: ValuesAdded, Items: added, Deltas: deltas})
	}
	return nil
}

// RemoveItems detaches items from the model.
//
// Fails without changes if any item is not in the model.
func (m *ItemsModel) RemoveItems(items ...*TimeSeries) error {
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		if item == nil {
			return ErrNilItem
		}
		if !slices.Contains(m.items, item) {
			return fmt.Errorf("%w: %q", ErrUnknownItem, item.name)
		}
	}

	m.items = slices.DeleteFunc(m.items, func(s *TimeSeries) bool {
		return slices.Contains(items, s)
	})
	removed := slices.Clone(items)
	for _, item := range removed {
		item.timeline = nil
	}

	m.fire(Event{Kind: ItemsRemoved, Items: removed})
	return nil
}

// Reset clears the timeline and all items.
func (m *ItemsModel) Reset() {
	m.timeline.reset()
	for _, item := range m.items {
		item.values = item.values[:0]
		item.start = 0
	}
	m.fire(Event{Kind: ValuesReset, Items: m.Items()})
}

func (m *ItemsModel) validate(items []*TimeSeries) error {
	for i, item := range items {
		if item == nil {
			return ErrNilItem
		}
		if item.timeline != nil || slices.Contains(items[:i], item) {
			return fmt.Errorf("%w: %q", ErrItemAttached, item.name)
		}
	}
	return nil
}

func (m *ItemsModel) attach(items []*TimeSeries) {
	for _, item := range items {
		item.id = m.nextID
		m.nextID++
		item.timeline = m.timeline
		item.start = m.timeline.Count()
		item.values = nil
		m.items = append(m.items, item)
	}
}

func (m *ItemsModel) fire(e Event) {
	// Subscribers may unsubscribe while handling the event.
	for _, s := range slices.Clone(m.subscribers) {
		s.fn(e)
	}
}
