// Package selection tracks selected and highlighted samples and keeps their
// screen markers in sync with the viewport.
package selection

import (
	"cmp"
	"maps"
	"slices"
)

// Key identifies one sample: the row's item ID and the sample index within
// the row.
type Key struct {
	Row   int
	Index int
}

func compareKeys(a, b Key) int {
	if c := cmp.Compare(a.Row, b.Row); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

// Layer is one of the overlay's marker sets.
type Layer int

const (
	LayerSelected Layer = iota
	LayerHighlighted
)

func (l Layer) String() string {
	switch l {
	case LayerSelected:
		return "selected"
	case LayerHighlighted:
		return "highlighted"
	default:
		return "unknown"
	}
}

// Model is the selection set of a chart.
//
// Selected samples are toggled by the user. Highlighted samples follow the
// pointer. A selected timestamp is a timeline index and selects the sample
// at that index on every row.
//
// Not safe for concurrent use.
type Model struct {
	selected    map[Key]struct{}
	highlighted map[Key]struct{}
	timestamps  map[int]struct{}

	subscribers []*subscriber
	nextSubID   int
}

type subscriber struct {
	id int
	fn func(Layer)
}

func NewModel() *Model {
	return &Model{
		selected:    make(map[Key]struct{}),
		highlighted: make(map[Key]struct{}),
		timestamps:  make(map[int]struct{}),
	}
}

// Subscribe registers fn to be called with the layer that changed, and
// returns a function that removes it.
func (m *Model) Subscribe(fn func(Layer)) func() {
	id := m.nextSubID
	m.nextSubID++
	m.subscribers = append(m.subscribers, &subscriber{id: id, fn: fn})

	return func() {
		m.subscribers = slices.DeleteFunc(m.subscribers, func(s *subscriber) bool {
			return s.id == id
		})
	}
}

// Toggle flips the selection of k and reports whether it is now selected.
func (m *Model) Toggle(k Key) bool {
	_, ok := m.selected[k]
	if ok {
		delete(m.selected, k)
	} else {
		m.selected[k] = struct{}{}
	}
	m.fire(LayerSelected)
	return !ok
}

// SetSelected replaces the selected samples.
func (m *Model) SetSelected(keys ...Key) {
	if !replace(m.selected, keys) {
		return
	}
	m.fire(LayerSelected)
}

// ToggleTimestamp flips the selection of a timeline index and reports
// whether it is now selected.
func (m *Model) ToggleTimestamp(index int) bool {
	_, ok := m.timestamps[index]
	if ok {
		delete(m.timestamps, index)
	} else {
		m.timestamps[index] = struct{}{}
	}
	m.fire(LayerSelected)
	return !ok
}

// IsSelected reports whether k is selected directly.
func (m *Model) IsSelected(k Key) bool {
	_, ok := m.selected[k]
	return ok
}

// Clear drops all selected samples and timestamps.
func (m *Model) Clear() {
	if len(m.selected) == 0 && len(m.timestamps) == 0 {
		return
	}
	clear(m.selected)
	clear(m.timestamps)
	m.fire(LayerSelected)
}

// SetHighlighted replaces the highlighted samples.
func (m *Model) SetHighlighted(keys ...Key) {
	if !replace(m.highlighted, keys) {
		return
	}
	m.fire(LayerHighlighted)
}

// RemoveRow forgets every key on the given row.
func (m *Model) RemoveRow(row int) {
	onRow := func(k Key, _ struct{}) bool { return k.Row == row }

	before := len(m.selected)
	maps.DeleteFunc(m.selected, onRow)
	if len(m.selected) != before {
		m.fire(LayerSelected)
	}

	before = len(m.highlighted)
	maps.DeleteFunc(m.highlighted, onRow)
	if len(m.highlighted) != before {
		m.fire(LayerHighlighted)
	}
}

// Reset drops everything, including timestamps. Used when the data is
// cleared and sample indices become meaningless.
func (m *Model) Reset() {
	m.Clear()
	m.SetHighlighted()
}

// Selected returns the directly selected keys in row, index order.
func (m *Model) Selected() []Key { return sortedKeys(m.selected) }

// Highlighted returns the highlighted keys in row, index order.
func (m *Model) Highlighted() []Key { return sortedKeys(m.highlighted) }

// Timestamps returns the selected timeline indices in increasing order.
func (m *Model) Timestamps() []int {
	out := make([]int, 0, len(m.timestamps))
	for i := range m.timestamps {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

func (m *Model) fire(layer Layer) {
	for _, s := range slices.Clone(m.subscribers) {
		s.fn(layer)
	}
}

// replace sets set to exactly keys and reports whether it changed.
func replace(set map[Key]struct{}, keys []Key) bool {
	next := make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		next[k] = struct{}{}
	}

	changed := len(next) != len(set)
	if !changed {
		for k := range next {
			if _, ok := set[k]; !ok {
				changed = true
				break
			}
		}
	}
	if !changed {
		return false
	}

	clear(set)
	for k := range next {
		set[k] = struct{}{}
	}
	return true
}

func sortedKeys(set map[Key]struct{}) []Key {
	out := make([]Key, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.SortFunc(out, compareKeys)
	return out
}
