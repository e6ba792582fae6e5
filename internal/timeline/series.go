package timeline

// Descriptor names a row to be created.
type Descriptor struct {
	Name string
	Kind Kind
}

// TimeSeries is one row: an append-only sequence of values whose timestamps
// live on the shared Timeline.
//
// A TimeSeries is owned by exactly one ItemsModel and is mutated only
// through it.
type TimeSeries struct {
	id       int
	name     string
	kind     Kind
	timeline *Timeline

	// start is the timeline index of this series' first value.
	start  int
	values []int64
}

// NewTimeSeries creates an unattached, empty series.
func NewTimeSeries(desc Descriptor) *TimeSeries {
	return &TimeSeries{id: -1, name: desc.Name, kind: desc.Kind}
}

// ID is assigned by the ItemsModel and stays fixed while the series is in it.
func (s *TimeSeries) ID() int      { return s.id }
func (s *TimeSeries) Name() string { return s.name }
func (s *TimeSeries) Kind() Kind   { return s.kind }

// Start returns the timeline index at which this series began recording.
func (s *TimeSeries) Start() int { return s.start }

// Count returns the number of samples.
func (s *TimeSeries) Count() int { return len(s.values) }

// TimeAt returns the timestamp of the i-th sample.
func (s *TimeSeries) TimeAt(i int) int64 {
	return s.timeline.TimeAt(s.start + i)
}

// ValueAt returns the value of the i-th sample.
func (s *TimeSeries) ValueAt(i int) int64 { return s.values[i] }

// At returns the i-th sample.
func (s *TimeSeries) At(i int) Sample {
	return Sample{
		Timestamp:  s.TimeAt(i),
		Value:      s.values[i],
		OutOfOrder: s.timeline.OutOfOrder(s.start + i),
	}
}

// Last returns the newest sample and false if the series is empty.
func (s *TimeSeries) Last() (Sample, bool) {
	if len(s.values) == 0 {
		return Sample{}, false
	}
	return s.At(len(s.values) - 1), true
}

func (s *TimeSeries) lastValue() int64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.values[len(s.values)-1]
}

// Sample is a single timestamped value.
type Sample struct {
	Timestamp int64
	Value     int64

	// OutOfOrder is set when Timestamp did not increase over the
	// previous sample.
	OutOfOrder bool
}

// Batch is one sampling tick: a timestamp and one value per item in
// display order.
type Batch struct {
	Timestamp int64
	Values    []int64
}
