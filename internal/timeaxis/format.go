package timeaxis

import (
	"fmt"
	"time"
)

const (
	millisLayout  = "15:04:05.000"
	secondsLayout = "15:04:05"
	daysLayout    = "Jan 2"
	dayMarkLayout = "Jan 2 "
)

// Layout returns the time layout used for tick labels of the given unit.
//
// Seconds, minutes and hours share one layout.
func Layout(unitMillis int64, dayMark bool) string {
	var layout string
	switch Class(unitMillis) {
	case ClassMillis:
		layout = millisLayout
	case ClassSeconds, ClassMinutes, ClassHours:
		layout = secondsLayout
	case ClassDays:
		return daysLayout
	default:
		return ""
	}
	if dayMark {
		return dayMarkLayout + layout
	}
	return layout
}

// FormatMark formats an absolute tick mark (Unix milliseconds) in loc.
func FormatMark(mark, unitMillis int64, dayMark bool, loc *time.Location) string {
	layout := Layout(unitMillis, dayMark)
	if layout == "" {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(mark).In(loc).Format(layout)
}

// CrossesDay reports whether [from, to] spans more than one calendar day in
// loc, in which case labels should carry a day mark.
func CrossesDay(from, to int64, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	a := time.UnixMilli(from).In(loc)
	b := time.UnixMilli(to).In(loc)
	return a.YearDay() != b.YearDay() || a.Year() != b.Year()
}

// FormatElapsed formats a relative tick mark as h:mm:ss, adding
// milliseconds for sub-second units.
func FormatElapsed(elapsedMillis, unitMillis int64) string {
	sign := ""
	if elapsedMillis < 0 {
		sign = "-"
		elapsedMillis = -elapsedMillis
	}

	d := time.Duration(elapsedMillis) * time.Millisecond
	h := int64(d / time.Hour)
	m := int64(d/time.Minute) % 60
	s := int64(d/time.Second) % 60
	ms := elapsedMillis % 1000

	if Class(unitMillis) == ClassMillis {
		return fmt.Sprintf("%s%d:%02d:%02d.%03d", sign, h, m, s, ms)
	}
	return fmt.Sprintf("%s%d:%02d:%02d", sign, h, m, s)
}
