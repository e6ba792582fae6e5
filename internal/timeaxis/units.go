// Package timeaxis chooses tick spacing and labels for time and value axes.
package timeaxis

import "time"

// DefaultMinTickDistance is the minimum distance between two ticks in pixels.
const DefaultMinTickDistance = 120

// UnitClass groups tick units that share a label format.
type UnitClass int

const (
	ClassUnknown UnitClass = iota
	ClassMillis
	ClassSeconds
	ClassMinutes
	ClassHours
	ClassDays
)

type unit struct {
	millis int64
	class  UnitClass
}

var units = []unit{
	{10, ClassMillis}, {20, ClassMillis}, {50, ClassMillis},
	{100, ClassMillis}, {250, ClassMillis}, {500, ClassMillis},

	{1_000, ClassSeconds}, {2_000, ClassSeconds}, {5_000, ClassSeconds},
	{10_000, ClassSeconds}, {15_000, ClassSeconds}, {30_000, ClassSeconds},

	{60_000, ClassMinutes}, {120_000, ClassMinutes}, {300_000, ClassMinutes},
	{600_000, ClassMinutes}, {900_000, ClassMinutes}, {1_800_000, ClassMinutes},

	{3_600_000, ClassHours}, {7_200_000, ClassHours}, {10_800_000, ClassHours},
	{21_600_000, ClassHours}, {43_200_000, ClassHours},

	{86_400_000, ClassDays}, {172_800_000, ClassDays},
	{259_200_000, ClassDays}, {432_000_000, ClassDays},
}

// OptimalUnit returns the smallest unit whose on-screen length at zoom
// (pixels per millisecond) is at least minDistance pixels.
//
// Falls back to the largest unit.
func OptimalUnit(zoom float64, minDistance int) int64 {
	for _, u := range units {
		if float64(u.millis)*zoom >= float64(minDistance) {
			return u.millis
		}
	}
	return units[len(units)-1].millis
}

// Class returns the label class of a grid unit, or ClassUnknown.
func Class(unitMillis int64) UnitClass {
	for _, u := range units {
		if u.millis == unitMillis {
			return u.class
		}
	}
	return ClassUnknown
}

// FirstMark returns the smallest multiple of unit that is >= t.
func FirstMark(t, unit int64) int64 {
	if unit <= 0 {
		return t
	}
	q := t / unit
	if t%unit != 0 && t > 0 {
		q++
	}
	return q * unit
}

// Duration converts a unit in milliseconds to a time.Duration.
func Duration(unitMillis int64) time.Duration {
	return time.Duration(unitMillis) * time.Millisecond
}
