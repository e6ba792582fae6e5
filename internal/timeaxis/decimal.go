package timeaxis

import "math"

var decimalSteps = [...]int64{1, 2, 5}

// DecimalUnit returns the smallest value step from {1,2,5}×10^k whose
// on-screen length at factor (pixels per value unit) is at least
// minDistance pixels.
//
// Returns 0 if factor is not positive.
func DecimalUnit(factor float64, minDistance int) int64 {
	if factor <= 0 || math.IsNaN(factor) {
		return 0
	}

	for decade := int64(1); decade > 0 && decade <= math.MaxInt64/10; decade *= 10 {
		for _, step := range decimalSteps {
			if float64(step*decade)*factor >= float64(minDistance) {
				return step * decade
			}
		}
	}
	return 0
}
