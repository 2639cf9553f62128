package domain

import (
	"fmt"
	"math"
)

// Average is a mean that may be unavailable because nothing was measured.
type Average struct {
	Value float64
	Valid bool
}

// String renders the value with one decimal, or N/A.
func (a Average) String() string {
	if !a.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", a.Value)
}

// Ratio is a fraction in [0,1] that is unavailable for an empty denominator.
type Ratio struct {
	Value float64
	Valid bool
}

// NewRatio divides num by den. A zero denominator yields an invalid ratio
// with Value 0.
func NewRatio(num, den int) Ratio {
	if den == 0 {
		return Ratio{}
	}
	return Ratio{Value: float64(num) / float64(den), Valid: true}
}

// Percent returns the ratio as a whole percentage rounded half-up.
func (r Ratio) Percent() int {
	return int(RoundHalfUp(r.Value*100, 0))
}

// String renders the ratio as a percentage, or N/A.
func (r Ratio) String() string {
	if !r.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%d%%", r.Percent())
}

// RoundHalfUp rounds x to the given number of decimal places, with halves
// going towards positive infinity.
func RoundHalfUp(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Floor(x*scale+0.5) / scale
}

// MeanRating averages ratings to one decimal; an empty slice is unavailable.
func MeanRating(ratings []int) Average {
	if len(ratings) == 0 {
		return Average{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return Average{Value: RoundHalfUp(float64(sum)/float64(len(ratings)), 1), Valid: true}
}
