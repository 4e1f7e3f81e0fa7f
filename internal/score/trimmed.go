// Package score computes the trimmed rating of a title from its vote histogram.
package score

import (
	"errors"
	"math"
	"strconv"

	"github.com/Clark-Hu/trimscore/internal/domain"
)

// ErrDivisionUndefined is returned when no vote falls in the trimmed range.
var ErrDivisionUndefined = errors.New("score: no votes between the lowest and highest buckets")

// The lowest and highest star buckets are excluded to dampen vote brigading.
const (
	firstCounted = 1
	lastCounted  = domain.HistogramSize - 2
)

// Trimmed returns the vote-weighted mean rating of buckets 2 to 9 stars,
// rounded to one decimal place.
func Trimmed(h domain.Histogram) (float64, error) {
	var (
		weighted float64
		votes    int64
	)
	for i := firstCounted; i <= lastCounted; i++ {
		weighted += float64(h[i].Rating) * float64(h[i].VoteCount)
		votes += h[i].VoteCount
	}
	if votes == 0 {
		return 0, ErrDivisionUndefined
	}
	return Round(weighted / float64(votes)), nil
}

// Round rounds v half away from zero to one decimal place.
func Round(v float64) float64 {
	return math.Round(v*10) / 10
}

// Format renders a score the way it is served, e.g. "7.4".
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
