package metrics

import (
	"math"
	"time"
)

// ReportedPercentiles are the percentile points, in percent, every report
// carries.
var ReportedPercentiles = []float64{50, 66, 75, 80, 90, 95, 99, 100}

// Percentile returns the p-th percentile (0 < p <= 1) of an ascending
// duration slice.
//
// An integral rank returns that element. A fractional rank averages the two
// samples just above it, or returns the maximum when the rank falls in the
// last interval. For [10,20,30,40]ms the median is 35ms.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p >= 1 {
		return sorted[n-1]
	}
	if p <= 0 {
		return sorted[0]
	}

	index := p * float64(n-1)
	if index == math.Trunc(index) {
		return sorted[int(index)]
	}

	c := int(math.Ceil(index))
	if c >= n-1 {
		return sorted[n-1]
	}
	return (sorted[c] + sorted[c+1]) / 2
}
