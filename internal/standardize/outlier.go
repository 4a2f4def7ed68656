package standardize

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// clipValues bounds a group's eligible values per the outlier policy.
// Out-of-bound values are replaced with the bound itself, never removed, so
// group membership is unchanged. The input must contain only finite values
// (missing-value handling runs first) and is not mutated.
//
// When the group's spread collapses (all values equal, or too few values to
// estimate spread) the bounds collapse with it and clipping is a no-op.
func clipValues(values []float64, policy OutlierPolicy) []float64 {
	out := append([]float64(nil), values...)
	if len(values) < 2 {
		return out
	}

	var lower, upper float64
	switch policy.Method {
	case OutlierPercentile:
		tail := math.Min(policy.Param, 100-policy.Param)
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		lower = percentileValue(sorted, tail/100)
		upper = percentileValue(sorted, 1-tail/100)

	case OutlierMAD:
		median, _ := stats.Median(out)
		mad, _ := stats.MedianAbsoluteDeviation(out)
		scaled := mad * madScaleFactor
		if scaled < Epsilon {
			return out
		}
		lower = median - policy.Param*scaled
		upper = median + policy.Param*scaled

	case OutlierSigma:
		mean := stat.Mean(out, nil)
		sd := stat.StdDev(out, nil)
		if !(sd > Epsilon) {
			return out
		}
		lower = mean - policy.Param*sd
		upper = mean + policy.Param*sd

	default: // OutlierNone
		return out
	}

	for i, v := range out {
		if v < lower {
			out[i] = lower
		} else if v > upper {
			out[i] = upper
		}
	}
	return out
}

// percentileValue returns the value at the given fraction of a sorted slice
// using linear interpolation between ranks
func percentileValue(sorted []float64, fraction float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if fraction <= 0 {
		return sorted[0]
	}
	if fraction >= 1 {
		return sorted[n-1]
	}

	index := fraction * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
