package standardize

import (
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// standardizeValues transforms a group's clipped eligible values into
// standardized scores. The returned slice is aligned to the input. The
// boolean reports whether the group degenerated (zero variance or collapsed
// range) and the transform fell back to its defined degenerate output.
func standardizeValues(values []float64, method Method) ([]float64, bool) {
	switch method {
	case MethodRobustZScore:
		return robustZScores(values)
	case MethodMinMax:
		return minMaxScores(values)
	case MethodRank:
		return rankScores(values), false
	case MethodRankToNormal:
		return rankToNormalScores(values), false
	default: // MethodZScore
		return zScores(values)
	}
}

// zScores centers on the mean and scales by the sample standard deviation
// (ddof=1). A group whose stddev falls below
// epsilon, including a single-value group, scores 0 everywhere.
func zScores(values []float64) ([]float64, bool) {
	out := make([]float64, len(values))
	if len(values) < 2 {
		return out, true
	}

	mean := stat.Mean(values, nil)
	sd := stat.StdDev(values, nil)
	if !(sd > Epsilon) {
		return out, true
	}

	for i, v := range values {
		out[i] = (v - mean) / sd
	}
	return out, false
}

// robustZScores centers on the median and scales by 1.4826 times the median
// absolute deviation, so the scale estimate matches the stddev on normal
// data while resisting outliers. A group whose scaled MAD falls below
// epsilon, including a single-value group, scores 0 everywhere.
func robustZScores(values []float64) ([]float64, bool) {
	out := make([]float64, len(values))
	if len(values) < 2 {
		return out, true
	}

	median, _ := stats.Median(values)
	mad, _ := stats.MedianAbsoluteDeviation(values)
	scaled := mad * madScaleFactor
	if !(scaled > Epsilon) {
		return out, true
	}

	for i, v := range values {
		out[i] = (v - median) / scaled
	}
	return out, false
}

// minMaxScores maps the group range onto [0, 1]. A collapsed range scores
// 0.5 everywhere.
func minMaxScores(values []float64) ([]float64, bool) {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out, false
	}

	min := floats.Min(values)
	max := floats.Max(values)
	span := max - min
	if !(span > Epsilon) {
		for i := range out {
			out[i] = 0.5
		}
		return out, true
	}

	for i, v := range values {
		out[i] = (v - min) / span
	}
	return out, false
}

// rankScores maps each value to its fractional rank in [0, 1], with tied
// values receiving the average rank of the tied positions. The minimum maps
// to 0 and the maximum to 1; a single-value group maps to 0.5.
func rankScores(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 1 {
		out[0] = 0.5
		return out
	}

	ranks := averageRanks(values)
	for i, r := range ranks {
		out[i] = (r - 1) / float64(n-1)
	}
	return out
}

// rankToNormalScores maps rank fractions through the inverse normal CDF.
// The fraction (r - 0.5) / n keeps clear of the 0 and 1 endpoints, where
// the probit diverges, without an arbitrary epsilon.
func rankToNormalScores(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	ranks := averageRanks(values)
	for i, r := range ranks {
		out[i] = distuv.UnitNormal.Quantile((r - 0.5) / float64(n))
	}
	return out
}

// averageRanks returns 1-based competition ranks with ties averaged
func averageRanks(values []float64) []float64 {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && values[order[j]] == values[order[i]] {
			j++
		}
		// Positions i..j-1 hold the same value; give each the mean rank
		avg := (float64(i+1) + float64(j)) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}
	return ranks
}
