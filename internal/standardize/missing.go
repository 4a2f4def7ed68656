package standardize

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// preparedValues holds a group's values after missing-value handling.
// Filled and Eligible are aligned to the group's rows; Filled[i] only has
// meaning where Eligible[i] is true. EligibleCount is the number of values
// that enter statistics.
type preparedValues struct {
	Filled        []float64
	Eligible      []bool
	EligibleCount int
}

// applyMissingPolicy partitions a group's raw values into eligible and
// excluded per the policy. Non-finite inputs (NaN and infinities) count as
// missing before the policy applies, so an Inf cell can never dominate a
// group's statistics. The input slice is not mutated.
func applyMissingPolicy(values []float64, policy MissingPolicy) preparedValues {
	n := len(values)
	prep := preparedValues{
		Filled:   make([]float64, n),
		Eligible: make([]bool, n),
	}

	switch policy {
	case MissingZeroFill:
		for i, v := range values {
			if isMissing(v) {
				prep.Filled[i] = 0
			} else {
				prep.Filled[i] = v
			}
			prep.Eligible[i] = true
		}
		prep.EligibleCount = n

	case MissingMeanFill:
		present := make([]float64, 0, n)
		for _, v := range values {
			if !isMissing(v) {
				present = append(present, v)
			}
		}
		if len(present) == 0 {
			// Nothing to impute from; the whole group is excluded
			return prep
		}
		mean := stat.Mean(present, nil)
		for i, v := range values {
			if isMissing(v) {
				prep.Filled[i] = mean
			} else {
				prep.Filled[i] = v
			}
			prep.Eligible[i] = true
		}
		prep.EligibleCount = n

	default: // MissingDrop
		for i, v := range values {
			if isMissing(v) {
				continue
			}
			prep.Filled[i] = v
			prep.Eligible[i] = true
			prep.EligibleCount++
		}
	}

	return prep
}

// compact returns the eligible values in group row order
func (p preparedValues) compact() []float64 {
	out := make([]float64, 0, p.EligibleCount)
	for i, ok := range p.Eligible {
		if ok {
			out = append(out, p.Filled[i])
		}
	}
	return out
}

func isMissing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
