package standardize

import (
	"fmt"
	"strconv"
	"strings"
)

// Method identifies the statistical transform applied within each group
type Method string

const (
	// MethodZScore centers on the group mean and scales by sample stddev
	MethodZScore Method = "zscore"
	// MethodRobustZScore centers on the group median and scales by 1.4826
	// times the median absolute deviation
	MethodRobustZScore Method = "robust_zscore"
	// MethodMinMax maps the group range onto [0, 1]
	MethodMinMax Method = "minmax"
	// MethodRank maps each value to its fractional rank in [0, 1]
	MethodRank Method = "rank"
	// MethodRankToNormal maps fractional ranks through the probit function
	MethodRankToNormal Method = "rank_to_normal"
)

// IsValid reports whether the method is a recognized transform
func (m Method) IsValid() bool {
	switch m {
	case MethodZScore, MethodRobustZScore, MethodMinMax, MethodRank, MethodRankToNormal:
		return true
	default:
		return false
	}
}

// MissingPolicy decides how null cells are treated before statistics
type MissingPolicy string

const (
	// MissingDrop excludes nulls from statistics and emits null for them
	MissingDrop MissingPolicy = "drop"
	// MissingZeroFill treats nulls as 0 before statistics
	MissingZeroFill MissingPolicy = "zero-fill"
	// MissingMeanFill imputes nulls with the group mean of eligible values
	MissingMeanFill MissingPolicy = "mean-fill"
)

// IsValid reports whether the policy is recognized
func (p MissingPolicy) IsValid() bool {
	switch p {
	case MissingDrop, MissingZeroFill, MissingMeanFill:
		return true
	default:
		return false
	}
}

// OutlierMethod identifies how extreme values are bounded within a group
type OutlierMethod string

const (
	// OutlierNone passes values through unchanged
	OutlierNone OutlierMethod = "none"
	// OutlierPercentile clips to symmetric percentile bounds
	OutlierPercentile OutlierMethod = "percentile"
	// OutlierMAD clips beyond k scaled median absolute deviations
	OutlierMAD OutlierMethod = "mad"
	// OutlierSigma clips beyond k standard deviations from the mean
	OutlierSigma OutlierMethod = "sigma"
)

// IsValid reports whether the outlier method is recognized
func (m OutlierMethod) IsValid() bool {
	switch m {
	case OutlierNone, OutlierPercentile, OutlierMAD, OutlierSigma:
		return true
	default:
		return false
	}
}

// OutlierPolicy pairs an outlier method with its parameter: the tail percent
// for percentile clipping, k for MAD and sigma clipping. Param is ignored
// for OutlierNone.
type OutlierPolicy struct {
	Method OutlierMethod `json:"method" yaml:"method"`
	Param  float64       `json:"param,omitempty" yaml:"param"`
}

// String renders the policy in the configuration syntax, e.g. "mad(3)"
func (p OutlierPolicy) String() string {
	if p.Method == OutlierNone || p.Method == "" {
		return string(OutlierNone)
	}
	return fmt.Sprintf("%s(%g)", p.Method, p.Param)
}

// ParseOutlierPolicy parses the configuration syntax: "none",
// "percentile(5)", "mad(3)", "sigma(2.5)". The bare method name without a
// parameter selects the method's default parameter.
func ParseOutlierPolicy(s string) (OutlierPolicy, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == string(OutlierNone) {
		return OutlierPolicy{Method: OutlierNone}, nil
	}

	name := s
	var param float64
	hasParam := false
	if open := strings.IndexByte(s, '('); open >= 0 {
		if !strings.HasSuffix(s, ")") {
			return OutlierPolicy{}, fmt.Errorf("malformed outlier policy %q", s)
		}
		name = s[:open]
		raw := s[open+1 : len(s)-1]
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return OutlierPolicy{}, fmt.Errorf("malformed outlier parameter %q", raw)
		}
		param = v
		hasParam = true
	}

	method := OutlierMethod(name)
	if !method.IsValid() {
		return OutlierPolicy{}, fmt.Errorf("unknown outlier method %q", name)
	}
	if !hasParam {
		param = defaultOutlierParam(method)
	}
	return OutlierPolicy{Method: method, Param: param}, nil
}

func defaultOutlierParam(m OutlierMethod) float64 {
	switch m {
	case OutlierPercentile:
		return DefaultPercentileTail
	case OutlierMAD:
		return DefaultMADMultiple
	case OutlierSigma:
		return DefaultSigmaMultiple
	default:
		return 0
	}
}

// ColumnSpec describes the standardization of one target column. It is
// immutable for the duration of one call.
type ColumnSpec struct {
	// Column is the target numeric column in the input table
	Column string `json:"column" yaml:"column"`
	// Method is the statistical transform
	Method Method `json:"method" yaml:"method"`
	// Missing is the missing-value policy; defaults to drop
	Missing MissingPolicy `json:"missing,omitempty" yaml:"missing"`
	// Outlier bounds extreme values before the transform; defaults to none
	Outlier OutlierPolicy `json:"outlier,omitempty" yaml:"outlier"`
	// Replace writes scores back over the source column instead of adding one
	Replace bool `json:"replace,omitempty" yaml:"replace"`
	// Output overrides the output column name; ignored when Replace is set
	Output string `json:"output,omitempty" yaml:"output"`
}

// OutputColumn returns the column name the standardized scores land in
func (s ColumnSpec) OutputColumn() string {
	if s.Replace {
		return s.Column
	}
	if s.Output != "" {
		return s.Output
	}
	return s.Column + DefaultOutputSuffix
}

func (s ColumnSpec) withDefaults() ColumnSpec {
	if s.Missing == "" {
		s.Missing = MissingDrop
	}
	if s.Outlier.Method == "" {
		s.Outlier.Method = OutlierNone
	}
	return s
}

// Config is the full configuration of one standardization call
type Config struct {
	// Specs lists the target columns and their transforms
	Specs []ColumnSpec `json:"specs" yaml:"specs"`
	// GroupBy lists grouping fields; empty means one group over all rows
	GroupBy []string `json:"group_by,omitempty" yaml:"group_by"`
}

func (c Config) withDefaults() Config {
	specs := make([]ColumnSpec, len(c.Specs))
	for i, s := range c.Specs {
		specs[i] = s.withDefaults()
	}
	c.Specs = specs
	return c
}

// WarningKind classifies non-fatal conditions encountered during a call
type WarningKind string

const (
	// WarnEmptyGroup is recorded when a group has zero eligible values
	WarnEmptyGroup WarningKind = "empty_group"
	// WarnZeroVariance is recorded when a group's spread collapses below
	// epsilon and the transform falls back to its degenerate output
	WarnZeroVariance WarningKind = "zero_variance"
)

// Warning describes a degenerate (column, group) unit. Warnings never abort
// the call; computation continues with defined output.
type Warning struct {
	Column string      `json:"column"`
	Group  string      `json:"group"`
	Kind   WarningKind `json:"kind"`
}

// String returns a human-readable form of the warning
func (w Warning) String() string {
	return fmt.Sprintf("%s: column %q group %q", w.Kind, w.Column, w.Group)
}

// Numeric defaults and tolerances.
const (
	// Epsilon is the spread below which a group counts as zero-variance
	Epsilon = 1e-12

	// DefaultOutputSuffix names output columns when no override is given
	DefaultOutputSuffix = "_std"

	// DefaultPercentileTail is the default tail percent for percentile clipping
	DefaultPercentileTail = 5.0
	// DefaultMADMultiple is the default k for MAD clipping
	DefaultMADMultiple = 3.0
	// DefaultSigmaMultiple is the default k for sigma clipping
	DefaultSigmaMultiple = 3.0

	// madScaleFactor converts a raw MAD into a normal-equivalent stddev
	madScaleFactor = 1.4826
)
