// Package standardize implements cross-sectional standardization of numeric
// factor columns.
//
// Raw factor values are rarely comparable across instruments or dates: scales
// differ by orders of magnitude and fat tails dominate naive statistics. The
// engine in this package converts raw columns into standardized scores by
// partitioning rows into groups (typically by date), bounding outliers within
// each group, and applying a statistical transform.
//
// # Components
//
// The computation is a fixed per-column pipeline:
//
//   - groupkey.go: partitions rows by the configured grouping fields
//   - missing.go: missing-value policies (drop, zero-fill, mean-fill)
//   - outlier.go: outlier bounding (percentile, MAD, sigma clipping)
//   - methods.go: transforms (zscore, robust_zscore, minmax, rank,
//     rank_to_normal)
//   - engine.go: orchestration, parallel execution, output assembly
//   - validate.go: configuration and schema validation
//
// # Usage Example
//
//	engine := standardize.NewEngine(slog.Default())
//	out, warnings, err := engine.Standardize(ctx, table, standardize.Config{
//	    GroupBy: []string{"date"},
//	    Specs: []standardize.ColumnSpec{{
//	        Column:  "momentum",
//	        Method:  standardize.MethodZScore,
//	        Missing: standardize.MissingDrop,
//	        Outlier: standardize.OutlierPolicy{Method: standardize.OutlierPercentile, Param: 5},
//	    }},
//	})
//
// The call is pure: it never mutates the input table, retains no state
// between calls, and produces identical output for identical input
// regardless of how many workers execute the per-group units.
//
// Degenerate groups (zero variance, no eligible values) produce defined
// output plus a non-fatal warning rather than an error; callers that care
// must inspect the returned warning list.
package standardize
