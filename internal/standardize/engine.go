package standardize

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"factorstd/internal/dataset"
)

// Engine is the sole entry point for standardization. It is stateless
// between calls and safe for concurrent use.
type Engine struct {
	logger         *slog.Logger
	maxConcurrency int
}

// NewEngine creates an engine that logs through the given logger
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:         logger.With(slog.String("component", "standardize_engine")),
		maxConcurrency: runtime.GOMAXPROCS(0),
	}
}

// SetMaxConcurrency bounds the number of (column, group) units computed in
// parallel. Values below 1 are ignored.
func (e *Engine) SetMaxConcurrency(n int) {
	if n > 0 {
		e.maxConcurrency = n
	}
}

// Standardize runs the configured transforms over the input table and
// returns a new table with the same rows in the same order, the original
// columns preserved, and one standardized column per spec (or the source
// column replaced, for specs with Replace set). The input table is not
// modified.
//
// Each (column, group) unit is independent; units run in parallel and
// results merge by row index, so output is deterministic regardless of
// scheduling. Fatal ConfigError/SchemaError abort with no partial output.
// Non-fatal warnings are returned in (spec, group) order.
func (e *Engine) Standardize(ctx context.Context, t *dataset.Table, cfg Config) (*dataset.Table, []Warning, error) {
	start := time.Now()
	cfg = cfg.withDefaults()

	if err := validateConfig(t, cfg); err != nil {
		e.logger.ErrorContext(ctx, "configuration rejected", "error", err)
		return nil, nil, err
	}

	groups, err := resolveGroups(t, cfg.GroupBy)
	if err != nil {
		return nil, nil, err
	}

	e.logger.InfoContext(ctx, "starting standardization",
		"specs", len(cfg.Specs),
		"groups", len(groups),
		"rows", t.NumRows(),
		"max_concurrency", e.maxConcurrency,
	)

	// One result slice per spec, pre-filled with nulls; units write disjoint
	// row indices. One warning bucket per (spec, group) unit keeps the
	// warning order independent of scheduling.
	results := make([][]float64, len(cfg.Specs))
	for si := range results {
		res := make([]float64, t.NumRows())
		for i := range res {
			res[i] = dataset.Null()
		}
		results[si] = res
	}
	warnBuckets := make([][]Warning, len(cfg.Specs)*len(groups))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.maxConcurrency)
	for si := range cfg.Specs {
		spec := cfg.Specs[si]
		col, _ := t.Column(spec.Column)
		source := col.Floats
		for gi := range groups {
			si, gi := si, gi
			grp := groups[gi]
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				scores, warns := computeUnit(spec, grp, source)
				for k, row := range grp.Rows {
					results[si][row] = scores[k]
				}
				warnBuckets[si*len(groups)+gi] = warns
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, fmt.Errorf("standardize: %w", err)
	}

	out := t.Clone()
	for si := range cfg.Specs {
		spec := cfg.Specs[si]
		if err := out.SetNumeric(spec.OutputColumn(), results[si]); err != nil {
			return nil, nil, fmt.Errorf("assemble output column %q: %w", spec.OutputColumn(), err)
		}
	}

	var warnings []Warning
	for _, bucket := range warnBuckets {
		warnings = append(warnings, bucket...)
	}

	e.logger.InfoContext(ctx, "standardization complete",
		"duration", time.Since(start),
		"warnings", len(warnings),
	)
	return out, warnings, nil
}

// computeUnit runs the per-group pipeline for one column spec: missing-value
// handling, outlier clipping, then the transform. The returned scores are
// aligned to grp.Rows, with null where the value was excluded.
func computeUnit(spec ColumnSpec, grp group, source []float64) ([]float64, []Warning) {
	raw := make([]float64, len(grp.Rows))
	for i, row := range grp.Rows {
		raw[i] = source[row]
	}

	scores := make([]float64, len(raw))
	for i := range scores {
		scores[i] = dataset.Null()
	}

	prep := applyMissingPolicy(raw, spec.Missing)
	if prep.EligibleCount == 0 {
		return scores, []Warning{{Column: spec.Column, Group: grp.Key, Kind: WarnEmptyGroup}}
	}

	clipped := clipValues(prep.compact(), spec.Outlier)
	unitScores, degenerate := standardizeValues(clipped, spec.Method)

	k := 0
	for i, ok := range prep.Eligible {
		if ok {
			scores[i] = unitScores[k]
			k++
		}
	}

	var warns []Warning
	if degenerate {
		warns = append(warns, Warning{Column: spec.Column, Group: grp.Key, Kind: WarnZeroVariance})
	}
	return scores, warns
}
