package standardize

import (
	"factorstd/internal/dataset"
	apierrors "factorstd/internal/errors"
)

// validateConfig checks the full configuration against the input table
// before any computation runs, so fatal errors never leave partial output.
//
// Unknown grouping fields, methods, policies, and bad parameters are
// ConfigErrors; target columns that are absent or non-numeric are
// SchemaErrors.
func validateConfig(t *dataset.Table, cfg Config) error {
	if len(cfg.Specs) == 0 {
		return apierrors.NewConfigError("specs", "no column specs provided")
	}

	for _, field := range cfg.GroupBy {
		if !t.HasColumn(field) {
			return apierrors.NewConfigError("group_by", "unknown grouping field %q", field)
		}
	}

	outputs := make(map[string]string, len(cfg.Specs))
	for _, spec := range cfg.Specs {
		if spec.Column == "" {
			return apierrors.NewConfigError("column", "column name must not be empty")
		}

		col, ok := t.Column(spec.Column)
		if !ok {
			return apierrors.NewSchemaError(spec.Column, "column not found")
		}
		if col.Kind != dataset.Numeric {
			return apierrors.NewSchemaError(spec.Column, "column is %s, expected numeric", col.Kind)
		}

		if !spec.Method.IsValid() {
			return apierrors.NewConfigError("method", "unknown method %q", string(spec.Method))
		}
		if !spec.Missing.IsValid() {
			return apierrors.NewConfigError("missing", "unknown missing-value policy %q", string(spec.Missing))
		}
		if err := validateOutlier(spec.Outlier); err != nil {
			return err
		}

		out := spec.OutputColumn()
		if prev, dup := outputs[out]; dup {
			return apierrors.NewConfigError("output",
				"specs for %q and %q both write column %q", prev, spec.Column, out)
		}
		outputs[out] = spec.Column
		if !spec.Replace && t.HasColumn(out) {
			return apierrors.NewConfigError("output", "output column %q already exists", out)
		}
	}

	return nil
}

func validateOutlier(p OutlierPolicy) error {
	switch p.Method {
	case OutlierNone:
		return nil
	case OutlierPercentile:
		if p.Param <= 0 || p.Param >= 100 {
			return apierrors.NewConfigError("outlier",
				"percentile parameter must be in (0, 100), got %g", p.Param)
		}
	case OutlierMAD, OutlierSigma:
		if p.Param <= 0 {
			return apierrors.NewConfigError("outlier",
				"%s multiple must be positive, got %g", p.Method, p.Param)
		}
	default:
		return apierrors.NewConfigError("outlier", "unknown outlier method %q", string(p.Method))
	}
	return nil
}
