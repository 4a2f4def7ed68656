// Command standardize runs cross-sectional standardization over a CSV or
// Excel file and writes the result as CSV.
//
// Usage:
//
//	standardize -in factors.csv -out standardized.csv \
//	    -columns momentum,value -method zscore -missing mean-fill \
//	    -outlier "mad(3)" -group-by date
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"factorstd/internal/config"
	"factorstd/internal/dataset"
	"factorstd/internal/infrastructure"
	"factorstd/internal/standardize"
)

func main() {
	inPath := flag.String("in", "", "input file (.csv or .xlsx)")
	outPath := flag.String("out", "", "output CSV file")
	sheet := flag.String("sheet", "", "sheet name for Excel input (defaults to the first non-empty sheet)")
	columns := flag.String("columns", "", "comma-separated numeric columns to standardize")
	method := flag.String("method", "", "standardization method: zscore, robust_zscore, minmax, rank, rank_to_normal")
	missing := flag.String("missing", "", "missing value policy: drop, zero-fill, mean-fill")
	outlier := flag.String("outlier", "", `outlier policy: none, percentile(p), mad(k), sigma(k)`)
	groupBy := flag.String("group-by", "", "comma-separated grouping columns (empty treats the table as one group)")
	replace := flag.Bool("replace", false, "write standardized values over the source columns")
	configFile := flag.String("config", "", "optional YAML config file")
	workers := flag.Int("workers", 0, "max concurrent (column, group) units, 0 means GOMAXPROCS")
	flag.Parse()

	if *inPath == "" || *outPath == "" || *columns == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	// one trace ID per invocation, so log records from a run correlate
	ctx := infrastructure.EnsureTraceID(context.Background())

	if err := run(ctx, logger, cfg, cliOptions{
		inPath:  *inPath,
		outPath: *outPath,
		sheet:   *sheet,
		columns: splitList(*columns),
		method:  *method,
		missing: *missing,
		outlier: *outlier,
		groupBy: splitList(*groupBy),
		replace: *replace,
		workers: *workers,
	}); err != nil {
		logger.Error("Standardization failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

type cliOptions struct {
	inPath  string
	outPath string
	sheet   string
	columns []string
	method  string
	missing string
	outlier string
	groupBy []string
	replace bool
	workers int
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.Config, opts cliOptions) error {
	table, err := readInput(opts.inPath, opts.sheet)
	if err != nil {
		return fmt.Errorf("reading %s: %w", opts.inPath, err)
	}
	logger.Info("Loaded input table",
		slog.String("path", opts.inPath),
		slog.Int("rows", table.NumRows()),
		slog.Int("columns", table.NumColumns()))

	engineCfg, err := buildConfig(cfg.Standardize, opts)
	if err != nil {
		return err
	}

	engine := standardize.NewEngine(logger)
	if opts.workers > 0 {
		engine.SetMaxConcurrency(opts.workers)
	} else if cfg.Standardize.MaxConcurrency > 0 {
		engine.SetMaxConcurrency(cfg.Standardize.MaxConcurrency)
	}

	out, warnings, err := engine.Standardize(ctx, table, engineCfg)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn("Standardization warning",
			slog.String("column", w.Column),
			slog.String("group", w.Group),
			slog.String("kind", string(w.Kind)))
	}

	if err := dataset.WriteCSV(out, opts.outPath, dataset.WriteOptions{}); err != nil {
		return fmt.Errorf("writing %s: %w", opts.outPath, err)
	}
	logger.Info("Wrote standardized table",
		slog.String("path", opts.outPath),
		slog.Int("warnings", len(warnings)))
	return nil
}

// buildConfig turns CLI flags into an engine config. Flags left empty fall
// back to the service defaults from the config file or environment.
func buildConfig(defaults config.StandardizeConfig, opts cliOptions) (standardize.Config, error) {
	method := opts.method
	if method == "" {
		method = defaults.DefaultMethod
	}
	missing := opts.missing
	if missing == "" {
		missing = defaults.DefaultMissing
	}
	outlierSpec := opts.outlier
	if outlierSpec == "" {
		outlierSpec = defaults.DefaultOutlier
	}
	outlier, err := standardize.ParseOutlierPolicy(outlierSpec)
	if err != nil {
		return standardize.Config{}, err
	}

	engineCfg := standardize.Config{GroupBy: opts.groupBy}
	for _, column := range opts.columns {
		engineCfg.Specs = append(engineCfg.Specs, standardize.ColumnSpec{
			Column:  column,
			Method:  standardize.Method(method),
			Missing: standardize.MissingPolicy(missing),
			Outlier: outlier,
			Replace: opts.replace,
		})
	}
	return engineCfg, nil
}

func readInput(path, sheet string) (*dataset.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return dataset.ReadExcel(path, sheet)
	default:
		return dataset.ReadCSV(path)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
