package standardize

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"factorstd/internal/dataset"
	apierrors "factorstd/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func factorTable(t *testing.T) *dataset.Table {
	t.Helper()
	table := dataset.New()
	require.NoError(t, table.AddString("date", []string{"d1", "d1", "d1", "d2", "d2", "d2"}))
	require.NoError(t, table.AddString("instrument", []string{"A", "B", "C", "A", "B", "C"}))
	require.NoError(t, table.AddNumeric("momentum", []float64{1, 2, 3, 10, dataset.Null(), 30}))
	return table
}

func specOf(column string, method Method) ColumnSpec {
	return ColumnSpec{Column: column, Method: method, Missing: MissingDrop}
}

func TestStandardizeZScorePerGroup(t *testing.T) {
	engine := NewEngine(testLogger())
	table := factorTable(t)

	out, warnings, err := engine.Standardize(context.Background(), table, Config{
		GroupBy: []string{"date"},
		Specs:   []ColumnSpec{specOf("momentum", MethodZScore)},
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	// same rows, original columns preserved, one appended column
	assert.Equal(t, table.NumRows(), out.NumRows())
	assert.Equal(t, []string{"date", "instrument", "momentum", "momentum_std"}, out.ColumnNames())

	scores, ok := out.Column("momentum_std")
	require.True(t, ok)

	// group d1: [1 2 3] has mean 2 and sample stddev 1
	assert.InDelta(t, -1, scores.Floats[0], 1e-12)
	assert.InDelta(t, 0, scores.Floats[1], 1e-12)
	assert.InDelta(t, 1, scores.Floats[2], 1e-12)

	// group d2: null row is excluded and stays null
	assert.True(t, dataset.IsNull(scores.Floats[4]))
	d2 := []float64{scores.Floats[3], scores.Floats[5]}
	assert.InDelta(t, 0, stat.Mean(d2, nil), 1e-12)
	assert.InDelta(t, 1, stat.StdDev(d2, nil), 1e-12)

	// input table untouched
	momentum, _ := table.Column("momentum")
	assert.Equal(t, 1.0, momentum.Floats[0])
	assert.False(t, table.HasColumn("momentum_std"))
}

func TestStandardizeMinMax(t *testing.T) {
	engine := NewEngine(testLogger())
	out, _, err := engine.Standardize(context.Background(), factorTable(t), Config{
		GroupBy: []string{"date"},
		Specs:   []ColumnSpec{specOf("momentum", MethodMinMax)},
	})
	require.NoError(t, err)

	scores, _ := out.Column("momentum_std")
	assert.Equal(t, 0.0, scores.Floats[0])
	assert.Equal(t, 0.5, scores.Floats[1])
	assert.Equal(t, 1.0, scores.Floats[2])
	assert.Equal(t, 0.0, scores.Floats[3])
	assert.True(t, dataset.IsNull(scores.Floats[4]))
	assert.Equal(t, 1.0, scores.Floats[5])
}

func TestStandardizeZeroVarianceGroup(t *testing.T) {
	table := dataset.New()
	require.NoError(t, table.AddString("date", []string{"d1", "d1", "d1"}))
	require.NoError(t, table.AddNumeric("factor", []float64{5, 5, 5}))

	engine := NewEngine(testLogger())
	out, warnings, err := engine.Standardize(context.Background(), table, Config{
		GroupBy: []string{"date"},
		Specs:   []ColumnSpec{specOf("factor", MethodZScore)},
	})
	require.NoError(t, err)

	scores, _ := out.Column("factor_std")
	assert.Equal(t, []float64{0, 0, 0}, scores.Floats)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnZeroVariance, warnings[0].Kind)
	assert.Equal(t, "factor", warnings[0].Column)
	assert.Equal(t, "d1", warnings[0].Group)
}

func TestStandardizeEmptyGroup(t *testing.T) {
	table := dataset.New()
	require.NoError(t, table.AddString("date", []string{"d1", "d1", "d2"}))
	require.NoError(t, table.AddNumeric("factor", []float64{dataset.Null(), dataset.Null(), 1}))

	engine := NewEngine(testLogger())
	out, warnings, err := engine.Standardize(context.Background(), table, Config{
		GroupBy: []string{"date"},
		Specs:   []ColumnSpec{specOf("factor", MethodZScore)},
	})
	require.NoError(t, err)

	scores, _ := out.Column("factor_std")
	assert.True(t, dataset.IsNull(scores.Floats[0]))
	assert.True(t, dataset.IsNull(scores.Floats[1]))

	// d1 has no eligible values; d2 is a single value, so zero variance
	require.Len(t, warnings, 2)
	assert.Equal(t, WarnEmptyGroup, warnings[0].Kind)
	assert.Equal(t, "d1", warnings[0].Group)
	assert.Equal(t, WarnZeroVariance, warnings[1].Kind)
	assert.Equal(t, "d2", warnings[1].Group)
}

func TestStandardizeOutlierThenZScore(t *testing.T) {
	table := dataset.New()
	require.NoError(t, table.AddNumeric("factor", []float64{1, 2, 3, 4, 100}))

	engine := NewEngine(testLogger())
	out, warnings, err := engine.Standardize(context.Background(), table, Config{
		Specs: []ColumnSpec{{
			Column:  "factor",
			Method:  MethodZScore,
			Missing: MissingDrop,
			Outlier: OutlierPolicy{Method: OutlierPercentile, Param: 90},
		}},
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	scores, _ := out.Column("factor_std")
	for i, s := range scores.Floats {
		require.False(t, dataset.IsNull(s), "row %d", i)
	}
	// the clipped outlier no longer dominates the group
	assert.Less(t, scores.Floats[4], 2.0)
	assert.InDelta(t, 0, stat.Mean(scores.Floats, nil), 1e-12)
}

func TestStandardizeReplaceMode(t *testing.T) {
	engine := NewEngine(testLogger())
	table := factorTable(t)

	out, _, err := engine.Standardize(context.Background(), table, Config{
		GroupBy: []string{"date"},
		Specs: []ColumnSpec{{
			Column:  "momentum",
			Method:  MethodRank,
			Missing: MissingDrop,
			Replace: true,
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, table.NumColumns(), out.NumColumns(), "replace adds no column")
	assert.Equal(t, []string{"date", "instrument", "momentum"}, out.ColumnNames())

	scores, _ := out.Column("momentum")
	assert.Equal(t, 0.0, scores.Floats[0])
	assert.Equal(t, 1.0, scores.Floats[2])
}

func TestStandardizeOutputOverride(t *testing.T) {
	engine := NewEngine(testLogger())
	out, _, err := engine.Standardize(context.Background(), factorTable(t), Config{
		GroupBy: []string{"date"},
		Specs: []ColumnSpec{{
			Column: "momentum", Method: MethodRank, Output: "momentum_rank",
		}},
	})
	require.NoError(t, err)
	assert.True(t, out.HasColumn("momentum_rank"))
	assert.False(t, out.HasColumn("momentum_std"))
}

func TestStandardizeMultipleSpecs(t *testing.T) {
	engine := NewEngine(testLogger())
	out, _, err := engine.Standardize(context.Background(), factorTable(t), Config{
		GroupBy: []string{"date"},
		Specs: []ColumnSpec{
			{Column: "momentum", Method: MethodZScore, Output: "momentum_z"},
			{Column: "momentum", Method: MethodRobustZScore, Output: "momentum_robust"},
			{Column: "momentum", Method: MethodRank, Output: "momentum_rank"},
			{Column: "momentum", Method: MethodRankToNormal, Output: "momentum_gauss"},
		},
	})
	require.NoError(t, err)
	assert.True(t, out.HasColumn("momentum_z"))
	assert.True(t, out.HasColumn("momentum_robust"))
	assert.True(t, out.HasColumn("momentum_rank"))
	assert.True(t, out.HasColumn("momentum_gauss"))

	// excluded rows are null in every output
	for _, name := range []string{"momentum_z", "momentum_robust", "momentum_rank", "momentum_gauss"} {
		col, _ := out.Column(name)
		assert.True(t, dataset.IsNull(col.Floats[4]), name)
	}
}

func TestStandardizeIdempotentZScore(t *testing.T) {
	table := dataset.New()
	require.NoError(t, table.AddNumeric("factor", []float64{3, 9, -4, 0.5, 12, -7}))

	engine := NewEngine(testLogger())
	cfg := Config{Specs: []ColumnSpec{specOf("factor", MethodZScore)}}

	once, _, err := engine.Standardize(context.Background(), table, cfg)
	require.NoError(t, err)

	// feed the standardized output back in as the new raw column
	onceScores, _ := once.Column("factor_std")
	again := dataset.New()
	require.NoError(t, again.AddNumeric("factor", onceScores.Floats))

	twice, _, err := engine.Standardize(context.Background(), again, cfg)
	require.NoError(t, err)

	twiceScores, _ := twice.Column("factor_std")
	for i := range onceScores.Floats {
		assert.InDelta(t, onceScores.Floats[i], twiceScores.Floats[i], 1e-12)
	}
}

func TestStandardizeDeterministicUnderConcurrency(t *testing.T) {
	table := dataset.New()
	n := 500
	dates := make([]string, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		dates[i] = string(rune('a' + i%17))
		values[i] = float64((i*31)%101) - 50
		if i%13 == 0 {
			values[i] = dataset.Null()
		}
	}
	require.NoError(t, table.AddString("date", dates))
	require.NoError(t, table.AddNumeric("factor", values))

	cfg := Config{
		GroupBy: []string{"date"},
		Specs: []ColumnSpec{{
			Column:  "factor",
			Method:  MethodRankToNormal,
			Missing: MissingDrop,
			Outlier: OutlierPolicy{Method: OutlierMAD, Param: 3},
		}},
	}

	serial := NewEngine(testLogger())
	serial.SetMaxConcurrency(1)
	parallel := NewEngine(testLogger())
	parallel.SetMaxConcurrency(16)

	outSerial, warnSerial, err := serial.Standardize(context.Background(), table, cfg)
	require.NoError(t, err)
	outParallel, warnParallel, err := parallel.Standardize(context.Background(), table, cfg)
	require.NoError(t, err)

	a, _ := outSerial.Column("factor_std")
	b, _ := outParallel.Column("factor_std")
	for i := range a.Floats {
		if dataset.IsNull(a.Floats[i]) {
			assert.True(t, dataset.IsNull(b.Floats[i]), "row %d", i)
			continue
		}
		assert.Equal(t, a.Floats[i], b.Floats[i], "row %d", i)
	}
	assert.Equal(t, warnSerial, warnParallel)
}

func TestStandardizeConfigErrors(t *testing.T) {
	engine := NewEngine(testLogger())
	table := factorTable(t)

	tests := []struct {
		name   string
		cfg    Config
		config bool // expect ConfigError; otherwise SchemaError
	}{
		{
			name:   "no specs",
			cfg:    Config{},
			config: true,
		},
		{
			name:   "unknown method",
			cfg:    Config{Specs: []ColumnSpec{{Column: "momentum", Method: "robust"}}},
			config: true,
		},
		{
			name:   "unknown missing policy",
			cfg:    Config{Specs: []ColumnSpec{{Column: "momentum", Method: MethodZScore, Missing: "interpolate"}}},
			config: true,
		},
		{
			name: "bad percentile parameter",
			cfg: Config{Specs: []ColumnSpec{{
				Column: "momentum", Method: MethodZScore,
				Outlier: OutlierPolicy{Method: OutlierPercentile, Param: 100},
			}}},
			config: true,
		},
		{
			name: "negative mad parameter",
			cfg: Config{Specs: []ColumnSpec{{
				Column: "momentum", Method: MethodZScore,
				Outlier: OutlierPolicy{Method: OutlierMAD, Param: -1},
			}}},
			config: true,
		},
		{
			name:   "unknown grouping field",
			cfg:    Config{GroupBy: []string{"exchange"}, Specs: []ColumnSpec{specOf("momentum", MethodZScore)}},
			config: true,
		},
		{
			name: "duplicate output columns",
			cfg: Config{Specs: []ColumnSpec{
				{Column: "momentum", Method: MethodZScore, Output: "x"},
				{Column: "momentum", Method: MethodRank, Output: "x"},
			}},
			config: true,
		},
		{
			name:   "output collides with existing column",
			cfg:    Config{Specs: []ColumnSpec{{Column: "momentum", Method: MethodZScore, Output: "instrument"}}},
			config: true,
		},
		{
			name:   "unknown target column",
			cfg:    Config{Specs: []ColumnSpec{specOf("volatility", MethodZScore)}},
			config: false,
		},
		{
			name:   "non-numeric target column",
			cfg:    Config{Specs: []ColumnSpec{specOf("instrument", MethodZScore)}},
			config: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, warnings, err := engine.Standardize(context.Background(), table, tt.cfg)
			require.Error(t, err)
			assert.Nil(t, out, "fatal errors must not produce partial output")
			assert.Nil(t, warnings)
			if tt.config {
				assert.True(t, apierrors.IsConfigError(err), "want ConfigError, got %v", err)
			} else {
				assert.True(t, apierrors.IsSchemaError(err), "want SchemaError, got %v", err)
			}
		})
	}
}

func TestStandardizeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(testLogger())
	_, _, err := engine.Standardize(ctx, factorTable(t), Config{
		Specs: []ColumnSpec{specOf("momentum", MethodZScore)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
