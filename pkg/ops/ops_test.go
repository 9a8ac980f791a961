// pkg/ops/ops_test.go
package ops

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datasmith/pkg/dataset"
)

func numericDataset(t *testing.T, name string, values []interface{}) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New("test", dataset.Column{Name: name, Type: dataset.Numeric, Values: values})
	require.NoError(t, err)
	return ds
}

func floatsOf(t *testing.T, ds *dataset.Dataset, name string) []interface{} {
	t.Helper()
	col, ok := ds.Column(name)
	require.True(t, ok, "column %s should exist", name)
	return col.Values
}

func TestApplyUnknownOperation(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{1.0})
	_, _, err := Apply(ds, "no_such_op", []string{"x"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")
}

func TestEmptySelectionIsNoOp(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{1.0, nil})
	out, stats, err := Apply(ds, "impute_missing_mean", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, stats)
	assert.Equal(t, ds, out)
}

func TestMissingColumnReportsErrorStat(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{1.0})
	out, stats, err := Apply(ds, "impute_missing_mean", []string{"ghost"}, nil)
	require.NoError(t, err)
	assert.Contains(t, stats.Error(), "ghost")
	assert.Equal(t, ds, out)
}

func TestWrongTypeReportsErrorStat(t *testing.T) {
	ds, err := dataset.New("test",
		dataset.Column{Name: "city", Type: dataset.Text, Values: []interface{}{"Oslo", "Bergen"}})
	require.NoError(t, err)

	out, stats, err := Apply(ds, "log_transform", []string{"city"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, stats.Error())
	assert.Equal(t, ds, out)
}

func TestImputeMissingMean(t *testing.T) {
	ds := numericDataset(t, "income", []interface{}{100.0, nil, 300.0, 300.0})

	out, stats, err := Apply(ds, "impute_missing_mean", []string{"income"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())

	mean := (100.0 + 300.0 + 300.0) / 3
	assert.Equal(t, 1, stats["missing_before"])
	assert.InDelta(t, mean, stats["mean"].(float64), 1e-9)
	assert.Equal(t, 1, stats["filled"])

	values := floatsOf(t, out, "income")
	assert.InDelta(t, mean, values[1].(float64), 1e-9)

	// The input dataset is untouched.
	assert.Nil(t, floatsOf(t, ds, "income")[1])
}

func TestImputeMissingMedian(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{1.0, nil, 3.0, 100.0})
	out, stats, err := Apply(ds, "impute_missing_median", []string{"x"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.InDelta(t, 3.0, stats["median"].(float64), 1e-9)
	assert.Equal(t, 3.0, floatsOf(t, out, "x")[1])
}

func TestImputeMissingModeBreaksTiesDeterministically(t *testing.T) {
	ds, err := dataset.New("test",
		dataset.Column{Name: "c", Type: dataset.Categorical, Values: []interface{}{"b", "a", nil, "a", "b"}})
	require.NoError(t, err)

	out, stats, err := Apply(ds, "impute_missing_mode", []string{"c"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	// "a" and "b" both appear twice; the smaller representation wins.
	assert.Equal(t, "a", stats["mode"])
	assert.Equal(t, "a", floatsOf(t, out, "c")[2])
}

func TestImputeMissingConstantRequiresValue(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{nil, 2.0})
	_, stats, err := Apply(ds, "impute_missing_constant", []string{"x"}, nil)
	require.NoError(t, err)
	assert.Contains(t, stats.Error(), "value")
}

func TestImputeMissingConstantCoercesPerType(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{nil, 2.0})
	out, stats, err := Apply(ds, "impute_missing_constant", []string{"x"}, Params{"value": 7.0})
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, 7.0, floatsOf(t, out, "x")[0])

	_, stats, err = Apply(ds, "impute_missing_constant", []string{"x"}, Params{"value": true})
	require.NoError(t, err)
	assert.NotEmpty(t, stats.Error())
}

func TestImputeDirectional(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{nil, 1.0, nil, nil, 4.0})

	out, stats, err := Apply(ds, "impute_missing_ffill", []string{"x"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	values := floatsOf(t, out, "x")
	assert.Nil(t, values[0], "leading missing cell stays missing on ffill")
	assert.Equal(t, 1.0, values[2])
	assert.Equal(t, 1.0, values[3])

	out, stats, err = Apply(ds, "impute_missing_bfill", []string{"x"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	values = floatsOf(t, out, "x")
	assert.Equal(t, 1.0, values[0])
	assert.Equal(t, 4.0, values[2])
}

func TestRemoveOutliersZScore(t *testing.T) {
	values := []interface{}{10.0, 11.0, 9.0, 10.0, 11.0, 9.0, 10.0, 1000.0}
	ds := numericDataset(t, "x", values)

	out, stats, err := Apply(ds, "remove_outliers", []string{"x"}, Params{"threshold": 2.0})
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, "zscore", stats["method"])
	assert.Equal(t, 1, stats["rows_removed"])
	assert.Equal(t, 8, ds.Rows(), "input unchanged")
	assert.Equal(t, 7, out.Rows())
}

func TestRemoveOutliersIQR(t *testing.T) {
	values := []interface{}{1.0, 2.0, 2.0, 3.0, 2.0, 3.0, 1.0, 2.0, 50.0}
	ds := numericDataset(t, "x", values)

	out, stats, err := Apply(ds, "remove_outliers", []string{"x"}, Params{"method": "iqr", "k": 1.5})
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, 8, out.Rows())
	assert.Equal(t, 1, stats["rows_removed"])
}

func TestRemoveOutliersIgnoresMissing(t *testing.T) {
	values := []interface{}{10.0, nil, 9.0, 11.0, 10.0, 9.0, 11.0}
	ds := numericDataset(t, "x", values)

	out, stats, err := Apply(ds, "remove_outliers", []string{"x"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, ds.Rows(), out.Rows(), "missing cells are never outliers")
}

func TestCapOutliersKeepsShape(t *testing.T) {
	values := []interface{}{10.0, 11.0, 9.0, 10.0, 11.0, 9.0, 10.0, 1000.0}
	ds := numericDataset(t, "x", values)

	out, stats, err := Apply(ds, "cap_outliers", []string{"x"}, Params{"threshold": 2.0})
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, ds.Rows(), out.Rows())
	assert.Equal(t, 1, stats["values_capped"])

	capped := floatsOf(t, out, "x")[7].(float64)
	assert.Less(t, capped, 1000.0)
	assert.InDelta(t, stats["upper_bound"].(float64), capped, 1e-9)
}

func TestNormalizeMinMax(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{0.0, 5.0, 10.0})
	out, stats, err := Apply(ds, "normalize", []string{"x"}, Params{"method": "minmax"})
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, true, stats["scaled"])

	values := floatsOf(t, out, "x")
	assert.Equal(t, 0.0, values[0])
	assert.Equal(t, 0.5, values[1])
	assert.Equal(t, 1.0, values[2])
}

func TestNormalizeConstantColumnUnchanged(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{4.0, 4.0, 4.0})
	out, stats, err := Apply(ds, "normalize", []string{"x"}, Params{"method": "minmax"})
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, false, stats["scaled"])
	assert.Equal(t, []interface{}{4.0, 4.0, 4.0}, floatsOf(t, out, "x"))
}

func TestNormalizeRejectsUnknownMethod(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{1.0, 2.0})
	_, stats, err := Apply(ds, "normalize", []string{"x"}, Params{"method": "banana"})
	require.NoError(t, err)
	assert.Contains(t, stats.Error(), "banana")
}

func TestStandardizeDataForcesZScore(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{1.0, 2.0, 3.0})
	out, stats, err := Apply(ds, "standardize_data", []string{"x"}, Params{"method": "minmax"})
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, "zscore", stats["method"])

	values := floatsOf(t, out, "x")
	assert.InDelta(t, -1.0, values[0].(float64), 1e-9)
	assert.InDelta(t, 0.0, values[1].(float64), 1e-9)
	assert.InDelta(t, 1.0, values[2].(float64), 1e-9)
}

func TestLogTransformAutoShift(t *testing.T) {
	ds := numericDataset(t, "X", []interface{}{-5.0, 0.0, 5.0, 10.0})

	out, stats, err := Apply(ds, "log_transform", []string{"X"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())

	// min is -5, so the shift is abs(-5)+1 = 6.
	assert.Equal(t, 6.0, stats["shift"])
	assert.Equal(t, "X_log", stats["new_column"])

	values := floatsOf(t, out, "X_log")
	assert.InDelta(t, math.Log(1), values[0].(float64), 1e-9)
	assert.InDelta(t, math.Log(6), values[1].(float64), 1e-9)
	assert.InDelta(t, math.Log(11), values[2].(float64), 1e-9)
	assert.InDelta(t, math.Log(16), values[3].(float64), 1e-9)

	// Source column kept.
	assert.True(t, out.HasColumn("X"))
}

func TestLogTransformNoShiftForPositiveData(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{1.0, math.E})
	out, stats, err := Apply(ds, "log_transform", []string{"x"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, 0.0, stats["shift"])
	assert.InDelta(t, 1.0, floatsOf(t, out, "x_log")[1].(float64), 1e-9)
}

func TestBoxcoxTransform(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{1.0, 4.0, 9.0})

	out, stats, err := Apply(ds, "boxcox_transform", []string{"x"}, Params{"lambda": 0.5})
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, 0.5, stats["lambda"])

	// lambda=0.5: (sqrt(x)-1)/0.5
	values := floatsOf(t, out, "x_boxcox")
	assert.InDelta(t, (2.0-1)/0.5, values[1].(float64), 1e-9)
	assert.InDelta(t, (3.0-1)/0.5, values[2].(float64), 1e-9)
}

func TestRoundOffDefaultsToTwoDecimals(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{1.2345, 2.5555, nil})
	out, stats, err := Apply(ds, "round_off", []string{"x"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, 2, stats["decimals"])

	values := floatsOf(t, out, "x")
	assert.Equal(t, 1.23, values[0])
	assert.Equal(t, 2.56, values[1])
	assert.Nil(t, values[2])
}

func TestRoundOffRejectsNegativeDecimals(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{1.5})
	out, stats, err := Apply(ds, "round_off", []string{"x"}, Params{"decimals": -1.0})
	require.NoError(t, err)
	assert.Contains(t, stats.Error(), "non-negative")
	assert.Equal(t, ds, out)
}

func TestEncodeCategoricalOneHot(t *testing.T) {
	ds, err := dataset.New("test",
		dataset.Column{Name: "color", Type: dataset.Categorical, Values: []interface{}{"red", "blue", nil, "red"}})
	require.NoError(t, err)

	out, stats, err := Apply(ds, "encode_categorical", []string{"color"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, 2, stats["categories"])

	assert.False(t, out.HasColumn("color"))
	blue := floatsOf(t, out, "color_blue")
	red := floatsOf(t, out, "color_red")
	assert.Equal(t, []interface{}{false, true, false, false}, blue)
	assert.Equal(t, []interface{}{true, false, false, true}, red)
}

func TestEncodeCategoricalLabel(t *testing.T) {
	ds, err := dataset.New("test",
		dataset.Column{Name: "size", Type: dataset.Categorical, Values: []interface{}{"small", "large", nil, "small"}})
	require.NoError(t, err)

	out, stats, err := Apply(ds, "encode_categorical", []string{"size"}, Params{"method": "label"})
	require.NoError(t, err)
	require.Empty(t, stats.Error())

	col, ok := out.Column("size")
	require.True(t, ok)
	assert.Equal(t, dataset.Numeric, col.Type)
	// Sorted order: large=0, small=1. Missing stays missing.
	assert.Equal(t, []interface{}{1.0, 0.0, nil, 1.0}, col.Values)
}

func TestToDatetimeSkipsUnparseableColumn(t *testing.T) {
	ds, err := dataset.New("test",
		dataset.Column{Name: "good", Type: dataset.Text, Values: []interface{}{"2024-01-02", "2024-03-04"}},
		dataset.Column{Name: "bad", Type: dataset.Text, Values: []interface{}{"2024-01-02", "not a date"}})
	require.NoError(t, err)

	out, stats, err := Apply(ds, "to_datetime", []string{"good", "bad"}, nil)
	require.NoError(t, err)

	goodCol, _ := out.Column("good")
	assert.Equal(t, dataset.Datetime, goodCol.Type)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), goodCol.Values[0])

	badCol, _ := out.Column("bad")
	assert.Equal(t, dataset.Text, badCol.Type, "unparseable column stays unchanged")

	badStats, ok := stats["bad"].(Stats)
	require.True(t, ok)
	assert.NotEmpty(t, badStats.Error())
}

func TestConvertNumericToDatetimeUnitHeuristic(t *testing.T) {
	seconds := numericDataset(t, "ts", []interface{}{1700000000.0})
	out, stats, err := Apply(seconds, "convert_numeric_to_datetime", []string{"ts"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, "s", stats["unit"])
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), floatsOf(t, out, "ts")[0])

	millis := numericDataset(t, "ts", []interface{}{1700000000000.0})
	out, stats, err = Apply(millis, "convert_numeric_to_datetime", []string{"ts"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, "ms", stats["unit"])
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), floatsOf(t, out, "ts")[0])
}

func TestExtractDatePart(t *testing.T) {
	ds, err := dataset.New("test",
		dataset.Column{Name: "when", Type: dataset.Datetime, Values: []interface{}{
			time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC), nil,
		}})
	require.NoError(t, err)

	out, stats, err := Apply(ds, "extract_date_part", []string{"when"}, Params{"part": "month"})
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, "when_month", stats["new_column"])

	values := floatsOf(t, out, "when_month")
	assert.Equal(t, 6.0, values[0])
	assert.Nil(t, values[1])
}

func TestDropAndRenameColumns(t *testing.T) {
	ds, err := dataset.New("test",
		dataset.Column{Name: "a", Type: dataset.Numeric, Values: []interface{}{1.0}},
		dataset.Column{Name: "b", Type: dataset.Numeric, Values: []interface{}{2.0}})
	require.NoError(t, err)

	out, stats, err := Apply(ds, "drop_columns", []string{"a"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.False(t, out.HasColumn("a"))
	assert.True(t, out.HasColumn("b"))

	out, stats, err = Apply(ds, "rename_columns", nil, Params{"mapping": map[string]interface{}{"a": "alpha"}})
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.True(t, out.HasColumn("alpha"))

	// Renaming onto an existing name is rejected.
	_, stats, err = Apply(ds, "rename_columns", nil, Params{"mapping": map[string]interface{}{"a": "b"}})
	require.NoError(t, err)
	assert.NotEmpty(t, stats.Error())
}

func TestCombineColumns(t *testing.T) {
	ds, err := dataset.New("test",
		dataset.Column{Name: "first", Type: dataset.Text, Values: []interface{}{"Ada", nil}},
		dataset.Column{Name: "last", Type: dataset.Text, Values: []interface{}{"Lovelace", "Turing"}})
	require.NoError(t, err)

	out, stats, err := Apply(ds, "combine_columns", []string{"first", "last"},
		Params{"separator": " ", "new_column_name": "full_name"})
	require.NoError(t, err)
	require.Empty(t, stats.Error())

	values := floatsOf(t, out, "full_name")
	assert.Equal(t, "Ada Lovelace", values[0])
	assert.Equal(t, " Turing", values[1])
}

func TestCombineColumnsNeedsTwo(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{1.0})
	_, stats, err := Apply(ds, "combine_columns", []string{"x"}, nil)
	require.NoError(t, err)
	assert.Contains(t, stats.Error(), "two columns")
}

func TestCreateBins(t *testing.T) {
	ds := numericDataset(t, "age", []interface{}{0.0, 25.0, 50.0, 75.0, 100.0, nil})

	out, stats, err := Apply(ds, "create_bins", []string{"age"}, Params{"num_bins": 4.0})
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, "age_bins", stats["new_column"])

	col, ok := out.Column("age_bins")
	require.True(t, ok)
	assert.Equal(t, dataset.Categorical, col.Type)
	assert.Equal(t, "(0, 25]", col.Values[0])
	assert.Equal(t, "(25, 50]", col.Values[1])
	assert.Equal(t, "(75, 100]", col.Values[4], "max value lands in the last bin")
	assert.Nil(t, col.Values[5])
}

func TestCreateBinsConstantColumn(t *testing.T) {
	ds := numericDataset(t, "x", []interface{}{3.0, 3.0})
	out, stats, err := Apply(ds, "create_bins", []string{"x"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	col, _ := out.Column("x_bins")
	assert.Equal(t, "[3, 3]", col.Values[0])
}

func TestCreateBinsSingleColumnOnly(t *testing.T) {
	ds, err := dataset.New("test",
		dataset.Column{Name: "a", Type: dataset.Numeric, Values: []interface{}{1.0}},
		dataset.Column{Name: "b", Type: dataset.Numeric, Values: []interface{}{2.0}})
	require.NoError(t, err)

	_, stats, err := Apply(ds, "create_bins", []string{"a", "b"}, nil)
	require.NoError(t, err)
	assert.Contains(t, stats.Error(), "exactly one column")
}

func TestStandardizeCategoryNames(t *testing.T) {
	ds, err := dataset.New("test",
		dataset.Column{Name: "region", Type: dataset.Categorical,
			Values: []interface{}{" north ", "North", "SOUTH   east", nil}})
	require.NoError(t, err)

	out, stats, err := Apply(ds, "standardize_category_names", []string{"region"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, "upper", stats["case"])

	values := floatsOf(t, out, "region")
	assert.Equal(t, "NORTH", values[0])
	assert.Equal(t, "NORTH", values[1])
	assert.Equal(t, "SOUTH EAST", values[2])
	assert.Nil(t, values[3])
}

func TestStandardizeCategoryNamesTitleCase(t *testing.T) {
	ds, err := dataset.New("test",
		dataset.Column{Name: "c", Type: dataset.Text, Values: []interface{}{"hello  WORLD"}})
	require.NoError(t, err)

	out, stats, err := Apply(ds, "standardize_category_names", []string{"c"}, Params{"case": "title"})
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, "Hello World", floatsOf(t, out, "c")[0])
}

func TestMultiColumnStatsAreNested(t *testing.T) {
	ds, err := dataset.New("test",
		dataset.Column{Name: "a", Type: dataset.Numeric, Values: []interface{}{1.0, nil}},
		dataset.Column{Name: "b", Type: dataset.Numeric, Values: []interface{}{nil, 2.0}})
	require.NoError(t, err)

	_, stats, err := Apply(ds, "impute_missing_mean", []string{"a", "b"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())

	aStats, ok := stats["a"].(Stats)
	require.True(t, ok)
	assert.Equal(t, 1, aStats["missing_before"])
	bStats, ok := stats["b"].(Stats)
	require.True(t, ok)
	assert.Equal(t, 1, bStats["filled"])
}

func TestIDsAndLookupAgree(t *testing.T) {
	ids := IDs()
	require.NotEmpty(t, ids)
	for _, id := range ids {
		op, ok := Lookup(id)
		require.True(t, ok)
		assert.Equal(t, id, op.ID)
		assert.NotEmpty(t, op.Summary)
		assert.NotNil(t, op.Run)
	}
}
