// pkg/ops/structure.go
package ops

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"datasmith/pkg/dataset"
)

// dropColumns removes the target columns.
func dropColumns(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	if s, done := guard(ds, columns); done {
		return ds, s
	}
	out := ds.Clone()
	out.DropColumns(columns...)
	return out, Stats{"dropped": len(columns)}
}

// renameColumns renames columns per params["mapping"]; it takes no column
// selection of its own.
func renameColumns(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	mapping := params.StringMap("mapping")
	if len(mapping) == 0 {
		s := Stats{}
		s.setError("rename_columns requires a mapping parameter")
		return ds, s
	}
	out := ds.Clone()
	if err := out.RenameColumns(mapping); err != nil {
		s := Stats{}
		s.setError("%v", err)
		return ds, s
	}
	return out, Stats{"renamed": len(mapping)}
}

// combineColumns joins two or more columns into one text column, separated by
// params["separator"] (default " "). Missing cells render as empty strings;
// the new column name comes from params["new_column_name"].
func combineColumns(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	if s, done := guard(ds, columns); done {
		return ds, s
	}
	if len(columns) < 2 {
		s := Stats{}
		s.setError("combine_columns requires at least two columns")
		return ds, s
	}

	separator := params.String("separator", " ")
	newName := params.String("new_column_name", strings.Join(columns, "_"))

	out := ds.Clone()
	combined := make([]interface{}, out.Rows())
	for i := 0; i < out.Rows(); i++ {
		parts := make([]string, 0, len(columns))
		for _, name := range columns {
			col, _ := out.Column(name)
			parts = append(parts, renderValue(col.Values[i]))
		}
		combined[i] = strings.Join(parts, separator)
	}
	if err := out.AddColumn(dataset.Column{Name: newName, Type: dataset.Text, Values: combined}); err != nil {
		s := Stats{}
		s.setError("%v", err)
		return ds, s
	}
	return out, Stats{"new_column": newName, "combined": len(columns)}
}

// createBins buckets a single numeric column into equal-width bins, writing
// interval labels into a new categorical column (default <column>_bins).
// num_bins defaults to 5. A constant column lands entirely in one bin.
func createBins(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	if s, done := guard(ds, columns); done {
		return ds, s
	}
	if len(columns) != 1 {
		s := Stats{}
		s.setError("create_bins takes exactly one column, got %d", len(columns))
		return ds, s
	}
	if s := requireType(ds, columns, dataset.Numeric); s != nil {
		return ds, s
	}

	numBins := params.Int("num_bins", 5)
	if numBins < 1 {
		s := Stats{}
		s.setError("num_bins must be a positive integer, got %d", numBins)
		return ds, s
	}

	name := columns[0]
	newName := params.String("new_column_name", name+"_bins")

	out := ds.Clone()
	col, _ := out.Column(name)
	values := col.Floats()

	labels := make([]interface{}, col.Len())
	if len(values) > 0 {
		min, max := dataset.MinMax(values)
		if max == min {
			single := fmt.Sprintf("[%s, %s]", formatBound(min), formatBound(max))
			for i, v := range col.Values {
				if _, ok := v.(float64); ok {
					labels[i] = single
				}
			}
		} else {
			width := (max - min) / float64(numBins)
			for i, v := range col.Values {
				f, ok := v.(float64)
				if !ok {
					continue
				}
				idx := int((f - min) / width)
				if idx >= numBins {
					idx = numBins - 1
				}
				lo := min + float64(idx)*width
				hi := lo + width
				labels[i] = fmt.Sprintf("(%s, %s]", formatBound(lo), formatBound(hi))
			}
		}
	}

	if err := out.AddColumn(dataset.Column{Name: newName, Type: dataset.Categorical, Values: labels}); err != nil {
		s := Stats{}
		s.setError("%v", err)
		return ds, s
	}
	return out, Stats{"new_column": newName, "num_bins": numBins}
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}

// renderValue formats a cell for text concatenation.
func renderValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
