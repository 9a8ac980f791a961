// pkg/ops/encode.go
package ops

import (
	"sort"

	"datasmith/pkg/dataset"
)

// encodeCategorical encodes categorical (or text) columns. Method "onehot"
// (default) replaces each target column with one boolean column per distinct
// value, named <column>_<value> in sorted value order; missing cells map to
// false in every indicator. Method "label" replaces values with numeric codes
// assigned in sorted value order; missing cells stay missing, and the
// code-to-value mapping is reported in the stats.
func encodeCategorical(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	if s, done := guard(ds, columns); done {
		return ds, s
	}
	if s := requireType(ds, columns, dataset.Categorical, dataset.Text, dataset.Boolean); s != nil {
		return ds, s
	}

	method := params.String("method", "onehot")
	if method != "onehot" && method != "label" {
		s := Stats{}
		s.setError("unknown encode method %q (want onehot or label)", method)
		return ds, s
	}

	out := ds.Clone()
	stats := Stats{}
	for _, name := range columns {
		col, _ := out.Column(name)
		values := distinctStrings(col)

		if method == "label" {
			codes := make(map[string]float64, len(values))
			for i, v := range values {
				codes[v] = float64(i)
			}
			encoded := make([]interface{}, col.Len())
			for i, v := range col.Values {
				if v == nil {
					continue
				}
				encoded[i] = codes[stringValue(v)]
			}
			col.Type = dataset.Numeric
			col.Values = encoded

			mapping := make(map[string]interface{}, len(values))
			for v, code := range codes {
				mapping[v] = code
			}
			stats.merge(name, Stats{"method": "label", "categories": len(values), "mapping": mapping}, len(columns))
			continue
		}

		for _, v := range values {
			indicator := make([]interface{}, col.Len())
			for i, cell := range col.Values {
				indicator[i] = cell != nil && stringValue(cell) == v
			}
			if err := out.AddColumn(dataset.Column{
				Name:   name + "_" + v,
				Type:   dataset.Boolean,
				Values: indicator,
			}); err != nil {
				s := Stats{}
				s.setError("column %s: %v", name, err)
				return ds, s
			}
		}
		out.DropColumns(name)
		stats.merge(name, Stats{"method": "onehot", "categories": len(values)}, len(columns))
	}
	return out, stats
}

// distinctStrings returns the sorted distinct non-missing values of a column
// rendered as strings.
func distinctStrings(col *dataset.Column) []string {
	seen := make(map[string]struct{})
	for _, v := range col.Values {
		if v != nil {
			seen[stringValue(v)] = struct{}{}
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
