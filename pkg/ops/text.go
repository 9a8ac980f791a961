// pkg/ops/text.go
package ops

import (
	"regexp"
	"strings"

	"datasmith/pkg/dataset"
)

var multiSpace = regexp.MustCompile(`\s+`)

// standardizeCategoryNames normalizes string values: trims, collapses runs of
// whitespace to one space, and converts to the requested case ("upper"
// (default), "lower" or "title").
func standardizeCategoryNames(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	if s, done := guard(ds, columns); done {
		return ds, s
	}
	if s := requireType(ds, columns, dataset.Categorical, dataset.Text); s != nil {
		return ds, s
	}

	casing := strings.ToLower(params.String("case", "upper"))
	var convert func(string) string
	switch casing {
	case "upper":
		convert = strings.ToUpper
	case "lower":
		convert = strings.ToLower
	case "title":
		convert = titleCase
	default:
		s := Stats{}
		s.setError("unknown case %q (want upper, lower or title)", casing)
		return ds, s
	}

	out := ds.Clone()
	stats := Stats{}
	for _, name := range columns {
		col, _ := out.Column(name)
		changed := 0
		for i, v := range col.Values {
			raw, ok := v.(string)
			if !ok {
				continue
			}
			cleaned := multiSpace.ReplaceAllString(strings.TrimSpace(raw), " ")
			cleaned = convert(cleaned)
			if cleaned != raw {
				col.Values[i] = cleaned
				changed++
			}
		}
		stats.merge(name, Stats{"case": casing, "values_changed": changed}, len(columns))
	}
	return out, stats
}

// titleCase uppercases the first letter of each space-separated word and
// lowercases the rest.
func titleCase(s string) string {
	words := strings.Split(strings.ToLower(s), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
