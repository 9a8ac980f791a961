// pkg/ops/datetime.go
package ops

import (
	"fmt"
	"strings"
	"time"

	"datasmith/pkg/dataset"
)

// timeFormats are tried in order when parsing datetime text without an
// explicit layout.
var timeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"01-02-2006",
	"2006/01/02",
}

// ParseTime parses a datetime string against the common layouts.
func ParseTime(value string) (time.Time, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty string")
	}
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time from %q", value)
}

// toDatetime parses text columns into datetime columns using the common
// layouts. A column with any unparseable value is left unchanged and the
// failure is recorded in that column's stats; other target columns still
// convert.
func toDatetime(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	return parseDatetime(ds, columns, "")
}

// formatDates parses text columns into datetime columns with an explicit Go
// layout from params["format"], falling back to the common layouts when the
// parameter is absent.
func formatDates(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	return parseDatetime(ds, columns, params.String("format", ""))
}

func parseDatetime(ds *dataset.Dataset, columns []string, layout string) (*dataset.Dataset, Stats) {
	if s, done := guard(ds, columns); done {
		return ds, s
	}

	out := ds.Clone()
	stats := Stats{}
	for _, name := range columns {
		col, _ := out.Column(name)
		if col.Type == dataset.Datetime {
			stats.merge(name, Stats{"converted": 0}, len(columns))
			continue
		}
		if !col.IsStringTyped() {
			cs := Stats{}
			cs.setError("column %s has type %s; expected text or categorical", name, col.Type)
			stats.merge(name, cs, len(columns))
			continue
		}

		parsed := make([]interface{}, col.Len())
		converted := 0
		var parseErr error
		for i, v := range col.Values {
			if v == nil {
				continue
			}
			raw := v.(string)
			var t time.Time
			var err error
			if layout != "" {
				t, err = time.Parse(layout, strings.TrimSpace(raw))
			} else {
				t, err = ParseTime(raw)
			}
			if err != nil {
				parseErr = fmt.Errorf("row %d: %v", i, err)
				break
			}
			parsed[i] = t
			converted++
		}
		if parseErr != nil {
			// Keep the column unchanged when any value fails to parse.
			cs := Stats{}
			cs.setError("column %s: %v", name, parseErr)
			stats.merge(name, cs, len(columns))
			continue
		}

		col.Type = dataset.Datetime
		col.Values = parsed
		stats.merge(name, Stats{"converted": converted}, len(columns))
	}
	return out, stats
}

// convertNumericToDatetime interprets numeric columns as unix timestamps.
// Values above 2e10 are taken as milliseconds, otherwise seconds.
func convertNumericToDatetime(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	if s, done := guard(ds, columns); done {
		return ds, s
	}
	if s := requireType(ds, columns, dataset.Numeric); s != nil {
		return ds, s
	}

	out := ds.Clone()
	stats := Stats{}
	for _, name := range columns {
		col, _ := out.Column(name)
		values := col.Floats()
		unit := "s"
		if len(values) > 0 {
			if _, max := dataset.MinMax(values); max > 2e10 {
				unit = "ms"
			}
		}

		converted := make([]interface{}, col.Len())
		count := 0
		for i, v := range col.Values {
			f, ok := v.(float64)
			if !ok {
				continue
			}
			if unit == "ms" {
				converted[i] = time.UnixMilli(int64(f)).UTC()
			} else {
				converted[i] = time.Unix(int64(f), 0).UTC()
			}
			count++
		}
		col.Type = dataset.Datetime
		col.Values = converted
		stats.merge(name, Stats{"unit": unit, "converted": count}, len(columns))
	}
	return out, stats
}

// extractDatePart writes one part of a datetime column into a new numeric
// column <column>_<part>. Parts: year, month, day, hour, minute, weekday
// (0 = Sunday). Default part is "year".
func extractDatePart(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	if s, done := guard(ds, columns); done {
		return ds, s
	}
	if s := requireType(ds, columns, dataset.Datetime); s != nil {
		return ds, s
	}

	part := params.String("part", "year")
	var extract func(time.Time) float64
	switch part {
	case "year":
		extract = func(t time.Time) float64 { return float64(t.Year()) }
	case "month":
		extract = func(t time.Time) float64 { return float64(t.Month()) }
	case "day":
		extract = func(t time.Time) float64 { return float64(t.Day()) }
	case "hour":
		extract = func(t time.Time) float64 { return float64(t.Hour()) }
	case "minute":
		extract = func(t time.Time) float64 { return float64(t.Minute()) }
	case "weekday":
		extract = func(t time.Time) float64 { return float64(t.Weekday()) }
	default:
		s := Stats{}
		s.setError("unknown date part %q", part)
		return ds, s
	}

	out := ds.Clone()
	stats := Stats{}
	for _, name := range columns {
		col, _ := out.Column(name)
		derived := make([]interface{}, col.Len())
		for i, v := range col.Values {
			if t, ok := v.(time.Time); ok {
				derived[i] = extract(t)
			}
		}
		newName := name + "_" + part
		if err := out.AddColumn(dataset.Column{Name: newName, Type: dataset.Numeric, Values: derived}); err != nil {
			s := Stats{}
			s.setError("column %s: %v", name, err)
			return ds, s
		}
		stats.merge(name, Stats{"part": part, "new_column": newName}, len(columns))
	}
	return out, stats
}
