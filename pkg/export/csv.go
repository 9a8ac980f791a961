// pkg/export/csv.go
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"datasmith/pkg/dataset"
)

// WriteCSV writes a dataset as CSV with a header row. Missing values become
// empty cells; timestamps are RFC3339.
func WriteCSV(ds *dataset.Dataset, w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(ds.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	cols := ds.Columns()
	row := make([]string, len(cols))
	for i := 0; i < ds.Rows(); i++ {
		for j, c := range cols {
			row[j] = renderCell(c.Values[i])
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func renderCell(v interface{}) string {
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
		return val.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
