// pkg/ingest/csv.go
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"datasmith/pkg/dataset"
)

// ReadCSV parses a CSV stream into a typed dataset. The first row is the
// header; column types are inferred from the cell contents.
func ReadCSV(name string, r io.Reader, logger *zap.Logger) (*dataset.Dataset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		if header[i] == "" {
			return nil, fmt.Errorf("csv header has an empty column name at position %d", i+1)
		}
	}

	raw := make([][]string, len(header))
	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", rows+2, err)
		}
		for i := range header {
			raw[i] = append(raw[i], record[i])
		}
		rows++
	}

	cols := make([]dataset.Column, len(header))
	for i, h := range header {
		cols[i] = InferColumn(h, raw[i])
	}

	ds, err := dataset.New(name, cols...)
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset from csv: %w", err)
	}

	logger.Info("Parsed CSV",
		zap.String("dataset", name),
		zap.Int("rows", ds.Rows()),
		zap.Int("columns", ds.Cols()))
	return ds, nil
}

// ReadFile loads a dataset from a CSV or JSON file, dispatching on the
// extension.
func ReadFile(path string, logger *zap.Logger) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(name, f, logger)
	case ".json":
		return ReadJSON(name, f, logger)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}
