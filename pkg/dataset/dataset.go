// pkg/dataset/dataset.go
package dataset

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type is the semantic type of a column. Every column carries exactly one.
type Type string

const (
	Numeric     Type = "numeric"
	Datetime    Type = "datetime"
	Categorical Type = "categorical"
	Text        Type = "text"
	Boolean     Type = "boolean"
)

// Valid reports whether t is one of the five declared semantic types.
func (t Type) Valid() bool {
	switch t {
	case Numeric, Datetime, Categorical, Text, Boolean:
		return true
	default:
		return false
	}
}

// Column is a single named, typed column. A nil entry in Values is a missing
// cell. Value representation by type: Numeric = float64, Datetime = time.Time,
// Categorical and Text = string, Boolean = bool.
type Column struct {
	Name   string
	Type   Type
	Values []interface{}
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() Column {
	values := make([]interface{}, len(c.Values))
	copy(values, c.Values)
	return Column{Name: c.Name, Type: c.Type, Values: values}
}

// Len returns the number of cells, missing included.
func (c *Column) Len() int {
	return len(c.Values)
}

// Missing returns the count of missing (nil) cells.
func (c *Column) Missing() int {
	count := 0
	for _, v := range c.Values {
		if v == nil {
			count++
		}
	}
	return count
}

// Floats returns the non-missing values of a numeric column in row order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if f, ok := v.(float64); ok {
			out = append(out, f)
		}
	}
	return out
}

// IsStringTyped reports whether the column holds string values.
func (c *Column) IsStringTyped() bool {
	return c.Type == Categorical || c.Type == Text
}

// checkValue validates that v matches the column's declared type.
func (c *Column) checkValue(v interface{}) error {
	if v == nil {
		return nil
	}
	switch c.Type {
	case Numeric:
		if _, ok := v.(float64); !ok {
			return fmt.Errorf("column %s: expected float64, got %T", c.Name, v)
		}
	case Datetime:
		if _, ok := v.(time.Time); !ok {
			return fmt.Errorf("column %s: expected time.Time, got %T", c.Name, v)
		}
	case Categorical, Text:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("column %s: expected string, got %T", c.Name, v)
		}
	case Boolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("column %s: expected bool, got %T", c.Name, v)
		}
	}
	return nil
}

// Dataset is an in-memory table of named, typed columns with a stable shape.
// A dataset is never mutated by transformations; each operation clones it and
// the caller replaces its reference with the result.
type Dataset struct {
	ID   uuid.UUID
	Name string
	cols []Column
}

// New builds a dataset from columns, validating name uniqueness, type
// declarations and equal column lengths.
func New(name string, cols ...Column) (*Dataset, error) {
	seen := make(map[string]struct{}, len(cols))
	rows := -1
	for _, c := range cols {
		if c.Name == "" {
			return nil, errors.New("column name cannot be empty")
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name: %s", c.Name)
		}
		seen[c.Name] = struct{}{}
		if !c.Type.Valid() {
			return nil, fmt.Errorf("column %s: invalid type %q", c.Name, c.Type)
		}
		if rows == -1 {
			rows = len(c.Values)
		} else if len(c.Values) != rows {
			return nil, fmt.Errorf("column %s: length %d does not match dataset length %d",
				c.Name, len(c.Values), rows)
		}
		for _, v := range c.Values {
			if err := (&c).checkValue(v); err != nil {
				return nil, err
			}
		}
	}

	copied := make([]Column, len(cols))
	for i, c := range cols {
		copied[i] = c.Clone()
	}

	return &Dataset{
		ID:   uuid.New(),
		Name: name,
		cols: copied,
	}, nil
}

// Rows returns the row count.
func (d *Dataset) Rows() int {
	if len(d.cols) == 0 {
		return 0
	}
	return len(d.cols[0].Values)
}

// Cols returns the column count.
func (d *Dataset) Cols() int {
	return len(d.cols)
}

// Shape returns (rows, cols).
func (d *Dataset) Shape() (int, int) {
	return d.Rows(), d.Cols()
}

// ColumnNames returns the column names in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.Name
	}
	return names
}

// Columns returns copies of all columns in order.
func (d *Dataset) Columns() []Column {
	out := make([]Column, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Clone()
	}
	return out
}

// Column returns a pointer to the named column, or false when absent. The
// pointer aliases the dataset's storage; callers mutating it must own the
// dataset (i.e. operate on a clone).
func (d *Dataset) Column(name string) (*Column, bool) {
	for i := range d.cols {
		if d.cols[i].Name == name {
			return &d.cols[i], true
		}
	}
	return nil, false
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.Column(name)
	return ok
}

/// Clone returns a deep copy of the dataset. The copy keeps the same ID: it is
// the same logical dataset at another point of its transformation history.
func (d *Dataset) Clone() *Dataset {
	cols := make([]Column, len(d.cols))
	for i, c := range d.cols {
		cols[i] = c.Clone()
	}
	return &Dataset{ID: d.ID, Name: d.Name, cols: cols}
}

// AddColumn appends a column. Length and name uniqueness are enforced.
func (d *Dataset) AddColumn(c Column) error {
	if d.HasColumn(c.Name) {
		return fmt.Errorf("duplicate column name: %s", c.Name)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("column %s: invalid type %q", c.Name, c.Type)
	}
	if len(d.cols) > 0 && len(c.Values) != d.Rows() {
		return fmt.Errorf("column %s: length %d does not match dataset length %d",
			c.Name, len(c.Values), d.Rows())
	}
	d.cols = append(d.cols, c.Clone())
	return nil
}

// DropColumns removes the named columns. Unknown names are ignored.
func (d *Dataset) DropColumns(names ...string) {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	kept := d.cols[:0]
	for _, c := range d.cols {
		if _, gone := drop[c.Name]; !gone {
			kept = append(kept, c)
		}
	}
	d.cols = kept
}

// RenameColumns renames columns per the mapping. Renaming onto an existing
// name is rejected; unknown source names are ignored.
func (d *Dataset) RenameColumns(mapping map[string]string) error {
	for from, to := range mapping {
		if to == "" {
			return fmt.Errorf("cannot rename %s to an empty name", from)
		}
		if from == to {
			continue
		}
		if d.HasColumn(to) {
			return fmt.Errorf("cannot rename %s to %s: target column exists", from, to)
		}
	}
	for i := range d.cols {
		if to, ok := mapping[d.cols[i].Name]; ok && to != d.cols[i].Name {
			d.cols[i].Name = to
		}
	}
	return nil
}

// FilterRows returns a copy of the dataset holding only rows where keep is
// true. len(keep) must equal the row count.
func (d *Dataset) FilterRows(keep []bool) (*Dataset, error) {
	if len(keep) != d.Rows() {
		return nil, fmt.Errorf("keep mask length %d does not match row count %d", len(keep), d.Rows())
	}
	out := &Dataset{ID: d.ID, Name: d.Name, cols: make([]Column, len(d.cols))}
	for i, c := range d.cols {
		values := make([]interface{}, 0, len(c.Values))
		for j, v := range c.Values {
			if keep[j] {
				values = append(values, v)
			}
		}
		out.cols[i] = Column{Name: c.Name, Type: c.Type, Values: values}
	}
	return out, nil
}

// Equal compares two datasets: same column names, order, types, and values.
// Float values compare within epsilon; everything else compares exactly.
func Equal(a, b *Dataset, epsilon float64) bool {
	if a.Cols() != b.Cols() || a.Rows() != b.Rows() {
		return false
	}
	for i := range a.cols {
		ca, cb := &a.cols[i], &b.cols[i]
		if ca.Name != cb.Name || ca.Type != cb.Type {
			return false
		}
		for j := range ca.Values {
			va, vb := ca.Values[j], cb.Values[j]
			if (va == nil) != (vb == nil) {
				return false
			}
			if va == nil {
				continue
			}
			fa, aok := va.(float64)
			fb, bok := vb.(float64)
			if aok && bok {
				diff := fa - fb
				if diff < 0 {
					diff = -diff
				}
				if diff > epsilon {
					return false
				}
				continue
			}
			ta, aok := va.(time.Time)
			tb, bok := vb.(time.Time)
			if aok && bok {
				if !ta.Equal(tb) {
					return false
				}
				continue
			}
			if va != vb {
				return false
			}
		}
	}
	return true
}
