// pkg/version/version.go
package version

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"datasmith/pkg/dataset"
	"datasmith/pkg/translog"
)

// Version is a named checkpoint of the transformation log's state. It carries
// no dataset bytes: the data is reconstructed by replaying the snapshot
// against the original dataset.
type Version struct {
	Number      int                `json:"version_number"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	CreatedAt   time.Time          `json:"created_at"`
	Snapshot    []translog.Record  `json:"transformation_snapshot"`
	Rows        int                `json:"rows"`
	Cols        int                `json:"cols"`
}

// RestoreMode selects what restoring a version does to the live session.
type RestoreMode int

const (
	// ReplaceCurrent overwrites the live log with the version's snapshot.
	ReplaceCurrent RestoreMode = iota
	// CreateNewVersion also appends a new version checkpointing the
	// restored state, so the restore is visible in the version history.
	CreateNewVersion
)

// Store holds the ordered versions of one dataset. Version numbers are
// strictly increasing, assigned as len(existing)+1 at creation.
type Store struct {
	logger   *zap.Logger
	versions []Version
}

// NewStore creates an empty version store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger.Named("versions")}
}

// Len returns the number of versions.
func (s *Store) Len() int {
	return len(s.versions)
}

// Create captures a checkpoint of the given log state and dataset shape.
func (s *Store) Create(name, description string, snapshot []translog.Record, rows, cols int) Version {
	copied := make([]translog.Record, len(snapshot))
	for i, r := range snapshot {
		copied[i] = r.Clone()
	}
	v := Version{
		Number:      len(s.versions) + 1,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		Snapshot:    copied,
		Rows:        rows,
		Cols:        cols,
	}
	s.versions = append(s.versions, v)
	s.logger.Info("Created version",
		zap.Int("versionNumber", v.Number),
		zap.String("name", name),
		zap.Int("transformations", len(copied)))
	return v
}

// Restore loads persisted versions wholesale, validating the numbering.
func (s *Store) Restore(versions []Version) error {
	for i, v := range versions {
		if v.Number != i+1 {
			return fmt.Errorf("version numbering broken: position %d holds version %d", i+1, v.Number)
		}
	}
	s.versions = make([]Version, len(versions))
	copy(s.versions, versions)
	return nil
}

// List returns all versions in creation order.
func (s *Store) List() []Version {
	out := make([]Version, len(s.versions))
	copy(out, s.versions)
	return out
}

// Get returns the version with the given number.
func (s *Store) Get(number int) (Version, bool) {
	if number < 1 || number > len(s.versions) {
		return Version{}, false
	}
	return s.versions[number-1], true
}

// MetadataDiff is the cheap comparison between two versions, computed from
// stored records alone without materializing any data.
type MetadataDiff struct {
	RowDelta     int            `json:"row_delta"`
	ColDelta     int            `json:"col_delta"`
	OpsA         map[string]int `json:"operations_a"`
	OpsB         map[string]int `json:"operations_b"`
	OnlyInA      []string       `json:"operations_only_in_a,omitempty"`
	OnlyInB      []string       `json:"operations_only_in_b,omitempty"`
	SnapshotLenA int            `json:"snapshot_length_a"`
	SnapshotLenB int            `json:"snapshot_length_b"`
}

// Compare diffs two versions by number at the metadata level.
func (s *Store) Compare(a, b int) (MetadataDiff, error) {
	va, ok := s.Get(a)
	if !ok {
		return MetadataDiff{}, fmt.Errorf("version %d not found", a)
	}
	vb, ok := s.Get(b)
	if !ok {
		return MetadataDiff{}, fmt.Errorf("version %d not found", b)
	}

	diff := MetadataDiff{
		RowDelta:     va.Rows - vb.Rows,
		ColDelta:     va.Cols - vb.Cols,
		OpsA:         histogram(va.Snapshot),
		OpsB:         histogram(vb.Snapshot),
		SnapshotLenA: len(va.Snapshot),
		SnapshotLenB: len(vb.Snapshot),
	}
	for op := range diff.OpsA {
		if _, shared := diff.OpsB[op]; !shared {
			diff.OnlyInA = append(diff.OnlyInA, op)
		}
	}
	for op := range diff.OpsB {
		if _, shared := diff.OpsA[op]; !shared {
			diff.OnlyInB = append(diff.OnlyInB, op)
		}
	}
	return diff, nil
}

func histogram(records []translog.Record) map[string]int {
	h := make(map[string]int)
	for _, r := range records {
		h[r.OperationID]++
	}
	return h
}

// ColumnComparison pairs the per-column statistics of two materialized
// versions.
type ColumnComparison struct {
	A dataset.Summary `json:"a"`
	B dataset.Summary `json:"b"`
}

// DataDiff is the expensive comparison: both versions have been materialized
// by replay and their columns are compared directly.
type DataDiff struct {
	ColumnsOnlyInA []string                    `json:"columns_only_in_a,omitempty"`
	ColumnsOnlyInB []string                    `json:"columns_only_in_b,omitempty"`
	Common         map[string]ColumnComparison `json:"common"`
}

// CompareData diffs two materialized datasets column by column. Callers
// should prefer the metadata diff unless the user explicitly asked to load
// and compare data, since materializing costs a full replay per side.
func CompareData(a, b *dataset.Dataset) DataDiff {
	diff := DataDiff{Common: make(map[string]ColumnComparison)}
	for _, name := range a.ColumnNames() {
		ca, _ := a.Column(name)
		if cb, ok := b.Column(name); ok {
			diff.Common[name] = ColumnComparison{A: dataset.Summarize(ca), B: dataset.Summarize(cb)}
		} else {
			diff.ColumnsOnlyInA = append(diff.ColumnsOnlyInA, name)
		}
	}
	for _, name := range b.ColumnNames() {
		if !a.HasColumn(name) {
			diff.ColumnsOnlyInB = append(diff.ColumnsOnlyInB, name)
		}
	}
	return diff
}
