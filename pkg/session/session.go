// pkg/session/session.go
package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"datasmith/pkg/dataset"
	"datasmith/pkg/ops"
	"datasmith/pkg/translog"
	"datasmith/pkg/version"
)

// Session owns the active editing state for one dataset: the original data as
// uploaded, the current data, the transformation log and the version store.
// Every user action goes through it; nothing here is a process-wide global.
// A session belongs to one user flow and is not safe for concurrent use.
type Session struct {
	ID       uuid.UUID
	logger   *zap.Logger
	original *dataset.Dataset
	current  *dataset.Dataset
	log      *translog.Log
	versions *version.Store
}

// New starts a session over an uploaded dataset.
func New(original *dataset.Dataset, logger *zap.Logger) (*Session, error) {
	if original == nil {
		return nil, errors.New("original dataset cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("session")
	return &Session{
		ID:       uuid.New(),
		logger:   logger,
		original: original.Clone(),
		current:  original.Clone(),
		log:      translog.NewLog(logger),
		versions: version.NewStore(logger),
	}, nil
}

// Resume rebuilds a session from persisted state. The current dataset is
// reconstructed by replaying the log against the original; replay issues are
// returned so the caller can surface steps that no longer reproduce.
func Resume(original *dataset.Dataset, records []translog.Record, versions []version.Version, logger *zap.Logger) (*Session, []translog.Issue, error) {
	s, err := New(original, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := s.versions.Restore(versions); err != nil {
		return nil, nil, err
	}
	current, issues := translog.Replay(s.original, records, s.logger)
	s.current = current
	s.log.ReplaceAll(records, "Resumed session from saved state")
	return s, issues, nil
}

// Original returns a copy of the dataset as it was uploaded.
func (s *Session) Original() *dataset.Dataset {
	return s.original.Clone()
}

// Current returns a copy of the dataset with all transformations applied.
func (s *Session) Current() *dataset.Dataset {
	return s.current.Clone()
}

// Log returns the transformation log.
func (s *Session) Log() *translog.Log {
	return s.log
}

// Versions returns the version store.
func (s *Session) Versions() *version.Store {
	return s.versions
}

// History returns the activity feed.
func (s *Session) History() []translog.HistoryEntry {
	return s.log.History()
}

// Apply runs one catalog operation against the current dataset. On success
// the record is appended and the current dataset replaced; an operation-level
// failure returns its stats (with the error message inside) and leaves both
// dataset and log untouched. A Go error is returned only for an unknown
// operation identifier.
//
// The first successful apply checkpoints the untransformed state as version 1
// so the starting point is always restorable.
func (s *Session) Apply(name, description, operationID string, columns []string, params ops.Params) (ops.Stats, error) {
	next, stats, err := ops.Apply(s.current, operationID, columns, params)
	if err != nil {
		return nil, err
	}
	if msg := stats.Error(); msg != "" {
		s.logger.Warn("Transformation rejected",
			zap.String("operation", operationID),
			zap.String("reason", msg))
		return stats, nil
	}

	if s.log.Len() == 0 && s.versions.Len() == 0 {
		s.versions.Create("Original data", "State before any transformation", nil, s.current.Rows(), s.current.Cols())
	}

	s.log.Append(translog.Record{
		Name:        name,
		Description: description,
		OperationID: operationID,
		Columns:     columns,
		Params:      params,
	})
	s.current = next
	return stats, nil
}

// Undo removes the last transformation and recomputes the current dataset by
// replaying the shortened log from the original. Correctness over speed: most
// operations are not cleanly invertible, so no inverse is attempted.
func (s *Session) Undo() error {
	if _, ok := s.log.Undo(); !ok {
		return errors.New("nothing to undo")
	}
	current, issues := translog.Replay(s.original, s.log.Records(), s.logger)
	if len(issues) > 0 {
		s.logger.Warn("Replay after undo had issues", zap.Int("issues", len(issues)))
	}
	s.current = current
	return nil
}

// CreateVersion checkpoints the current log state and dataset shape under a
// name. No dataset bytes are copied.
func (s *Session) CreateVersion(name, description string) version.Version {
	return s.versions.Create(name, description, s.log.Records(), s.current.Rows(), s.current.Cols())
}

// RestoreVersion materializes a version by replaying its snapshot against the
// original dataset. ReplaceCurrent overwrites the live log with the snapshot;
// CreateNewVersion also appends a new version checkpointing the restored
// state, so the restore itself shows up in the version history.
func (s *Session) RestoreVersion(number int, mode version.RestoreMode) error {
	v, ok := s.versions.Get(number)
	if !ok {
		return fmt.Errorf("version %d not found", number)
	}

	restored, issues := translog.Replay(s.original, v.Snapshot, s.logger)
	if len(issues) > 0 {
		s.logger.Warn("Version restore replay had issues",
			zap.Int("versionNumber", number),
			zap.Int("issues", len(issues)))
	}

	if mode == version.CreateNewVersion {
		s.versions.Create(
			fmt.Sprintf("Restored from %q", v.Name),
			fmt.Sprintf("Checkpoint of the state restored from version %d", number),
			v.Snapshot, restored.Rows(), restored.Cols())
	}

	s.log.ReplaceAll(v.Snapshot, fmt.Sprintf("Restored version %d (%s)", number, v.Name))
	s.current = restored
	return nil
}

// Diff is the result of comparing two versions. Data is nil unless the caller
// asked for the expensive materialized comparison.
type Diff struct {
	Metadata version.MetadataDiff `json:"metadata"`
	Data     *version.DataDiff    `json:"data,omitempty"`
}

// CompareVersions diffs two versions. With loadData set, both versions are
// materialized by replay and compared column by column; otherwise only the
// cheap metadata diff is computed.
func (s *Session) CompareVersions(a, b int, loadData bool) (Diff, error) {
	meta, err := s.versions.Compare(a, b)
	if err != nil {
		return Diff{}, err
	}
	diff := Diff{Metadata: meta}
	if !loadData {
		return diff, nil
	}

	va, _ := s.versions.Get(a)
	vb, _ := s.versions.Get(b)
	da, _ := translog.Replay(s.original, va.Snapshot, s.logger)
	db, _ := translog.Replay(s.original, vb.Snapshot, s.logger)
	data := version.CompareData(da, db)
	diff.Data = &data
	return diff, nil
}
