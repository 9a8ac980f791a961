// pkg/translog/log.go
package translog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"datasmith/pkg/ops"
)

// Record is one applied transformation. Records are immutable once appended;
// their list index is the causal order, and replaying the full ordered list
// against the original dataset must reproduce the current dataset.
//
// The JSON field names are part of the persisted format and must stay
// backward-readable.
type Record struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	OperationID string     `json:"operation_id"`
	Columns     []string   `json:"target_columns"`
	Params      ops.Params `json:"parameters,omitempty"`
	AppliedAt   time.Time  `json:"applied_at"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Columns = append([]string(nil), r.Columns...)
	out.Params = r.Params.Clone()
	return out
}

// HistoryEntry is one line of the human-readable activity feed. The feed and
// the record list are two projections of the same append events.
type HistoryEntry struct {
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is the ordered, append-only sequence of transformation records for one
// editing session, together with its activity feed. It is not safe for
// concurrent use: a log is owned by exactly one session.
type Log struct {
	logger  *zap.Logger
	records []Record
	history []HistoryEntry
}

// NewLog creates an empty log.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger.Named("translog")}
}

// Len returns the number of records.
func (l *Log) Len() int {
	return len(l.records)
}

// Records returns a copy of the ordered record list.
func (l *Log) Records() []Record {
	out := make([]Record, len(l.records))
	for i, r := range l.records {
		out[i] = r.Clone()
	}
	return out
}

// History returns a copy of the activity feed.
func (l *Log) History() []HistoryEntry {
	out := make([]HistoryEntry, len(l.history))
	copy(out, l.history)
	return out
}

// Append adds a record and derives its activity-feed entry in the same step.
func (l *Log) Append(r Record) {
	rec := r.Clone()
	if rec.AppliedAt.IsZero() {
		rec.AppliedAt = time.Now().UTC()
	}
	l.records = append(l.records, rec)
	l.history = append(l.history, HistoryEntry{
		Action:    fmt.Sprintf("Applied %s to %s", rec.Name, strings.Join(rec.Columns, ", ")),
		Details:   rec.Description,
		Timestamp: rec.AppliedAt,
	})
	l.logger.Info("Recorded transformation",
		zap.String("operation", rec.OperationID),
		zap.Strings("columns", rec.Columns),
		zap.Int("logLength", len(l.records)))
}

// Undo removes the last record and returns it. The caller is responsible for
// recomputing the current dataset by replaying the shortened record list; no
// inverse operation is attempted.
func (l *Log) Undo() (Record, bool) {
	if len(l.records) == 0 {
		return Record{}, false
	}
	last := l.records[len(l.records)-1]
	l.records = l.records[:len(l.records)-1]
	l.history = append(l.history, HistoryEntry{
		Action:    fmt.Sprintf("Reverted %s", last.Name),
		Timestamp: time.Now().UTC(),
	})
	l.logger.Info("Undid transformation",
		zap.String("operation", last.OperationID),
		zap.Int("logLength", len(l.records)))
	return last, true
}

// ReplaceAll swaps the record list wholesale, used when restoring a version
// snapshot over the live log.
func (l *Log) ReplaceAll(records []Record, reason string) {
	l.records = make([]Record, len(records))
	for i, r := range records {
		l.records[i] = r.Clone()
	}
	l.history = append(l.history, HistoryEntry{
		Action:    reason,
		Timestamp: time.Now().UTC(),
	})
	l.logger.Info("Replaced transformation log",
		zap.String("reason", reason),
		zap.Int("logLength", len(l.records)))
}

// EncodeRecords serializes records to JSON for persistence.
func EncodeRecords(records []Record) ([]byte, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transformation records: %w", err)
	}
	return data, nil
}

// DecodeRecords parses persisted transformation records. Unknown operation
// identifiers inside are tolerated here; replay skips them with a warning.
func DecodeRecords(data []byte) ([]Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode transformation records: %w", err)
	}
	return records, nil
}
