// pkg/translog/replay.go
package translog

import (
	"go.uber.org/zap"

	"datasmith/pkg/dataset"
	"datasmith/pkg/ops"
)

// Issue describes a replay step that could not be reproduced. Replay never
// aborts over a bad step; it continues from the dataset state before it.
type Issue struct {
	Index       int    `json:"index"`
	OperationID string `json:"operation_id"`
	Reason      string `json:"reason"`
}

// Replay applies records in append order to a copy of original and returns
// the reconstructed dataset. Policy on failure of any single step — an
// unknown operation identifier or an operation-level error — is to record an
// issue and continue with the dataset unchanged from before that step.
// Replay is deterministic: the same inputs always yield the same dataset.
func Replay(original *dataset.Dataset, records []Record, logger *zap.Logger) (*dataset.Dataset, []Issue) {
	if logger == nil {
		logger = zap.NewNop()
	}

	current := original.Clone()
	var issues []Issue

	for i, rec := range records {
		if _, known := ops.Lookup(rec.OperationID); !known {
			issues = append(issues, Issue{Index: i, OperationID: rec.OperationID, Reason: "unknown operation"})
			logger.Warn("Skipping unknown operation during replay",
				zap.Int("index", i),
				zap.String("operation", rec.OperationID))
			continue
		}

		next, stats, err := ops.Apply(current, rec.OperationID, rec.Columns, rec.Params)
		if err != nil {
			issues = append(issues, Issue{Index: i, OperationID: rec.OperationID, Reason: err.Error()})
			continue
		}
		if msg := stats.Error(); msg != "" {
			issues = append(issues, Issue{Index: i, OperationID: rec.OperationID, Reason: msg})
			logger.Warn("Replay step could not be reproduced",
				zap.Int("index", i),
				zap.String("operation", rec.OperationID),
				zap.String("reason", msg))
			continue
		}
		current = next
	}

	return current, issues
}
