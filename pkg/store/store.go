// pkg/store/store.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"datasmith/pkg/dataset"
	"datasmith/pkg/ops"
	"datasmith/pkg/translog"
	"datasmith/pkg/version"
)

// Store persists editing sessions to PostgreSQL. Data goes into columnar
// Arrow blobs, the log and versions into their JSON forms. Every save is
// all-or-nothing: one transaction covers the dataset row, its transformation
// rows and its version rows.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
	retry  RetryPolicy
}

// NewStore creates a persistence layer over an open database handle.
func NewStore(db *sqlx.DB, logger *zap.Logger, policy RetryPolicy) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger.Named("store"), retry: policy}, nil
}

// Snapshot is everything persisted about one dataset: both data states, the
// ordered transformation records and the version checkpoints. Versions carry
// no data bytes; restoring one replays its snapshot against the original.
type Snapshot struct {
	DatasetID   uuid.UUID
	Name        string
	FileName    string
	FileType    string
	Description string
	Original    *dataset.Dataset
	Current     *dataset.Dataset
	Records     []translog.Record
	Versions    []version.Version
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS datasets (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	file_name TEXT NOT NULL DEFAULT '',
	file_type TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	original_data BYTEA NOT NULL,
	current_data BYTEA NOT NULL,
	column_types TEXT NOT NULL,
	row_count INTEGER NOT NULL,
	column_count INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transformations (
	id UUID PRIMARY KEY,
	dataset_id UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	operation_id TEXT NOT NULL,
	affected_columns TEXT[] NOT NULL DEFAULT '{}',
	parameters TEXT NOT NULL DEFAULT '{}',
	applied_at TIMESTAMPTZ NOT NULL,
	UNIQUE (dataset_id, position)
);

CREATE TABLE IF NOT EXISTS versions (
	id UUID PRIMARY KEY,
	dataset_id UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	version_number INTEGER NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	transformation_snapshot TEXT NOT NULL DEFAULT '[]',
	row_count INTEGER NOT NULL,
	column_count INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (dataset_id, version_number)
);
`

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	return withRetry(ctx, s.logger, s.retry, "migrate", func() error {
		if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		return nil
	})
}

// Save writes a snapshot in a single transaction, retrying transient
// failures. Saving the same snapshot twice is a no-op at the data level: the
// dataset row is upserted and the child rows are rewritten from the records,
// so the stored state always mirrors the in-memory state exactly.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	if snap.Original == nil || snap.Current == nil {
		return fmt.Errorf("snapshot requires both original and current datasets")
	}
	if snap.DatasetID == uuid.Nil {
		return fmt.Errorf("snapshot requires a dataset id")
	}

	// Encode outside the transaction so a codec failure never leaves a
	// half-open transaction behind.
	originalBlob, err := EncodeDataset(snap.Original)
	if err != nil {
		return fmt.Errorf("failed to encode original dataset: %w", err)
	}
	currentBlob, err := EncodeDataset(snap.Current)
	if err != nil {
		return fmt.Errorf("failed to encode current dataset: %w", err)
	}
	columnTypes, err := encodeColumnTypes(snap.Current)
	if err != nil {
		return err
	}

	start := time.Now()
	err = withRetry(ctx, s.logger, s.retry, "save", func() error {
		return s.saveOnce(ctx, snap, originalBlob, currentBlob, columnTypes)
	})
	if err != nil {
		return err
	}

	if err := s.verifySave(ctx, snap); err != nil {
		return err
	}

	s.logger.Info("Saved dataset",
		zap.String("datasetID", snap.DatasetID.String()),
		zap.Int("transformations", len(snap.Records)),
		zap.Int("versions", len(snap.Versions)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Store) saveOnce(ctx context.Context, snap Snapshot, originalBlob, currentBlob []byte, columnTypes string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO datasets (id, name, file_name, file_type, description,
			original_data, current_data, column_types, row_count, column_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			file_name = EXCLUDED.file_name,
			file_type = EXCLUDED.file_type,
			description = EXCLUDED.description,
			original_data = EXCLUDED.original_data,
			current_data = EXCLUDED.current_data,
			column_types = EXCLUDED.column_types,
			row_count = EXCLUDED.row_count,
			column_count = EXCLUDED.column_count,
			updated_at = now()`,
		snap.DatasetID, snap.Name, snap.FileName, snap.FileType, snap.Description,
		originalBlob, currentBlob, columnTypes, snap.Current.Rows(), snap.Current.Cols())
	if err != nil {
		return fmt.Errorf("failed to upsert dataset: %w", err)
	}

	// Children are rewritten wholesale. Positions and version numbers are
	// derived from list order, so a stale partial set cannot survive a save.
	if _, err := tx.ExecContext(ctx, `DELETE FROM transformations WHERE dataset_id = $1`, snap.DatasetID); err != nil {
		return fmt.Errorf("failed to clear transformations: %w", err)
	}
	for i, r := range snap.Records {
		params, err := json.Marshal(r.Params)
		if err != nil {
			return fmt.Errorf("failed to encode parameters for step %d: %w", i+1, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transformations
				(id, dataset_id, position, name, description, operation_id, affected_columns, parameters, applied_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.New(), snap.DatasetID, i+1, r.Name, r.Description, r.OperationID,
			pq.Array(r.Columns), string(params), r.AppliedAt)
		if err != nil {
			return fmt.Errorf("failed to insert transformation %d: %w", i+1, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM versions WHERE dataset_id = $1`, snap.DatasetID); err != nil {
		return fmt.Errorf("failed to clear versions: %w", err)
	}
	for _, v := range snap.Versions {
		snapshot, err := translog.EncodeRecords(v.Snapshot)
		if err != nil {
			return fmt.Errorf("failed to encode snapshot for version %d: %w", v.Number, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO versions
				(id, dataset_id, version_number, name, description, transformation_snapshot, row_count, column_count, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.New(), snap.DatasetID, v.Number, v.Name, v.Description,
			string(snapshot), v.Rows, v.Cols, v.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert version %d: %w", v.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}
	return nil
}

// verifySave re-reads the counts the save should have produced and fails
// loudly on any mismatch.
func (s *Store) verifySave(ctx context.Context, snap Snapshot) error {
	var rowCount, colCount, transformations, versions int

	err := s.db.QueryRowContext(ctx,
		`SELECT row_count, column_count FROM datasets WHERE id = $1`,
		snap.DatasetID).Scan(&rowCount, &colCount)
	if err != nil {
		return fmt.Errorf("save verification failed to read dataset row: %w", err)
	}
	if rowCount != snap.Current.Rows() || colCount != snap.Current.Cols() {
		return fmt.Errorf("save verification mismatch: stored shape %dx%d, expected %dx%d",
			rowCount, colCount, snap.Current.Rows(), snap.Current.Cols())
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM transformations WHERE dataset_id = $1`,
		snap.DatasetID).Scan(&transformations)
	if err != nil {
		return fmt.Errorf("save verification failed to count transformations: %w", err)
	}
	if transformations != len(snap.Records) {
		return fmt.Errorf("save verification mismatch: %d transformation rows, expected %d",
			transformations, len(snap.Records))
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM versions WHERE dataset_id = $1`,
		snap.DatasetID).Scan(&versions)
	if err != nil {
		return fmt.Errorf("save verification failed to count versions: %w", err)
	}
	if versions != len(snap.Versions) {
		return fmt.Errorf("save verification mismatch: %d version rows, expected %d",
			versions, len(snap.Versions))
	}
	return nil
}

// Load reads a persisted snapshot back. The caller typically hands the result
// to session.Resume, which replays the records to rebuild the current state.
func (s *Store) Load(ctx context.Context, datasetID uuid.UUID) (*Snapshot, error) {
	snap := &Snapshot{DatasetID: datasetID}

	err := withRetry(ctx, s.logger, s.retry, "load", func() error {
		var (
			originalBlob, currentBlob []byte
			columnTypes               string
		)
		err := s.db.QueryRowContext(ctx, `
			SELECT name, file_name, file_type, description, original_data, current_data, column_types
			FROM datasets WHERE id = $1`, datasetID).
			Scan(&snap.Name, &snap.FileName, &snap.FileType, &snap.Description,
				&originalBlob, &currentBlob, &columnTypes)
		if err == sql.ErrNoRows {
			return fmt.Errorf("dataset %s not found", datasetID)
		}
		if err != nil {
			return fmt.Errorf("failed to read dataset row: %w", err)
		}

		snap.Original, err = DecodeDataset(snap.Name, originalBlob)
		if err != nil {
			return fmt.Errorf("failed to decode original dataset: %w", err)
		}
		snap.Current, err = DecodeDataset(snap.Name, currentBlob)
		if err != nil {
			return fmt.Errorf("failed to decode current dataset: %w", err)
		}

		snap.Records, err = s.loadRecords(ctx, datasetID)
		if err != nil {
			return err
		}
		snap.Versions, err = s.loadVersions(ctx, datasetID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loaded dataset",
		zap.String("datasetID", datasetID.String()),
		zap.Int("transformations", len(snap.Records)),
		zap.Int("versions", len(snap.Versions)))
	return snap, nil
}

func (s *Store) loadRecords(ctx context.Context, datasetID uuid.UUID) ([]translog.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, description, operation_id, affected_columns, parameters, applied_at
		FROM transformations WHERE dataset_id = $1 ORDER BY position`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to read transformations: %w", err)
	}
	defer rows.Close()

	var records []translog.Record
	for rows.Next() {
		var (
			r       translog.Record
			columns pq.StringArray
			params  string
		)
		if err := rows.Scan(&r.Name, &r.Description, &r.OperationID, &columns, &params, &r.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transformation row: %w", err)
		}
		r.Columns = []string(columns)
		if params != "" && params != "null" {
			var p ops.Params
			if err := json.Unmarshal([]byte(params), &p); err != nil {
				return nil, fmt.Errorf("failed to decode parameters for %s: %w", r.OperationID, err)
			}
			r.Params = p
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transformations: %w", err)
	}
	return records, nil
}

func (s *Store) loadVersions(ctx context.Context, datasetID uuid.UUID) ([]version.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version_number, name, description, transformation_snapshot, row_count, column_count, created_at
		FROM versions WHERE dataset_id = $1 ORDER BY version_number`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to read versions: %w", err)
	}
	defer rows.Close()

	var versions []version.Version
	for rows.Next() {
		var (
			v        version.Version
			snapshot string
		)
		if err := rows.Scan(&v.Number, &v.Name, &v.Description, &snapshot, &v.Rows, &v.Cols, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan version row: %w", err)
		}
		v.Snapshot, err = translog.DecodeRecords([]byte(snapshot))
		if err != nil {
			return nil, fmt.Errorf("failed to decode snapshot for version %d: %w", v.Number, err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate versions: %w", err)
	}
	return versions, nil
}

// DatasetInfo is the listing row for saved datasets.
type DatasetInfo struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	FileName    string    `db:"file_name" json:"file_name"`
	FileType    string    `db:"file_type" json:"file_type"`
	Description string    `db:"description" json:"description"`
	RowCount    int       `db:"row_count" json:"row_count"`
	ColumnCount int       `db:"column_count" json:"column_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// List returns metadata for all saved datasets, newest first.
func (s *Store) List(ctx context.Context) ([]DatasetInfo, error) {
	var infos []DatasetInfo
	err := withRetry(ctx, s.logger, s.retry, "list", func() error {
		return s.db.SelectContext(ctx, &infos, `
			SELECT id, name, file_name, file_type, description, row_count, column_count, created_at, updated_at
			FROM datasets ORDER BY updated_at DESC`)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return infos, nil
}

// Delete removes a dataset and all its child rows.
func (s *Store) Delete(ctx context.Context, datasetID uuid.UUID) error {
	return withRetry(ctx, s.logger, s.retry, "delete", func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = $1`, datasetID)
		if err != nil {
			return fmt.Errorf("failed to delete dataset: %w", err)
		}
		affected, err := res.RowsAffected()
		if err == nil && affected == 0 {
			return fmt.Errorf("dataset %s not found", datasetID)
		}
		return nil
	})
}

func encodeColumnTypes(ds *dataset.Dataset) (string, error) {
	types := make(map[string]string, ds.Cols())
	for _, c := range ds.Columns() {
		types[c.Name] = string(c.Type)
	}
	data, err := json.Marshal(types)
	if err != nil {
		return "", fmt.Errorf("failed to encode column types: %w", err)
	}
	return string(data), nil
}
