// pkg/session/session_test.go
package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datasmith/pkg/dataset"
	"datasmith/pkg/ops"
	"datasmith/pkg/translog"
	"datasmith/pkg/version"
)

func fixture(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New("sales",
		dataset.Column{Name: "amount", Type: dataset.Numeric, Values: []interface{}{100.0, nil, 300.0, 300.0}},
		dataset.Column{Name: "region", Type: dataset.Categorical, Values: []interface{}{" north", "North", "SOUTH", "south "}},
	)
	require.NoError(t, err)
	return ds
}

func TestNewRequiresDataset(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestApplyRecordsAndTransforms(t *testing.T) {
	s, err := New(fixture(t), nil)
	require.NoError(t, err)

	stats, err := s.Apply("Fill Missing (Mean)", "fill amount", "impute_missing_mean", []string{"amount"}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.Error())
	assert.Equal(t, 1, stats["missing_before"])

	col, _ := s.Current().Column("amount")
	assert.Equal(t, 0, col.Missing())

	// The original never changes.
	orig, _ := s.Original().Column("amount")
	assert.Equal(t, 1, orig.Missing())

	require.Equal(t, 1, s.Log().Len())
	rec := s.Log().Records()[0]
	assert.Equal(t, "impute_missing_mean", rec.OperationID)
	assert.Equal(t, []string{"amount"}, rec.Columns)
}

func TestApplyUnknownOperationIsAnError(t *testing.T) {
	s, err := New(fixture(t), nil)
	require.NoError(t, err)

	_, err = s.Apply("Nope", "", "not_an_operation", []string{"amount"}, nil)
	assert.Error(t, err)
	assert.Equal(t, 0, s.Log().Len())
}

func TestApplyFailureLeavesStateUntouched(t *testing.T) {
	s, err := New(fixture(t), nil)
	require.NoError(t, err)

	before := s.Current()
	stats, err := s.Apply("Log", "", "log_transform", []string{"region"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, stats.Error())
	assert.Equal(t, 0, s.Log().Len(), "failed operations are never logged")
	assert.True(t, dataset.Equal(before, s.Current(), 0))
}

func TestFirstApplyCheckpointsVersionOne(t *testing.T) {
	s, err := New(fixture(t), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Versions().Len())

	_, err = s.Apply("Fill", "", "impute_missing_mean", []string{"amount"}, nil)
	require.NoError(t, err)

	require.Equal(t, 1, s.Versions().Len())
	v, ok := s.Versions().Get(1)
	require.True(t, ok)
	assert.Equal(t, "Original data", v.Name)
	assert.Empty(t, v.Snapshot, "version 1 captures the pre-transformation state")

	// Later applies do not checkpoint again.
	_, err = s.Apply("Round", "", "round_off", []string{"amount"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Versions().Len())
}

func TestUndoReplaysShortenedLog(t *testing.T) {
	s, err := New(fixture(t), nil)
	require.NoError(t, err)

	_, err = s.Apply("Fill", "", "impute_missing_mean", []string{"amount"}, nil)
	require.NoError(t, err)
	_, err = s.Apply("Round", "", "round_off", []string{"amount"}, ops.Params{"decimals": 0.0})
	require.NoError(t, err)
	_, err = s.Apply("Clean names", "", "standardize_category_names", []string{"region"}, nil)
	require.NoError(t, err)
	require.Equal(t, 3, s.Log().Len())

	require.NoError(t, s.Undo())
	assert.Equal(t, 2, s.Log().Len())

	// The state equals a fresh replay of the first two records.
	expected, issues := translog.Replay(s.Original(), s.Log().Records(), nil)
	assert.Empty(t, issues)
	assert.True(t, dataset.Equal(expected, s.Current(), 1e-9))

	// region is back to its raw messy form.
	col, _ := s.Current().Column("region")
	assert.Equal(t, " north", col.Values[0])
}

func TestUndoOnEmptyLog(t *testing.T) {
	s, err := New(fixture(t), nil)
	require.NoError(t, err)
	assert.Error(t, s.Undo())
}

func TestCreateAndRestoreVersionReplaceCurrent(t *testing.T) {
	s, err := New(fixture(t), nil)
	require.NoError(t, err)

	_, err = s.Apply("Fill", "", "impute_missing_mean", []string{"amount"}, nil)
	require.NoError(t, err)
	v2 := s.CreateVersion("cleaned", "after imputation")
	assert.Equal(t, 2, v2.Number)

	_, err = s.Apply("Drop", "", "drop_columns", []string{"region"}, nil)
	require.NoError(t, err)
	assert.False(t, s.Current().HasColumn("region"))

	require.NoError(t, s.RestoreVersion(2, version.ReplaceCurrent))
	assert.True(t, s.Current().HasColumn("region"), "restore rebuilt the pre-drop state")
	assert.Equal(t, 1, s.Log().Len(), "live log replaced by the snapshot")
	assert.Equal(t, 2, s.Versions().Len(), "no extra version created")
}

func TestRestoreVersionCreateNewVersionAppendsCheckpoint(t *testing.T) {
	s, err := New(fixture(t), nil)
	require.NoError(t, err)

	_, err = s.Apply("Fill", "", "impute_missing_mean", []string{"amount"}, nil)
	require.NoError(t, err)
	s.CreateVersion("cleaned", "")

	_, err = s.Apply("Drop", "", "drop_columns", []string{"region"}, nil)
	require.NoError(t, err)

	require.NoError(t, s.RestoreVersion(2, version.CreateNewVersion))
	require.Equal(t, 3, s.Versions().Len())

	checkpoint, ok := s.Versions().Get(3)
	require.True(t, ok)
	assert.Contains(t, checkpoint.Name, "Restored from")
	assert.Len(t, checkpoint.Snapshot, 1, "checkpoint carries the restored snapshot")
	assert.True(t, s.Current().HasColumn("region"))
	assert.Equal(t, 1, s.Log().Len())
}

func TestRestoreUnknownVersion(t *testing.T) {
	s, err := New(fixture(t), nil)
	require.NoError(t, err)
	assert.Error(t, s.RestoreVersion(7, version.ReplaceCurrent))
}

func TestCompareVersions(t *testing.T) {
	s, err := New(fixture(t), nil)
	require.NoError(t, err)

	_, err = s.Apply("Fill", "", "impute_missing_mean", []string{"amount"}, nil)
	require.NoError(t, err)
	s.CreateVersion("cleaned", "")

	diff, err := s.CompareVersions(1, 2, false)
	require.NoError(t, err)
	assert.Nil(t, diff.Data)
	assert.Equal(t, 0, diff.Metadata.SnapshotLenA)
	assert.Equal(t, 1, diff.Metadata.SnapshotLenB)

	diff, err = s.CompareVersions(1, 2, true)
	require.NoError(t, err)
	require.NotNil(t, diff.Data)
	cmp, ok := diff.Data.Common["amount"]
	require.True(t, ok)
	assert.Equal(t, 1, cmp.A.Missing)
	assert.Equal(t, 0, cmp.B.Missing)
}

func TestResumeReplaysAndReportsIssues(t *testing.T) {
	original := fixture(t)

	records := []translog.Record{
		{Name: "Fill", OperationID: "impute_missing_mean", Columns: []string{"amount"}},
		{Name: "Ghost", OperationID: "gone_operation", Columns: []string{"amount"}},
	}
	versions := []version.Version{
		{Number: 1, Name: "Original data"},
	}

	s, issues, err := Resume(original, records, versions, nil)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "gone_operation", issues[0].OperationID)

	assert.Equal(t, 2, s.Log().Len(), "the log keeps the saved records verbatim")
	col, _ := s.Current().Column("amount")
	assert.Equal(t, 0, col.Missing())
	assert.Equal(t, 1, s.Versions().Len())
}

func TestResumeRejectsBrokenVersionNumbering(t *testing.T) {
	_, _, err := Resume(fixture(t), nil, []version.Version{{Number: 5}}, nil)
	assert.Error(t, err)
}
