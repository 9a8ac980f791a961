// pkg/version/version_test.go
package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datasmith/pkg/dataset"
	"datasmith/pkg/translog"
)

func TestCreateAssignsIncreasingNumbers(t *testing.T) {
	store := NewStore(nil)

	v1 := store.Create("Original data", "", nil, 100, 5)
	v2 := store.Create("After cleaning", "", []translog.Record{
		{Name: "Impute", OperationID: "impute_missing_mean", Columns: []string{"x"}},
	}, 98, 5)

	assert.Equal(t, 1, v1.Number)
	assert.Equal(t, 2, v2.Number)
	assert.Equal(t, 2, store.Len())
	assert.Len(t, v2.Snapshot, 1)
}

func TestCreateDeepCopiesSnapshot(t *testing.T) {
	store := NewStore(nil)
	records := []translog.Record{
		{Name: "Drop", OperationID: "drop_columns", Columns: []string{"a"}},
	}
	v := store.Create("v", "", records, 10, 2)

	records[0].Columns[0] = "mutated"
	assert.Equal(t, "a", v.Snapshot[0].Columns[0])

	stored, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, "a", stored.Snapshot[0].Columns[0])
}

func TestGetAndList(t *testing.T) {
	store := NewStore(nil)
	store.Create("one", "", nil, 1, 1)
	store.Create("two", "", nil, 2, 2)

	_, ok := store.Get(0)
	assert.False(t, ok)
	_, ok = store.Get(3)
	assert.False(t, ok)

	v, ok := store.Get(2)
	require.True(t, ok)
	assert.Equal(t, "two", v.Name)

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Number)
	assert.Equal(t, 2, list[1].Number)
}

func TestRestoreValidatesNumbering(t *testing.T) {
	store := NewStore(nil)

	err := store.Restore([]Version{{Number: 1}, {Number: 3}})
	assert.Error(t, err)

	err = store.Restore([]Version{{Number: 1, Name: "a"}, {Number: 2, Name: "b"}})
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
}

func TestCompareMetadata(t *testing.T) {
	store := NewStore(nil)
	store.Create("base", "", nil, 100, 6)
	store.Create("cleaned", "", []translog.Record{
		{OperationID: "impute_missing_mean"},
		{OperationID: "impute_missing_mean"},
		{OperationID: "drop_columns"},
	}, 95, 5)

	diff, err := store.Compare(2, 1)
	require.NoError(t, err)
	assert.Equal(t, -5, diff.RowDelta)
	assert.Equal(t, -1, diff.ColDelta)
	assert.Equal(t, 3, diff.SnapshotLenA)
	assert.Equal(t, 0, diff.SnapshotLenB)
	assert.Equal(t, 2, diff.OpsA["impute_missing_mean"])
	assert.ElementsMatch(t, []string{"impute_missing_mean", "drop_columns"}, diff.OnlyInA)
	assert.Empty(t, diff.OnlyInB)

	_, err = store.Compare(1, 99)
	assert.Error(t, err)
}

func TestCompareData(t *testing.T) {
	a, err := dataset.New("a",
		dataset.Column{Name: "x", Type: dataset.Numeric, Values: []interface{}{1.0, 2.0}},
		dataset.Column{Name: "gone", Type: dataset.Text, Values: []interface{}{"p", "q"}})
	require.NoError(t, err)
	b, err := dataset.New("b",
		dataset.Column{Name: "x", Type: dataset.Numeric, Values: []interface{}{10.0, 20.0}},
		dataset.Column{Name: "added", Type: dataset.Text, Values: []interface{}{"r", "s"}})
	require.NoError(t, err)

	diff := CompareData(a, b)
	assert.Equal(t, []string{"gone"}, diff.ColumnsOnlyInA)
	assert.Equal(t, []string{"added"}, diff.ColumnsOnlyInB)

	cmp, ok := diff.Common["x"]
	require.True(t, ok)
	assert.InDelta(t, 1.5, cmp.A.Mean, 1e-9)
	assert.InDelta(t, 15.0, cmp.B.Mean, 1e-9)
}
