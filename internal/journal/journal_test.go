package journal_test

import (
	"path/filepath"
	"testing"
	"time"

	"mediatagger/internal/errors"
	"mediatagger/internal/journal"
	"mediatagger/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndRecent(t *testing.T) {
	j, err := journal.Open("", nil)
	require.NoError(t, err)
	defer j.Close()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	entries := []*journal.Entry{
		{OperationType: types.TagOperation, Path: "/a/cat.jpg", Success: true, Timestamp: base},
		{OperationType: types.UntagOperation, Path: "/a/cat.jpg", Success: true, Timestamp: base.Add(time.Minute)},
		{OperationType: types.ExtractOperation, Path: "/a", Destination: "/a-best", FileCount: 3, FailedCount: 1, Timestamp: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, j.Record(e))
		assert.NotEmpty(t, e.ID)
	}

	recent, err := j.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, types.ExtractOperation, recent[0].OperationType)
	assert.Equal(t, "/a-best", recent[0].Destination)
	assert.Equal(t, 3, recent[0].FileCount)
	assert.Equal(t, 1, recent[0].FailedCount)
	assert.False(t, recent[0].Success)
	assert.True(t, recent[0].Timestamp.Equal(base.Add(2*time.Minute)))
	assert.Equal(t, types.UntagOperation, recent[1].OperationType)

	all, err := j.Recent(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRecordFillsTimestamp(t *testing.T) {
	j, err := journal.Open("", nil)
	require.NoError(t, err)
	defer j.Close()

	e := &journal.Entry{OperationType: types.RemoveExtractedOperation, Path: "/a", Success: true}
	require.NoError(t, j.Record(e))
	assert.False(t, e.Timestamp.IsZero())

	err = j.Record(nil)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.InvalidInputData))
}

func TestDuplicateIDIsDatabaseError(t *testing.T) {
	j, err := journal.Open("", nil)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Record(&journal.Entry{ID: "fixed", OperationType: types.TagOperation, Path: "/x"}))
	err = j.Record(&journal.Entry{ID: "fixed", OperationType: types.TagOperation, Path: "/x"})
	require.Error(t, err)
	assert.True(t, errors.IsDatabaseError(err))
}

func TestPersistsOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")

	j, err := journal.Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, j.Record(&journal.Entry{OperationType: types.TagOperation, Path: "/a/b.jpg", Success: true}))
	require.NoError(t, j.Close())

	reopened, err := journal.Open(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	recent, err := reopened.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "/a/b.jpg", recent[0].Path)
}
