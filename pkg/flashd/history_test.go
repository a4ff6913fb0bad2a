package flashd

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRecordAndAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	history, err := OpenHistory(path)
	require.NoError(t, err)
	defer history.Close()

	entry := Entry{
		JobID: "job-1", Device: "attiny85", Op: OpWrite,
		Start: 0, Length: 32, Completed: 32, Status: "completed",
		Finished: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, history.Record(entry))

	entries, err := history.All()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.JobID, entries[0].JobID)
	assert.Equal(t, entry.Status, entries[0].Status)
}

func TestHistoryPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	history, err := OpenHistory(path)
	require.NoError(t, err)
	require.NoError(t, history.Record(Entry{JobID: "job-1", Status: "completed"}))
	require.NoError(t, history.Close())

	reopened, err := OpenHistory(path)
	require.NoError(t, err)
	defer reopened.Close()
	entries, err := reopened.All()
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
