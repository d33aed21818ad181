package jobregistry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobsherpa/jobsherpa/pkg/scheduler"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "jobs.json")
	store := NewStore(path, nil)

	result := "42"
	jobs := map[string]*JobRecord{
		"4821": {
			JobID:        "4821",
			JobName:      "fastqc-run",
			Status:       scheduler.StatusCompleted,
			StartTime:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
			JobDirectory: "/scratch/jobs/20250301-120000-fastqc-run-abc123",
			OutputParser: &OutputParser{File: "output/summary.txt", Pattern: `Total Sequences\s+(\d+)`},
			Result:       &result,
		},
	}
	require.NoError(t, store.Save(jobs))

	loaded := NewStore(path, nil).Load()
	require.Len(t, loaded, 1)
	rec := loaded["4821"]
	require.NotNil(t, rec)
	assert.Equal(t, *jobs["4821"], *rec)
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.json"), nil)
	assert.Empty(t, store.Load())
}

func TestStoreLoadCorruptFileDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewStore(path, nil)
	assert.Empty(t, store.Load())
}

func TestStoreDisabledPersistence(t *testing.T) {
	store := NewStore("", nil)
	assert.Empty(t, store.Load())
	assert.NoError(t, store.Save(map[string]*JobRecord{"1": {JobID: "1"}}))
}
