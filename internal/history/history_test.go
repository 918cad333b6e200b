package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.Context(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesMigrations(t *testing.T) {
	s := openTestStore(t)
	runs, err := s.ListRuns(t.Context(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRecordSync_RoundTrips(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	err := s.RecordSync(t.Context(), Record{
		Namespace: "rpms", Component: "bash", NVR: "bash-5-1",
		Status: StatusSuccess, DestRef: "https://dst/rpms/bash#abc",
		BuildTask: 42, StartedAt: now, FinishedAt: now.Add(time.Minute),
	})
	require.NoError(t, err)

	runs, err := s.ListRuns(t.Context(), Filter{Namespace: "rpms"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "bash", runs[0].Component)
	assert.Equal(t, StatusSuccess, runs[0].Status)
	assert.EqualValues(t, 42, runs[0].BuildTask)
}

func TestListRuns_FiltersByStatusAndComponent(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, s.RecordSync(t.Context(), Record{Namespace: "rpms", Component: "a", NVR: "a-1-1", Status: StatusSuccess, StartedAt: now, FinishedAt: now}))
	require.NoError(t, s.RecordSync(t.Context(), Record{Namespace: "rpms", Component: "b", NVR: "b-1-1", Status: StatusFailure, Error: "boom", StartedAt: now, FinishedAt: now}))

	runs, err := s.ListRuns(t.Context(), Filter{Status: StatusFailure})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "b", runs[0].Component)
	assert.Equal(t, "boom", runs[0].Error)
}

func TestListRuns_RespectsLimit(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordSync(t.Context(), Record{Namespace: "rpms", Component: "a", NVR: "a-1-1", Status: StatusSuccess, StartedAt: now, FinishedAt: now}))
	}

	runs, err := s.ListRuns(t.Context(), Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
