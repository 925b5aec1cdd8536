package aggregate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/snapshot"
	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func rawCSV(rows ...string) string {
	return strings.Join(append([]string{strings.Join(snapshot.Header, ",")}, rows...), "\n") + "\n"
}

func TestProcessReaderMergesRows(t *testing.T) {
	s := newTestStore(t)
	a := New(s, 0)

	data := rawCSV(
		"2024-03-01T10:00:00,sa:1,J1,2024-03-01T10:05:00,,,scheduled_only,TER,false,",
		"2024-03-01T10:10:00,sa:1,J1,2024-03-01T10:05:00,2024-03-01T10:07:00,120,realtime,TER,false,",
		"2024-03-01T10:05:00,sa:1,J1,2024-03-01T10:05:00,2024-03-01T10:06:00,60,realtime,TER,false,",
	)

	stats, err := a.ProcessReader(strings.NewReader(data), "test")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Accepted)
	assert.Equal(t, 1, stats.Stale)
	assert.Equal(t, 0, stats.Dropped)

	st, err := s.GetTrain("J1_2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.ObservationCount)
	require.NotNil(t, st.DelaySeconds)
	assert.Equal(t, int64(120), *st.DelaySeconds)
	assert.True(t, st.SeenRealtimeTier)
	assert.True(t, st.SeenScheduledTier)
}

// Malformed rows are dropped with warnings while the surrounding rows
// still land; a bad row is never fatal for the batch.
func TestProcessReaderDropsMalformedRows(t *testing.T) {
	s := newTestStore(t)
	a := New(s, 0)

	data := rawCSV(
		"garbage,sa:1,J1,2024-03-01T10:05:00,,,scheduled_only,,false,",
		"2024-03-01T10:00:00,sa:1,,2024-03-01T10:05:00,,,scheduled_only,,false,",
		"2024-03-01T10:00:00,sa:1,J2,2024-03-01T10:05:00,,not-an-int,scheduled_only,,false,",
		"2024-03-01T10:00:00,sa:1,J3,2024-03-01T10:05:00,,,scheduled_only,,false,",
	)

	stats, err := a.ProcessReader(strings.NewReader(data), "test")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Processed)
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 3, stats.Dropped)

	_, err = s.GetTrain("J3_2024-03-01")
	assert.NoError(t, err)
}

// Commit batching must not change outcomes: a window smaller than the
// input forces multiple transactions.
func TestProcessReaderSmallCommitWindow(t *testing.T) {
	s := newTestStore(t)
	a := New(s, 2)

	rows := make([]string, 0, 7)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		poll := snapshot.FormatTimestamp(base.Add(time.Duration(i) * time.Minute))
		rows = append(rows, poll+",sa:1,J1,2024-03-01T10:05:00,,,scheduled_only,,false,")
	}

	stats, err := a.ProcessReader(strings.NewReader(rawCSV(rows...)), "test")
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Accepted)

	st, err := s.GetTrain("J1_2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(7), st.ObservationCount)
}

func TestProcessFileRenamesToParsed(t *testing.T) {
	s := newTestStore(t)
	a := New(s, 0)

	dir := t.TempDir()
	path := filepath.Join(dir, "raw_2024-03-01_10-00.csv")
	data := rawCSV("2024-03-01T10:00:00,sa:1,J1,2024-03-01T10:05:00,,,scheduled_only,,false,")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	stats, err := a.ProcessFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Accepted)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "raw_2024-03-01_10-00_parsed.csv"))
	assert.NoError(t, err)
}

func TestProcessDirectorySkipsParsedFiles(t *testing.T) {
	s := newTestStore(t)
	a := New(s, 0)

	dir := t.TempDir()
	good := rawCSV("2024-03-01T10:00:00,sa:1,J1,2024-03-01T10:05:00,,,scheduled_only,,false,")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "raw_a.csv"), []byte(good), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "raw_b_parsed.csv"), []byte(good), 0o644))

	stats, err := a.ProcessDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Accepted)
}

func TestBuildObservationDelta(t *testing.T) {
	poll := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rt := poll.Add(7 * time.Minute)

	obs, err := BuildObservation(snapshot.RawSnapshot{
		PollTimestamp:    poll,
		StopAreaID:       "sa:1",
		VehicleJourneyID: "J1",
		ScheduledTime:    poll.Add(5 * time.Minute),
		RealtimeTime:     &rt,
		Freshness:        snapshot.TierRealtime,
	})
	require.NoError(t, err)
	require.NotNil(t, obs.LastSeenDeltaSeconds)
	assert.Equal(t, int64(420), *obs.LastSeenDeltaSeconds)
	assert.True(t, obs.SeenRealtimeTier)
	assert.False(t, obs.SeenScheduledTier)
}

func TestBuildObservationNoRealtime(t *testing.T) {
	poll := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	obs, err := BuildObservation(snapshot.RawSnapshot{
		PollTimestamp:    poll,
		StopAreaID:       "sa:1",
		VehicleJourneyID: "J1",
		ScheduledTime:    poll.Add(5 * time.Minute),
		Freshness:        snapshot.TierScheduledOnly,
	})
	require.NoError(t, err)
	assert.Nil(t, obs.LastSeenDeltaSeconds)
	assert.Nil(t, obs.RealtimeTime)
}
