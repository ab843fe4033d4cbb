package memory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/drivesim/internal/core/episode"
	"github.com/zeusync/drivesim/internal/storage"
)

func testEpisode() storage.Episode {
	return storage.Episode{
		ID:        "0c6f5d1e-aaaa-bbbb-cccc-000000000001",
		Track:     "tracks/oval loop.yaml",
		Vehicles:  2,
		Tick:      50 * time.Millisecond,
		Budget:    time.Minute,
		StartedAt: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
	}
}

func runEpisode(t *testing.T, b *Backend) {
	t.Helper()
	require.NoError(t, b.StartEpisode(testEpisode()))
	require.NoError(t, b.RecordResult(episode.Result{VehicleID: "a", Controller: "learned", Fitness: 12.5, Alive: true}))
	require.NoError(t, b.RecordResult(episode.Result{VehicleID: "b", Controller: "learned", Fitness: 3, EndReason: episode.ReasonOffTrack}))
	require.NoError(t, b.EndEpisode(storage.Summary{Reason: episode.ReasonBudget, Ticks: 1200, Elapsed: time.Minute}))
}

func TestExportGzip(t *testing.T) {
	dir := t.TempDir()
	b := New(Config{OutputDir: dir, CompressOutput: true})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	runEpisode(t, b)

	path := b.ExportedPath()
	require.NotEmpty(t, path)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".json.gz"))
	assert.Equal(t, "oval_loop_20260301_123000_0c6f5d1e.json.gz", filepath.Base(path))

	export, err := ReadExport(path)
	require.NoError(t, err)
	assert.Equal(t, testEpisode().ID, export.Episode.ID)
	assert.Equal(t, episode.ReasonBudget, export.Summary.Reason)
	assert.EqualValues(t, 1200, export.Summary.Ticks)
	require.Len(t, export.Results, 2)
	assert.Equal(t, 12.5, export.Results[0].Fitness)
	assert.Equal(t, episode.ReasonOffTrack, export.Results[1].EndReason)
}

func TestExportPlainJSON(t *testing.T) {
	dir := t.TempDir()
	b := New(Config{OutputDir: dir})
	runEpisode(t, b)

	path := b.ExportedPath()
	assert.True(t, strings.HasSuffix(path, ".json"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"vehicle_id":"a"`)

	export, err := ReadExport(path)
	require.NoError(t, err)
	assert.Len(t, export.Results, 2)
}

func TestHistoryWithoutOutput(t *testing.T) {
	b := New(Config{})
	runEpisode(t, b)
	runEpisode(t, b)

	assert.Empty(t, b.ExportedPath())
	eps := b.Episodes()
	require.Len(t, eps, 2)
	assert.Len(t, eps[1].Results, 2)
}

func TestEpisodeOrdering(t *testing.T) {
	b := New(Config{})

	assert.ErrorIs(t, b.RecordResult(episode.Result{}), storage.ErrNoEpisode)
	assert.ErrorIs(t, b.EndEpisode(storage.Summary{}), storage.ErrNoEpisode)

	require.NoError(t, b.StartEpisode(testEpisode()))
	assert.ErrorIs(t, b.StartEpisode(testEpisode()), storage.ErrEpisodeActive)
}
