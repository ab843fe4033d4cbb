package app

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/drivesim/internal/config"
	"github.com/zeusync/drivesim/internal/core/episode"
	"github.com/zeusync/drivesim/internal/core/observability/log"
	"github.com/zeusync/drivesim/internal/storage/sqlite"
)

const corridorYAML = `
track:
  width: 40
  height: 10
  start_x: 5
  start_y: 5
  start_angle: 0
  map: corridor.png
checkpoints:
  - {from: {x: 15, y: 0}, to: {x: 15, y: 10}}
`

// writeCorridor lays out a 40x10 m track drivable for x < 30.
func writeCorridor(t *testing.T) (def, assetsDir string) {
	t.Helper()
	dir := t.TempDir()
	assetsDir = filepath.Join(dir, "assets")
	require.NoError(t, os.MkdirAll(assetsDir, 0o755))

	img := image.NewNRGBA(image.Rect(0, 0, 40, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 30; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 80, G: 80, B: 80, A: 255})
		}
	}
	f, err := os.Create(filepath.Join(assetsDir, "corridor.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	def = filepath.Join(dir, "corridor.yaml")
	require.NoError(t, os.WriteFile(def, []byte(corridorYAML), 0o644))
	return def, assetsDir
}

func loadConfig(t *testing.T, args ...string) *config.Config {
	t.Helper()
	def, assetsDir := writeCorridor(t)
	fs := config.Flags("test")
	require.NoError(t, fs.Parse(append([]string{"--track", def, "--assets", assetsDir}, args...)))
	cfg, err := config.Load(fs)
	require.NoError(t, err)
	cfg.Simulation.Episode.Budget = 5 * time.Second
	return cfg
}

func build(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	logger := log.NewNop()

	reg, err := ProvideRegistry(cfg, logger)
	require.NoError(t, err)
	trk, err := ProvideTrack(cfg, reg, logger)
	require.NoError(t, err)
	eventBus := ProvideBus()
	stepper, err := ProvideStepper(cfg, trk, eventBus, logger)
	require.NoError(t, err)
	keys := ProvideKeys()
	policy, err := ProvidePolicy(cfg)
	require.NoError(t, err)

	return New(cfg, logger, reg, trk, eventBus, stepper, keys,
		ProvideServer(cfg, stepper, keys, logger), ProvideStorage(cfg, logger), policy)
}

func TestRunExportsEveryEpisode(t *testing.T) {
	cfg := loadConfig(t, "--episodes", "2", "--vehicles", "3", "--storage", "memory")
	out := t.TempDir()
	cfg.Storage.Memory.OutputDir = out

	a := build(t, cfg)
	require.NoError(t, a.Run(context.Background()))

	history := a.History()
	require.Len(t, history, 2)
	assert.NotEqual(t, history[0].ID, history[1].ID)
	for i, r := range history {
		assert.Equal(t, i, r.Episode)
		assert.NotEqual(t, episode.ReasonNone, r.Reason)
		assert.Positive(t, r.Ticks)
		assert.LessOrEqual(t, r.Ticks, uint64(100))
		assert.FileExists(t, r.Path)
	}

	files, err := filepath.Glob(filepath.Join(out, "corridor_*.json.gz"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestRunPersistsToSQLite(t *testing.T) {
	cfg := loadConfig(t, "--controller", "learned", "--vehicles", "3", "--storage", "sqlite")
	cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "results.db")

	a := build(t, cfg)
	require.NoError(t, a.Run(context.Background()))

	// a zero policy never presses gas, so every car stalls out
	history := a.History()
	require.Len(t, history, 1)
	assert.Equal(t, episode.ReasonAllOut, history[0].Reason)
	assert.EqualValues(t, 40, history[0].Ticks)

	db := sqlite.New(cfg.Storage.SQLite, nil)
	require.NoError(t, db.Init())
	t.Cleanup(func() { _ = db.Close() })

	eps, err := db.Episodes()
	require.NoError(t, err)
	require.Len(t, eps, 1)
	assert.Equal(t, history[0].ID, eps[0].ID)
	assert.Len(t, eps[0].MapHash, 16)
	require.Len(t, eps[0].Results, 3)
	for _, r := range eps[0].Results {
		assert.Equal(t, "learned", r.Controller)
		assert.Equal(t, string(episode.ReasonStagnant), r.EndReason)
	}
}

func TestRunWithTelemetryServer(t *testing.T) {
	cfg := loadConfig(t, "--controller", "human", "--serve", "--listen", "127.0.0.1:0", "--storage", "none")

	a := build(t, cfg)
	require.NotNil(t, a.Server())
	require.NoError(t, a.Run(context.Background()))

	history := a.History()
	require.Len(t, history, 1)
	assert.Equal(t, episode.ReasonAllOut, history[0].Reason)
	assert.Empty(t, history[0].Path)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := loadConfig(t, "--episodes", "0", "--storage", "none")
	a := build(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, a.Run(ctx))
	assert.Empty(t, a.History())
}

func TestProvidePolicy(t *testing.T) {
	cfg := loadConfig(t)
	p, err := ProvidePolicy(cfg)
	require.NoError(t, err)
	assert.Nil(t, p)

	cfg.Controller.Kind = "learned"
	p, err = ProvidePolicy(cfg)
	require.NoError(t, err)
	require.Len(t, p.Weights, 4)
	assert.Len(t, p.Weights[0], cfg.Simulation.Sensors.Count+2)

	cfg.Controller.PolicyFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = ProvidePolicy(cfg)
	assert.Error(t, err)
}
