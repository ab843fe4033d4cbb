package app

import (
	"fmt"

	"github.com/zeusync/drivesim/internal/config"
	"github.com/zeusync/drivesim/internal/core/assets"
	"github.com/zeusync/drivesim/internal/core/controller"
	"github.com/zeusync/drivesim/internal/core/events/bus"
	"github.com/zeusync/drivesim/internal/core/observability/log"
	"github.com/zeusync/drivesim/internal/core/simulation"
	"github.com/zeusync/drivesim/internal/core/track"
	"github.com/zeusync/drivesim/internal/server"
	"github.com/zeusync/drivesim/internal/storage"
	"github.com/zeusync/drivesim/internal/storage/memory"
	"github.com/zeusync/drivesim/internal/storage/sqlite"
)

func ProvideLogger(cfg *config.Config) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return log.New(level), nil
}

func ProvideRegistry(cfg *config.Config, logger log.Log) (*assets.Registry, error) {
	reg := assets.NewRegistry(logger)
	if cfg.Track.AssetsDir == "" {
		return reg, nil
	}
	if _, err := reg.LoadDir(cfg.Track.AssetsDir); err != nil {
		return nil, err
	}
	return reg, nil
}

func ProvideTrack(cfg *config.Config, reg *assets.Registry, logger log.Log) (*track.Track, error) {
	def, err := track.LoadFile(cfg.Track.Definition)
	if err != nil {
		return nil, err
	}
	trk, err := def.Build(reg, logger)
	if err != nil {
		return nil, fmt.Errorf("build track %s: %w", cfg.Track.Definition, err)
	}
	if trk.Map == nil {
		return nil, fmt.Errorf("track %s has no drivable map", cfg.Track.Definition)
	}
	return trk, nil
}

func ProvideBus() bus.EventBus {
	return bus.New()
}

func ProvideStepper(cfg *config.Config, trk *track.Track, eventBus bus.EventBus, logger log.Log) (*simulation.Stepper, error) {
	return simulation.NewStepper(cfg.Simulation, trk, eventBus, logger)
}

func ProvideKeys() *controller.Keys {
	return &controller.Keys{}
}

// ProvideServer returns nil when telemetry is disabled.
func ProvideServer(cfg *config.Config, stepper *simulation.Stepper, keys *controller.Keys, logger log.Log) *server.Server {
	if !cfg.Server.Enabled {
		return nil
	}
	return server.NewServer(cfg.Server, stepper, keys, logger)
}

// ProvidePolicy loads the learned policy file, or a zero policy shaped for
// the sensor fan when none is configured. Other controller kinds get nil.
func ProvidePolicy(cfg *config.Config) (*controller.LinearPolicy, error) {
	kind, err := controller.ParseKind(cfg.Controller.Kind)
	if err != nil {
		return nil, err
	}
	if kind != controller.KindLearned {
		return nil, nil
	}
	if cfg.Controller.PolicyFile == "" {
		return controller.NewLinearPolicy(cfg.Simulation.Sensors.Count+2, 4), nil
	}
	return controller.LoadLinearPolicy(cfg.Controller.PolicyFile)
}

// ProvideStorage picks the result backend named by storage.type.
func ProvideStorage(cfg *config.Config, logger log.Log) storage.Backend {
	switch cfg.Storage.Type {
	case config.StorageSQLite:
		return sqlite.New(cfg.Storage.SQLite, logger)
	case config.StorageMemory:
		return memory.New(cfg.Storage.Memory)
	default:
		return storage.Nop{}
	}
}
