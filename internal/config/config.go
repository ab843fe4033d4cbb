package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/zeusync/drivesim/internal/core/controller"
	"github.com/zeusync/drivesim/internal/core/observability/log"
	"github.com/zeusync/drivesim/internal/core/simulation"
	"github.com/zeusync/drivesim/internal/server"
	"github.com/zeusync/drivesim/internal/storage/memory"
	"github.com/zeusync/drivesim/internal/storage/sqlite"
)

const EnvPrefix = "DRIVESIM"

var ErrInvalid = errors.New("invalid configuration")

// Storage backend names.
const (
	StorageNone   = "none"
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

type Config struct {
	LogLevel string `mapstructure:"log_level"`
	// Episodes is how many runs to simulate; 0 runs until interrupted.
	Episodes int `mapstructure:"episodes"`

	Track      TrackConfig       `mapstructure:"track"`
	Simulation simulation.Config `mapstructure:"simulation"`
	Controller ControllerConfig  `mapstructure:"controller"`
	Server     server.Config     `mapstructure:"server"`
	Storage    StorageConfig     `mapstructure:"storage"`
}

type TrackConfig struct {
	Definition string `mapstructure:"definition"`
	AssetsDir  string `mapstructure:"assets_dir"`
}

type ControllerConfig struct {
	Kind       string  `mapstructure:"kind"`
	Count      int     `mapstructure:"count"`
	Cruise     float64 `mapstructure:"cruise"`
	PolicyFile string  `mapstructure:"policy_file"`
}

type StorageConfig struct {
	Type   string        `mapstructure:"type"`
	Memory memory.Config `mapstructure:"memory"`
	SQLite sqlite.Config `mapstructure:"sqlite"`
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"config":     "config",
	"log-level":  "log_level",
	"episodes":   "episodes",
	"track":      "track.definition",
	"assets":     "track.assets_dir",
	"workers":    "simulation.workers",
	"realtime":   "simulation.realtime",
	"controller": "controller.kind",
	"vehicles":   "controller.count",
	"policy":     "controller.policy_file",
	"serve":      "server.enabled",
	"listen":     "server.listen_addr",
	"storage":    "storage.type",
}

// Flags declares every flag Load understands.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "path to a YAML or JSON config file")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.IntP("episodes", "n", 1, "episodes to run, 0 for no limit")
	fs.StringP("track", "t", "", "track definition file")
	fs.String("assets", "", "directory of PNG masks")
	fs.IntP("workers", "w", 1, "sensing workers per tick")
	fs.Bool("realtime", false, "pace ticks against the wall clock")
	fs.String("controller", "scripted", "human, learned or scripted")
	fs.Int("vehicles", 1, "vehicles per episode")
	fs.String("policy", "", "linear policy file for learned controllers")
	fs.Bool("serve", false, "serve websocket telemetry")
	fs.String("listen", "127.0.0.1:8080", "telemetry listen address")
	fs.String("storage", StorageMemory, "none, memory or sqlite")
	return fs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("episodes", 1)

	v.SetDefault("track.definition", "")
	v.SetDefault("track.assets_dir", "")

	sim := simulation.DefaultConfig()
	v.SetDefault("simulation.tick", sim.Tick)
	v.SetDefault("simulation.workers", sim.Workers)
	v.SetDefault("simulation.realtime", sim.Realtime)
	v.SetDefault("simulation.max_range", sim.MaxRange)
	v.SetDefault("simulation.sensors.count", sim.Sensors.Count)
	v.SetDefault("simulation.sensors.fov", sim.Sensors.FOV)
	v.SetDefault("simulation.vehicle.max_steer", sim.Vehicle.MaxSteer)
	v.SetDefault("simulation.vehicle.steering_rate", sim.Vehicle.SteeringRate)
	v.SetDefault("simulation.vehicle.steering_steps", sim.Vehicle.SteeringSteps)
	v.SetDefault("simulation.vehicle.steering_mode", string(sim.Vehicle.SteeringMode))
	v.SetDefault("simulation.vehicle.self_align", sim.Vehicle.SelfAlign)
	v.SetDefault("simulation.vehicle.friction", sim.Vehicle.Friction)
	v.SetDefault("simulation.vehicle.drag", sim.Vehicle.Drag)
	v.SetDefault("simulation.vehicle.horsepower", sim.Vehicle.Horsepower)
	v.SetDefault("simulation.vehicle.brake_power", sim.Vehicle.BrakePower)
	v.SetDefault("simulation.vehicle.size.x", sim.Vehicle.Size.X)
	v.SetDefault("simulation.vehicle.size.y", sim.Vehicle.Size.Y)
	v.SetDefault("simulation.episode.budget", sim.Episode.Budget)
	v.SetDefault("simulation.episode.stagnation_limit", sim.Episode.StagnationLimit)
	v.SetDefault("simulation.episode.death_penalty", sim.Episode.DeathPenalty)
	v.SetDefault("simulation.episode.survival_bonus", sim.Episode.SurvivalBonus)

	v.SetDefault("controller.kind", controller.KindScripted.String())
	v.SetDefault("controller.count", 1)
	v.SetDefault("controller.cruise", 20.0)
	v.SetDefault("controller.policy_file", "")

	srv := server.DefaultServerConfig()
	v.SetDefault("server.enabled", srv.Enabled)
	v.SetDefault("server.listen_addr", srv.ListenAddr)
	v.SetDefault("server.max_clients", srv.MaxClients)
	v.SetDefault("server.token", srv.Token)
	v.SetDefault("server.broadcast_interval", srv.BroadcastInterval)
	v.SetDefault("server.send_buffer", srv.SendBuffer)
	v.SetDefault("server.write_timeout", srv.WriteTimeout)
	v.SetDefault("server.max_message_size", srv.MaxMessageSize)

	v.SetDefault("storage.type", StorageMemory)
	v.SetDefault("storage.memory.output_dir", "")
	v.SetDefault("storage.memory.compress_output", true)
	v.SetDefault("storage.sqlite.path", "./drivesim.db")
}

// Load merges defaults, the config file named by --config, DRIVESIM_*
// environment variables and changed flags, in increasing precedence.
// flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Episodes < 0 {
		return fmt.Errorf("%w: episodes must not be negative", ErrInvalid)
	}
	if c.Track.Definition == "" {
		return fmt.Errorf("%w: track.definition is required", ErrInvalid)
	}
	if err := c.Simulation.Validate(); err != nil {
		return err
	}

	kind, err := controller.ParseKind(c.Controller.Kind)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Controller.Count < 1 {
		return fmt.Errorf("%w: controller.count must be at least 1", ErrInvalid)
	}
	if kind == controller.KindHuman && !c.Server.Enabled {
		return fmt.Errorf("%w: human control needs the telemetry server", ErrInvalid)
	}

	if c.Server.Enabled {
		if err = c.Server.Validate(); err != nil {
			return err
		}
	}

	switch c.Storage.Type {
	case StorageNone, StorageMemory:
	case StorageSQLite:
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("%w: storage.sqlite.path is required", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown storage type %q", ErrInvalid, c.Storage.Type)
	}
	return nil
}
