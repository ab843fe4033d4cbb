package simulation

import (
	"errors"
	"fmt"
	"time"

	"github.com/zeusync/drivesim/internal/core/episode"
	"github.com/zeusync/drivesim/internal/core/perception"
	"github.com/zeusync/drivesim/internal/core/vehicle"
)

var (
	ErrInvalidConfig = errors.New("invalid simulation config")
	ErrNoTrack       = errors.New("simulation needs a track")
	ErrEpisodeOver   = errors.New("episode is over")
	ErrNilController = errors.New("nil controller")
)

type Config struct {
	// Tick is the fixed simulation step.
	Tick time.Duration `mapstructure:"tick" json:"tick"`
	// Workers > 1 fans sensing and decisions out across goroutines.
	Workers int `mapstructure:"workers" json:"workers"`
	// Realtime paces Run against the wall clock instead of stepping flat out.
	Realtime bool `mapstructure:"realtime" json:"realtime"`
	// MaxRange is the no-hit sensor reading; 0 uses the track diagonal.
	MaxRange float64 `mapstructure:"max_range" json:"max_range"`

	Sensors perception.FanConfig `mapstructure:"sensors" json:"sensors"`
	Vehicle vehicle.Params       `mapstructure:"vehicle" json:"vehicle"`
	Episode episode.Config       `mapstructure:"episode" json:"episode"`
}

func DefaultConfig() Config {
	return Config{
		Tick:    50 * time.Millisecond,
		Workers: 1,
		Sensors: perception.DefaultFan(),
		Vehicle: vehicle.DefaultParams(),
		Episode: episode.DefaultConfig(),
	}
}

func (c Config) Validate() error {
	if c.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive", ErrInvalidConfig)
	}
	if c.Sensors.Count < 0 {
		return fmt.Errorf("%w: sensor count must not be negative", ErrInvalidConfig)
	}
	if c.MaxRange < 0 {
		return fmt.Errorf("%w: max_range must not be negative", ErrInvalidConfig)
	}
	if err := c.Vehicle.Validate(); err != nil {
		return err
	}
	return c.Episode.Validate()
}
