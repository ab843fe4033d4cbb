package vehicle

import (
	"errors"
	"fmt"
	"math"

	phys "github.com/zeusync/drivesim/internal/core/systems/physics"
)

var ErrInvalidParams = errors.New("invalid vehicle parameters")

// SteeringMode selects how a turn input moves the steering angle.
type SteeringMode string

const (
	// SteeringRate scales the increment by dt.
	SteeringRate SteeringMode = "rate"
	// SteeringStep moves a fixed 2*MaxSteer/SteeringSteps per input and
	// ignores dt. Kept for replaying legacy runs.
	SteeringStep SteeringMode = "step"
)

// Params are the tuning constants of the kinematic model.
type Params struct {
	MaxSteer      float64      `mapstructure:"max_steer" json:"max_steer"`         // radians
	SteeringRate  float64      `mapstructure:"steering_rate" json:"steering_rate"` // radians per second
	SteeringSteps int          `mapstructure:"steering_steps" json:"steering_steps"`
	SteeringMode  SteeringMode `mapstructure:"steering_mode" json:"steering_mode"`
	SelfAlign     bool         `mapstructure:"self_align" json:"self_align"`

	Friction   float64 `mapstructure:"friction" json:"friction"`
	Drag       float64 `mapstructure:"drag" json:"drag"`
	Horsepower float64 `mapstructure:"horsepower" json:"horsepower"`
	BrakePower float64 `mapstructure:"brake_power" json:"brake_power"`

	// Size is length along the heading by width across it, in meters.
	Size phys.Vec2 `mapstructure:"size" json:"size"`
}

func DefaultParams() Params {
	return Params{
		MaxSteer:      math.Pi / 3,
		SteeringRate:  phys.DegToRad(90),
		SteeringSteps: 20,
		SteeringMode:  SteeringRate,
		Friction:      0.9,
		Drag:          0.001,
		Horsepower:    40,
		BrakePower:    30,
		Size:          phys.V2(5.5, 2),
	}
}

func (p Params) Validate() error {
	switch {
	case p.MaxSteer <= 0:
		return fmt.Errorf("%w: max_steer must be positive", ErrInvalidParams)
	case p.SteeringMode != SteeringRate && p.SteeringMode != SteeringStep:
		return fmt.Errorf("%w: unknown steering mode %q", ErrInvalidParams, p.SteeringMode)
	case p.SteeringMode == SteeringStep && p.SteeringSteps <= 0:
		return fmt.Errorf("%w: steering_steps must be positive in step mode", ErrInvalidParams)
	case p.Friction < 0 || p.Drag < 0:
		return fmt.Errorf("%w: friction and drag must not be negative", ErrInvalidParams)
	case p.Horsepower < 0 || p.BrakePower < 0:
		return fmt.Errorf("%w: horsepower and brake_power must not be negative", ErrInvalidParams)
	case p.Size.X <= 0 || p.Size.Y <= 0:
		return fmt.Errorf("%w: size must be positive", ErrInvalidParams)
	}
	return nil
}

// steerIncrement is the steering change for one turn input.
func (p Params) steerIncrement(dt float64) float64 {
	if p.SteeringMode == SteeringStep {
		return 2 * p.MaxSteer / float64(p.SteeringSteps)
	}
	return p.SteeringRate * dt
}
