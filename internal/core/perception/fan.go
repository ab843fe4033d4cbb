package perception

import (
	"math"

	phys "github.com/zeusync/drivesim/internal/core/systems/physics"
)

// SensorVector holds one distance per ray, ordered from the leftmost
// (heading - fov/2) ray clockwise across the fan.
type SensorVector []float64

// FanConfig describes a sensor fan.
type FanConfig struct {
	Count int     `mapstructure:"count" json:"count"`
	FOV   float64 `mapstructure:"fov" json:"fov"` // radians
}

// DefaultFan is twelve rays spread over a half circle.
func DefaultFan() FanConfig {
	return FanConfig{Count: 12, FOV: math.Pi}
}

// Angle returns the direction of ray i for a vehicle facing heading.
func (f FanConfig) Angle(heading float64, i int) float64 {
	return heading - f.FOV/2 + float64(i)*f.FOV/float64(f.Count)
}

// Fan casts cfg.Count rays around heading and writes their distances into dst,
// reusing its storage when large enough.
func (c *Caster) Fan(dst SensorVector, origin phys.Vec2, heading float64, cfg FanConfig) SensorVector {
	if cfg.Count <= 0 {
		return dst[:0]
	}
	if cap(dst) < cfg.Count {
		dst = make(SensorVector, cfg.Count)
	}
	dst = dst[:cfg.Count]
	for i := range dst {
		dst[i] = c.Cast(origin, cfg.Angle(heading, i)).Distance
	}
	return dst
}

// BuildSensorFan is the allocating convenience form of Fan.
func (c *Caster) BuildSensorFan(origin phys.Vec2, heading float64, count int, fov float64) SensorVector {
	return c.Fan(nil, origin, heading, FanConfig{Count: count, FOV: fov})
}
