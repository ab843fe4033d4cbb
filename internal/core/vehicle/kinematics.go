package vehicle

import (
	"math"

	phys "github.com/zeusync/drivesim/internal/core/systems/physics"
)

// stopSpeed is the speed at or below which friction snaps the vehicle to rest.
const stopSpeed = 0.1

// State is the physical state of one vehicle. Speed is never negative and
// Steering stays within the model's MaxSteer. OffTrack is sticky: the
// kinematics never clear it.
type State struct {
	phys.Pose
	Speed    float64 `json:"speed"`
	Steering float64 `json:"steering"`
	OffTrack bool    `json:"off_track"`
}

// Spawn returns a resting vehicle at pose.
func Spawn(pose phys.Pose) State {
	return State{Pose: pose}
}

// Actuation is one tick of pedal and steering input.
type Actuation struct {
	Gas        bool `json:"gas"`
	Brake      bool `json:"brake"`
	Left       bool `json:"left"`
	Right      bool `json:"right"`
	Straighten bool `json:"straighten"` // recenter the wheel, e.g. throttle with no turn key
}

// Kinematics integrates vehicle states with a two-wheel model. It is
// stateless apart from its parameters.
type Kinematics struct {
	params Params
}

func New(params Params) *Kinematics {
	return &Kinematics{params: params}
}

func (k *Kinematics) Params() Params { return k.params }

// Update advances s by dt: friction, then actuation, then integration.
// dt must be positive.
func (k *Kinematics) Update(s *State, act Actuation, dt float64) {
	k.ApplyFriction(s, dt)

	if act.Gas {
		k.PressGas(s, dt)
	}
	if act.Brake {
		k.PressBrake(s, dt)
	}
	if act.Straighten {
		k.SetSteering(s, 0)
	}
	if act.Left {
		k.TurnLeft(s, dt)
	}
	if act.Right {
		k.TurnRight(s, dt)
	}

	k.Integrate(s, dt)
}

// ApplyFriction decays speed by rolling resistance and quadratic drag.
// Slow vehicles stop outright.
func (k *Kinematics) ApplyFriction(s *State, dt float64) {
	if s.Speed <= stopSpeed {
		s.Speed = 0
		return
	}
	decay := (k.params.Friction*s.Speed + k.params.Drag*s.Speed*s.Speed) * dt
	s.Speed = math.Max(0, s.Speed-decay)
}

func (k *Kinematics) PressGas(s *State, dt float64) {
	s.Speed += k.params.Horsepower * dt
}

func (k *Kinematics) PressBrake(s *State, dt float64) {
	s.Speed = math.Max(0, s.Speed-k.params.BrakePower*dt)
}

func (k *Kinematics) TurnLeft(s *State, dt float64) {
	k.SetSteering(s, s.Steering-k.params.steerIncrement(dt))
}

func (k *Kinematics) TurnRight(s *State, dt float64) {
	k.SetSteering(s, s.Steering+k.params.steerIncrement(dt))
}

// SetSteering clamps angle to [-MaxSteer, MaxSteer]. NaN recenters.
func (k *Kinematics) SetSteering(s *State, angle float64) {
	if math.IsNaN(angle) {
		angle = 0
	}
	s.Steering = phys.Clamp(angle, -k.params.MaxSteer, k.params.MaxSteer)
}

// Integrate moves the front axle along the steered heading and the rear axle
// along the body heading. The new pose is the axle midpoint facing rear to
// front.
func (k *Kinematics) Integrate(s *State, dt float64) {
	heading := s.Heading()
	half := heading.Scale(k.params.Size.X / 2)
	travel := s.Speed * dt

	front := s.Position.Add(half).Add(heading.Rotate(s.Steering).Scale(travel))
	rear := s.Position.Sub(half).Add(heading.Scale(travel))

	prev := s.Angle
	s.Position = front.Mid(rear)
	s.Angle = front.Sub(rear).Angle()

	if k.params.SelfAlign {
		k.SetSteering(s, s.Steering-normalizeAngle(s.Angle-prev))
	}
}

// normalizeAngle wraps a into (-pi, pi].
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
