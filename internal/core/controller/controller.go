package controller

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zeusync/drivesim/internal/core/perception"
	"github.com/zeusync/drivesim/internal/core/vehicle"
)

// Kind tags where a controller's decisions come from.
type Kind uint8

const (
	KindHuman Kind = iota + 1
	KindLearned
	KindScripted
)

func (k Kind) String() string {
	switch k {
	case KindHuman:
		return "human"
	case KindLearned:
		return "learned"
	case KindScripted:
		return "scripted"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var ErrUnknownKind = errors.New("unknown controller kind")

// ParseKind maps a config name onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "human":
		return KindHuman, nil
	case "learned":
		return KindLearned, nil
	case "scripted":
		return KindScripted, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Observation is everything a controller sees for one tick. Sensors that
// found nothing read the caster's MaxRange.
type Observation struct {
	Sensors  perception.SensorVector
	Speed    float64
	Steering float64
}

// Command is applied by the kinematics on the following tick.
type Command = vehicle.Actuation

// Controller decides synchronously; Decide must not block.
type Controller interface {
	Kind() Kind
	Decide(obs Observation) Command
}

// Func adapts a plain function into a Scripted controller body.
type Func func(obs Observation) Command
