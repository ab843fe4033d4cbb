package controller

// Scripted runs a deterministic hand-written policy.
type Scripted struct {
	name string
	fn   Func
}

var _ Controller = (*Scripted)(nil)

func NewScripted(name string, fn Func) *Scripted {
	return &Scripted{name: name, fn: fn}
}

func (s *Scripted) Kind() Kind   { return KindScripted }
func (s *Scripted) Name() string { return s.name }

func (s *Scripted) Decide(obs Observation) Command {
	return s.fn(obs)
}

// NewWallFollower holds cruise speed and steers toward whichever half of the
// sensor fan sees more room. The first half of the fan looks left.
func NewWallFollower(cruise float64) *Scripted {
	return NewScripted("wall_follower", func(obs Observation) Command {
		n := len(obs.Sensors)
		var left, right float64
		for i, d := range obs.Sensors {
			if i < n/2 {
				left += d
			} else if i >= (n+1)/2 {
				right += d
			}
		}

		cmd := Command{Gas: obs.Speed < cruise}
		margin := 0.05 * (left + right)
		switch {
		case left > right+margin:
			cmd.Left = true
		case right > left+margin:
			cmd.Right = true
		default:
			cmd.Straighten = true
		}
		return cmd
	})
}
