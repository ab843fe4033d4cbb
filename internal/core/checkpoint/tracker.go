package checkpoint

import (
	phys "github.com/zeusync/drivesim/internal/core/systems/physics"
	"github.com/zeusync/drivesim/internal/core/track"
)

// None is the last-crossed index of a fresh tracker.
const None = -1

// Tracker remembers the most recently crossed checkpoint of one vehicle so
// that jitter across the same line reports a single crossing. Order is not
// enforced.
type Tracker struct {
	last int
}

func NewTracker() *Tracker {
	return &Tracker{last: None}
}

// Last returns the index of the last crossed checkpoint, or None.
func (t *Tracker) Last() int { return t.last }

// Reset forgets the last crossing.
func (t *Tracker) Reset() { t.last = None }

// Check tests the movement prev->next against checkpoints in order. Only the
// first intersected checkpoint is considered; crossed is true when it differs
// from the last one reported.
func (t *Tracker) Check(prev, next phys.Vec2, checkpoints []track.Checkpoint) (index int, crossed bool) {
	for i := range checkpoints {
		cp := &checkpoints[i]
		if !Intersects(prev, next, cp.From, cp.To) {
			continue
		}
		if cp.Index == t.last {
			return cp.Index, false
		}
		t.last = cp.Index
		return cp.Index, true
	}
	return None, false
}

// Intersects reports whether segments p1-p2 and q1-q2 cross. Parallel and
// collinear segments never intersect; touching an endpoint counts.
func Intersects(p1, p2, q1, q2 phys.Vec2) bool {
	r := p2.Sub(p1)
	s := q2.Sub(q1)
	denom := r.Cross(s)
	if denom == 0 {
		return false
	}
	qp := q1.Sub(p1)
	u := qp.Cross(s) / denom
	v := qp.Cross(r) / denom
	return u >= 0 && u <= 1 && v >= 0 && v <= 1
}
