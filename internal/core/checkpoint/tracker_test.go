package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	phys "github.com/zeusync/drivesim/internal/core/systems/physics"
	"github.com/zeusync/drivesim/internal/core/track"
)

func TestIntersects(t *testing.T) {
	cases := []struct {
		name           string
		p1, p2, q1, q2 phys.Vec2
		want           bool
	}{
		{"cross", phys.V2(0, 0), phys.V2(2, 2), phys.V2(0, 2), phys.V2(2, 0), true},
		{"short", phys.V2(0, 0), phys.V2(0.5, 0.5), phys.V2(0, 2), phys.V2(2, 0), false},
		{"touch endpoint", phys.V2(0, 0), phys.V2(1, 1), phys.V2(1, 1), phys.V2(2, 0), true},
		{"parallel", phys.V2(0, 0), phys.V2(1, 0), phys.V2(0, 1), phys.V2(1, 1), false},
		{"collinear overlap", phys.V2(0, 0), phys.V2(2, 0), phys.V2(1, 0), phys.V2(3, 0), false},
		{"degenerate move", phys.V2(1, 0), phys.V2(1, 0), phys.V2(1, -1), phys.V2(1, 1), false},
		{"beyond", phys.V2(0, 0), phys.V2(1, 0), phys.V2(2, -1), phys.V2(2, 1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Intersects(tc.p1, tc.p2, tc.q1, tc.q2))
			assert.Equal(t, tc.want, Intersects(tc.q1, tc.q2, tc.p1, tc.p2))
		})
	}
}

func lapCheckpoints() []track.Checkpoint {
	trk := track.New()
	trk.AddCheckpoint(phys.V2(10, -5), phys.V2(10, 5))
	trk.AddCheckpoint(phys.V2(30, -5), phys.V2(30, 5))
	return trk.Checkpoints
}

func TestOscillationReportsOnce(t *testing.T) {
	cps := lapCheckpoints()
	tr := NewTracker()
	assert.Equal(t, None, tr.Last())

	// Jitter back and forth across the first line.
	positions := []phys.Vec2{
		phys.V2(9.8, 0), phys.V2(10.2, 0), phys.V2(9.9, 0.1),
		phys.V2(10.1, 0), phys.V2(9.95, 0), phys.V2(10.3, 0),
	}
	crossings := 0
	for i := 1; i < len(positions); i++ {
		idx, crossed := tr.Check(positions[i-1], positions[i], cps)
		if crossed {
			crossings++
			assert.Equal(t, 0, idx)
		}
	}
	assert.Equal(t, 1, crossings)
	assert.Equal(t, 0, tr.Last())

	idx, crossed := tr.Check(phys.V2(29, 0), phys.V2(31, 0), cps)
	assert.True(t, crossed)
	assert.Equal(t, 1, idx)

	// A different checkpoint in between re-arms the first.
	_, crossed = tr.Check(phys.V2(9, 0), phys.V2(11, 0), cps)
	assert.True(t, crossed)
}

func TestResetClearsMarker(t *testing.T) {
	cps := lapCheckpoints()
	tr := NewTracker()

	_, crossed := tr.Check(phys.V2(9, 0), phys.V2(11, 0), cps)
	assert.True(t, crossed)
	_, crossed = tr.Check(phys.V2(11, 0), phys.V2(9, 0), cps)
	assert.False(t, crossed)

	tr.Reset()
	_, crossed = tr.Check(phys.V2(9, 0), phys.V2(11, 0), cps)
	assert.True(t, crossed)
}

func TestNoCrossing(t *testing.T) {
	idx, crossed := NewTracker().Check(phys.V2(0, 0), phys.V2(5, 0), lapCheckpoints())
	assert.False(t, crossed)
	assert.Equal(t, None, idx)
	_, crossed = NewTracker().Check(phys.V2(0, 0), phys.V2(50, 0), nil)
	assert.False(t, crossed)
}
