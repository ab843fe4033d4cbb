package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zeusync/drivesim/internal/core/assets"
	phys "github.com/zeusync/drivesim/internal/core/systems/physics"
)

func TestObstacleHitTestAxisAligned(t *testing.T) {
	o := NewObstacle(phys.Body{
		Pose: phys.Pose{Position: phys.V2(100, 72)},
		Size: phys.V2(7, 7),
	}, "box.png", assets.FilledMask(7, 7, 255))

	assert.True(t, o.HitTest(phys.V2(100, 72)))
	assert.True(t, o.HitTest(phys.V2(103.4, 68.6)))
	assert.False(t, o.HitTest(phys.V2(103.6, 72)))
	assert.False(t, o.HitTest(phys.V2(0, 0)))
}

func TestObstacleHitTestRotated(t *testing.T) {
	// A long thin bar, 10 x 2 m, rotated to lie along the y axis.
	o := NewObstacle(phys.Body{
		Pose: phys.Pose{Position: phys.V2(0, 0), Angle: math.Pi / 2},
		Size: phys.V2(10, 2),
	}, "bar.png", assets.FilledMask(10, 2, 255))

	assert.True(t, o.HitTest(phys.V2(0, 4)))
	assert.True(t, o.HitTest(phys.V2(0, -4)))
	assert.False(t, o.HitTest(phys.V2(4, 0)))
}

func TestObstacleStencil(t *testing.T) {
	// Only the left half of the stencil is solid.
	mask := assets.NewMask(4, 4, nil)
	mask.FillRect(0, 0, 2, 4, 255)
	o := NewObstacle(phys.Body{Size: phys.V2(4, 4)}, "half.png", mask)

	assert.True(t, o.HitTest(phys.V2(-1, 0)))
	assert.False(t, o.HitTest(phys.V2(1, 0)))
}

func TestObstacleWithoutMaskNeverHits(t *testing.T) {
	o := NewObstacle(phys.Body{Size: phys.V2(4, 4)}, "missing.png", nil)
	assert.False(t, o.HitTest(phys.V2(0, 0)))
}

func TestTrackHitObstacle(t *testing.T) {
	trk := New()
	trk.AddObstacle(NewObstacle(phys.Body{
		Pose: phys.Pose{Position: phys.V2(5, 5)},
		Size: phys.V2(2, 2),
	}, "box.png", assets.FilledMask(2, 2, 255)))

	assert.True(t, trk.HitObstacle(phys.V2(5, 5)))
	assert.False(t, trk.HitObstacle(phys.V2(8, 8)))
}
