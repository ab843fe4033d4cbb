package perception

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/drivesim/internal/core/assets"
	phys "github.com/zeusync/drivesim/internal/core/systems/physics"
	"github.com/zeusync/drivesim/internal/core/track"
)

// corridor is a 40x10 track, one pixel per meter, drivable for x < 20.
func corridor() *track.Track {
	mask := assets.NewMask(40, 10, nil)
	mask.FillRect(0, 0, 20, 10, 255)

	trk := track.New()
	trk.Size = phys.V2(40, 10)
	trk.SetMask("corridor.png", mask)
	return trk
}

func TestCastHitsTransparentColumn(t *testing.T) {
	c := NewCaster(corridor(), 0)

	for _, x0 := range []float64{0, 0.25, 0.5, 0.99, 1.5} {
		hit := c.Cast(phys.V2(x0, 5.5), 0)
		require.True(t, hit.Found, "x0=%v", x0)
		assert.InDelta(t, 20, hit.Distance+x0, 1e-9, "x0=%v", x0)
		assert.InDelta(t, 20, hit.Distance, 2, "x0=%v", x0)
		assert.InDelta(t, 20, hit.Point.X, 1e-9)
		assert.InDelta(t, 5.5, hit.Point.Y, 1e-9)
	}
}

func TestCastFromOffTrackReturnsOrigin(t *testing.T) {
	c := NewCaster(corridor(), 0)
	origin := phys.V2(30.5, 4.5)

	for _, angle := range []float64{0, math.Pi / 3, math.Pi, -2} {
		hit := c.Cast(origin, angle)
		assert.True(t, hit.Found)
		assert.Zero(t, hit.Distance)
		assert.Equal(t, origin, hit.Point)
	}
}

func TestCastLeavingMapReportsMaxRange(t *testing.T) {
	trk := track.New()
	trk.Size = phys.V2(30, 40)
	trk.SetMask("open.png", assets.FilledMask(30, 40, 255))

	c := NewCaster(trk, 0)
	assert.InDelta(t, 50, c.MaxRange(), 1e-9)

	hit := c.Cast(phys.V2(15, 20), math.Pi/2)
	assert.False(t, hit.Found)
	assert.Equal(t, c.MaxRange(), hit.Distance)
	assert.True(t, hit.Point.Near(phys.V2(15, 70), 1e-9))

	c = NewCaster(trk, 12)
	assert.Equal(t, 12.0, c.Cast(phys.V2(15, 20), 1).Distance)
}

func TestCastDiagonal(t *testing.T) {
	mask := assets.FilledMask(20, 20, 255)
	mask.FillRect(10, 0, 20, 20, 0)
	trk := track.New()
	trk.Size = phys.V2(20, 20)
	trk.SetMask("half.png", mask)

	hit := NewCaster(trk, 0).Cast(phys.V2(5.5, 5.5), math.Pi/4)
	require.True(t, hit.Found)
	assert.InDelta(t, 4.5*math.Sqrt2, hit.Distance, 1e-9)
	assert.InDelta(t, 10, hit.Point.X, 1e-9)
}

func TestCastRespectsAxisScale(t *testing.T) {
	// 20 pixels over 40 meters: the transparent column 10 starts at x = 20 m.
	mask := assets.NewMask(20, 10, nil)
	mask.FillRect(0, 0, 10, 10, 255)
	trk := track.New()
	trk.Size = phys.V2(40, 5)
	trk.SetMask("scaled.png", mask)

	hit := NewCaster(trk, 0).Cast(phys.V2(3, 2.5), 0)
	require.True(t, hit.Found)
	assert.InDelta(t, 17, hit.Distance, 1e-9)
}

func TestCastStopsAtObstacle(t *testing.T) {
	trk := corridor()
	trk.AddObstacle(track.NewObstacle(
		phys.Body{Pose: phys.Pose{Position: phys.V2(10, 5)}, Size: phys.V2(2, 10)},
		"cone.png",
		assets.FilledMask(4, 4, 255),
	))

	hit := NewCaster(trk, 0).Cast(phys.V2(2.5, 5.5), 0)
	require.True(t, hit.Found)
	assert.InDelta(t, 9, hit.Point.X, 1e-9)
	assert.InDelta(t, 6.5, hit.Distance, 1e-9)
}

func TestFanAnglesAndReuse(t *testing.T) {
	cfg := DefaultFan()
	assert.InDelta(t, -math.Pi/2, cfg.Angle(0, 0), 1e-12)
	assert.InDelta(t, -math.Pi/2+11*math.Pi/12, cfg.Angle(0, 11), 1e-12)

	c := NewCaster(corridor(), 0)
	buf := make(SensorVector, 0, 16)
	out := c.Fan(buf, phys.V2(2.5, 5.5), 0, cfg)
	require.Len(t, out, 12)
	assert.Same(t, &buf[:1][0], &out[0])

	// Ray 6 points straight ahead.
	assert.InDelta(t, 17.5, out[6], 1e-9)
	for _, d := range out {
		assert.Greater(t, d, 0.0)
		assert.LessOrEqual(t, d, c.MaxRange())
	}

	assert.Empty(t, c.Fan(out, phys.V2(2.5, 5.5), 0, FanConfig{}))
	assert.Len(t, c.BuildSensorFan(phys.V2(2.5, 5.5), 0, 3, math.Pi/2), 3)
}

func TestCastDoesNotAllocate(t *testing.T) {
	c := NewCaster(corridor(), 0)
	buf := make(SensorVector, 12)
	allocs := testing.AllocsPerRun(50, func() {
		c.Fan(buf, phys.V2(2.5, 5.5), 0.3, DefaultFan())
	})
	assert.Zero(t, allocs)
}
