package perception

import (
	"math"

	phys "github.com/zeusync/drivesim/internal/core/systems/physics"
	"github.com/zeusync/drivesim/internal/core/track"
)

// Hit is the result of a single ray cast.
type Hit struct {
	Point    phys.Vec2
	Distance float64 // meters from the origin
	Found    bool    // false when the ray left the map without hitting anything
}

// Caster traces rays through a track's drivability mask and obstacles.
// It holds no per-cast state and is safe for concurrent use.
type Caster struct {
	track    *track.Track
	maxRange float64
}

// NewCaster binds a caster to a track. maxRange is the distance reported when a
// ray leaves the map without a hit; a non-positive value selects the track
// diagonal.
func NewCaster(trk *track.Track, maxRange float64) *Caster {
	if maxRange <= 0 {
		maxRange = trk.Diagonal()
	}
	return &Caster{track: trk, maxRange: maxRange}
}

// MaxRange is the no-signal sentinel distance.
func (c *Caster) MaxRange() float64 { return c.maxRange }

// Cast walks the pixel grid from origin along angle using DDA and stops at the
// first transparent pixel or obstacle. An origin that is already off-track
// yields a zero-distance hit at the origin.
func (c *Caster) Cast(origin phys.Vec2, angle float64) Hit {
	m := c.track.Map
	if m == nil || m.IsOffTrack(origin) {
		return Hit{Point: origin, Found: true}
	}

	heading := phys.FromAngle(angle)
	w, h := m.Resolution()
	size := m.Size()

	// Direction in pixels per meter travelled, so the DDA parameter is the
	// world distance along heading even when the axes scale differently.
	dirX := heading.X * float64(w) / size.X
	dirY := heading.Y * float64(h) / size.Y

	deltaX := math.Inf(1)
	if dirX != 0 {
		deltaX = math.Abs(1 / dirX)
	}
	deltaY := math.Inf(1)
	if dirY != 0 {
		deltaY = math.Abs(1 / dirY)
	}

	mp := m.WorldToMap(origin)
	px := int(math.Floor(mp.X))
	py := int(math.Floor(mp.Y))

	var sideX, sideY float64
	stepX, stepY := 1, 1
	if dirX < 0 {
		stepX = -1
		sideX = (mp.X - float64(px)) * deltaX
	} else {
		sideX = (float64(px) + 1 - mp.X) * deltaX
	}
	if dirY < 0 {
		stepY = -1
		sideY = (mp.Y - float64(py)) * deltaY
	} else {
		sideY = (float64(py) + 1 - mp.Y) * deltaY
	}

	hasObstacles := len(c.track.Obstacles) > 0
	maxSteps := w + h + 2
	for i := 0; i < maxSteps; i++ {
		var dist float64
		if sideX < sideY {
			dist = sideX
			sideX += deltaX
			px += stepX
		} else {
			dist = sideY
			sideY += deltaY
			py += stepY
		}

		if !m.Contains(px, py) {
			break
		}

		if m.AlphaAt(px, py) == 0 {
			return Hit{Point: origin.Add(heading.Scale(dist)), Distance: dist, Found: true}
		}

		if hasObstacles {
			if p := origin.Add(heading.Scale(dist)); c.track.HitObstacle(p) {
				return Hit{Point: p, Distance: dist, Found: true}
			}
		}
	}

	return Hit{Point: origin.Add(heading.Scale(c.maxRange)), Distance: c.maxRange}
}
