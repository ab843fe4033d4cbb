package track

import (
	"math"

	"github.com/zeusync/drivesim/internal/core/assets"
	phys "github.com/zeusync/drivesim/internal/core/systems/physics"
)

// Map is the drivability mask of a track: transparent pixels are off-track,
// any non-zero alpha is drivable. It covers world coordinates
// [origin, origin+size).
type Map struct {
	origin phys.Vec2
	size   phys.Vec2
	mask   assets.AlphaMask
	width  int
	height int
}

// NewMap scales mask over a physical area whose top-left corner is origin.
// Axes scale independently.
func NewMap(origin, size phys.Vec2, mask assets.AlphaMask) *Map {
	m := &Map{origin: origin, size: size, mask: mask}
	if mask != nil {
		m.width, m.height = mask.Width(), mask.Height()
	}
	return m
}

func (m *Map) Size() phys.Vec2   { return m.size }
func (m *Map) Origin() phys.Vec2 { return m.origin }

// Resolution is the pixel size of the mask.
func (m *Map) Resolution() (int, int) { return m.width, m.height }

// Diagonal is the longest straight distance inside the map, in meters.
func (m *Map) Diagonal() float64 { return m.size.Len() }

// WorldToMap converts meters to fractional pixel coordinates.
func (m *Map) WorldToMap(p phys.Vec2) phys.Vec2 {
	return phys.Vec2{
		X: (p.X - m.origin.X) / m.size.X * float64(m.width),
		Y: (p.Y - m.origin.Y) / m.size.Y * float64(m.height),
	}
}

// MapToWorld converts fractional pixel coordinates back to meters.
func (m *Map) MapToWorld(p phys.Vec2) phys.Vec2 {
	return phys.Vec2{
		X: m.origin.X + p.X/float64(m.width)*m.size.X,
		Y: m.origin.Y + p.Y/float64(m.height)*m.size.Y,
	}
}

// Pixel returns the integer pixel containing a world position.
func (m *Map) Pixel(p phys.Vec2) (int, int) {
	mp := m.WorldToMap(p)
	return int(math.Floor(mp.X)), int(math.Floor(mp.Y))
}

// Contains reports whether a pixel index is inside the grid.
func (m *Map) Contains(px, py int) bool {
	return px >= 0 && px < m.width && py >= 0 && py < m.height
}

// AlphaAt returns the opacity at a pixel, 0 outside the grid.
func (m *Map) AlphaAt(px, py int) uint8 {
	if !m.Contains(px, py) {
		return 0
	}
	return m.mask.AlphaAt(px, py)
}

// Drivable reports whether a pixel is inside the grid and opaque.
func (m *Map) Drivable(px, py int) bool {
	return m.AlphaAt(px, py) != 0
}

// IsOffTrack is true when p maps outside the grid or onto a transparent pixel.
func (m *Map) IsOffTrack(p phys.Vec2) bool {
	if m.mask == nil || m.size.X <= 0 || m.size.Y <= 0 {
		return true
	}
	return !m.Drivable(m.Pixel(p))
}
