package track

import (
	"math"

	"github.com/zeusync/drivesim/internal/core/assets"
	phys "github.com/zeusync/drivesim/internal/core/systems/physics"
)

// Obstacle is a rotated rectangle whose footprint is an alpha stencil, so
// shapes need not be rectangular or axis aligned.
type Obstacle struct {
	phys.Body
	Texture string
	mask    assets.AlphaMask
}

func NewObstacle(body phys.Body, texture string, mask assets.AlphaMask) *Obstacle {
	return &Obstacle{Body: body, Texture: texture, mask: mask}
}

func (o *Obstacle) Mask() assets.AlphaMask { return o.mask }

// HitTest reports whether point lands on an opaque pixel of the obstacle.
func (o *Obstacle) HitTest(point phys.Vec2) bool {
	if o.mask == nil || o.Size.X <= 0 || o.Size.Y <= 0 {
		return false
	}
	local := o.ToLocal(point)
	w, h := o.mask.Width(), o.mask.Height()
	px := int(math.Floor(float64(w) * (0.5 + local.X/o.Size.X)))
	py := int(math.Floor(float64(h) * (0.5 + local.Y/o.Size.Y)))
	if px < 0 || px >= w || py < 0 || py >= h {
		return false
	}
	return o.mask.AlphaAt(px, py) != 0
}
