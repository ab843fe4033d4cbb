package physics

// Pose is a position plus heading in world space.
type Pose struct {
	Position Vec2    `json:"position"`
	Angle    float64 `json:"angle"` // radians
}

// Heading returns the unit vector the pose faces.
func (p Pose) Heading() Vec2 { return FromAngle(p.Angle) }

// Body is a Pose with a physical extent, shared by every placed entity.
type Body struct {
	Pose
	Size Vec2 `json:"size"` // width, height in meters
}

func (b Body) Width() float64  { return b.Size.X }
func (b Body) Height() float64 { return b.Size.Y }

// ToLocal expresses a world point in the body's frame, origin at its center.
func (b Body) ToLocal(p Vec2) Vec2 {
	return p.Sub(b.Position).Rotate(-b.Angle)
}
