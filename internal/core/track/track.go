package track

import (
	"github.com/zeusync/drivesim/internal/core/assets"
	phys "github.com/zeusync/drivesim/internal/core/systems/physics"
)

// Checkpoint is a world-space line segment. Index is its position in the
// track's checkpoint list.
type Checkpoint struct {
	Index int       `json:"index"`
	From  phys.Vec2 `json:"from"`
	To    phys.Vec2 `json:"to"`
}

// Track aggregates the static configuration of a course. Its Body places the
// drivability mask: Position is the top-left corner, Size the extent in
// meters. It is read-only once an episode starts.
type Track struct {
	phys.Body
	Texture     string
	MapName     string
	Start       phys.Pose
	Map         *Map
	Obstacles   []*Obstacle
	Checkpoints []Checkpoint

	mask assets.AlphaMask
}

func New() *Track {
	return &Track{}
}

// SetMask installs the drivability mask and rebuilds the Map for the current size.
func (t *Track) SetMask(name string, mask assets.AlphaMask) {
	t.MapName = name
	t.mask = mask
	t.rebuildMap()
}

func (t *Track) rebuildMap() {
	if t.mask == nil {
		t.Map = nil
		return
	}
	t.Map = NewMap(t.Position, t.Size, t.mask)
}

// AddObstacle appends an obstacle.
func (t *Track) AddObstacle(o *Obstacle) {
	t.Obstacles = append(t.Obstacles, o)
}

// AddCheckpoint appends a checkpoint segment and assigns its index.
func (t *Track) AddCheckpoint(from, to phys.Vec2) Checkpoint {
	cp := Checkpoint{Index: len(t.Checkpoints), From: from, To: to}
	t.Checkpoints = append(t.Checkpoints, cp)
	return cp
}

// IsOffTrack is the only source of truth for a vehicle leaving the course.
// Without a mask every position is off-track.
func (t *Track) IsOffTrack(p phys.Vec2) bool {
	if t.Map == nil {
		return true
	}
	return t.Map.IsOffTrack(p)
}

// HitObstacle reports whether any obstacle covers p.
func (t *Track) HitObstacle(p phys.Vec2) bool {
	for _, o := range t.Obstacles {
		if o.HitTest(p) {
			return true
		}
	}
	return false
}

// Diagonal is the longest distance a sensor can meaningfully report.
func (t *Track) Diagonal() float64 {
	return t.Size.Len()
}
