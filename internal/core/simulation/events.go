package simulation

import (
	"time"

	"github.com/zeusync/drivesim/internal/core/episode"
	phys "github.com/zeusync/drivesim/internal/core/systems/physics"
)

const (
	EventCheckpointCrossed = "checkpoint.crossed"
	EventOffTrack          = "vehicle.off_track"
	EventEpisodeEnded      = "episode.ended"
)

// CheckpointCrossed is the payload of EventCheckpointCrossed.
type CheckpointCrossed struct {
	Vehicle    VehicleID `json:"vehicle"`
	Checkpoint int       `json:"checkpoint"`
	Position   phys.Vec2 `json:"position"`
}

// OffTrack is the payload of EventOffTrack.
type OffTrack struct {
	Vehicle  VehicleID         `json:"vehicle"`
	Reason   episode.EndReason `json:"reason"`
	Position phys.Vec2         `json:"position"`
	Fitness  float64           `json:"fitness"`
}

// EpisodeEnded is the payload of EventEpisodeEnded.
type EpisodeEnded struct {
	Reason  episode.EndReason `json:"reason"`
	Ticks   uint64            `json:"ticks"`
	Elapsed time.Duration     `json:"elapsed"`
	Results []episode.Result  `json:"results"`
}
