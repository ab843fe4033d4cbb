package simulation

// Frame is a point-in-time view of the whole simulation.
type Frame struct {
	Tick     uint64            `json:"tick"`
	Elapsed  float64           `json:"elapsed"` // simulated seconds
	Done     bool              `json:"done"`
	Vehicles []VehicleSnapshot `json:"vehicles"`
}

type VehicleSnapshot struct {
	ID       VehicleID `json:"id"`
	Kind     string    `json:"kind"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Angle    float64   `json:"angle"`
	Speed    float64   `json:"speed"`
	Steering float64   `json:"steering"`
	OffTrack bool      `json:"off_track"`
	Fitness  float64   `json:"fitness"`
	Sensors  []float64 `json:"sensors,omitempty"`
}
