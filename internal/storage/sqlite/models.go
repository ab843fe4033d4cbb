package sqlite

import "time"

// EpisodeRecord is one simulated episode.
type EpisodeRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	Track     string `gorm:"size:255"`
	MapHash   string `gorm:"size:16;index"`
	Vehicles  int
	Tick      time.Duration
	Budget    time.Duration
	StartedAt time.Time `gorm:"index"`
	EndedAt   *time.Time
	Reason    string `gorm:"size:32"`
	Ticks     uint64
	Elapsed   time.Duration

	Results []ResultRecord `gorm:"foreignKey:EpisodeID;constraint:OnDelete:CASCADE"`
}

func (*EpisodeRecord) TableName() string { return "episodes" }

// ResultRecord is the outcome for a single vehicle.
type ResultRecord struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	EpisodeID   string `gorm:"index;size:36"`
	VehicleID   string `gorm:"size:36"`
	Controller  string `gorm:"size:32"`
	Fitness     float64
	Distance    float64
	Checkpoints int
	Alive       bool
	EndReason   string `gorm:"size:32"`
	Survived    time.Duration
}

func (*ResultRecord) TableName() string { return "results" }
