package storage

import (
	"errors"
	"time"

	"github.com/zeusync/drivesim/internal/core/episode"
)

var (
	ErrNoEpisode     = errors.New("no episode in progress")
	ErrEpisodeActive = errors.New("an episode is already in progress")
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Episode management
	StartEpisode(ep Episode) error
	RecordResult(r episode.Result) error
	EndEpisode(s Summary) error
}

// Exporter is implemented by backends that write a file per episode.
type Exporter interface {
	ExportedPath() string
}

// Episode describes a run when it starts.
type Episode struct {
	ID        string        `json:"id"`
	Track     string        `json:"track"`
	MapHash   string        `json:"map_hash,omitempty"`
	Vehicles  int           `json:"vehicles"`
	Tick      time.Duration `json:"tick"`
	Budget    time.Duration `json:"budget"`
	StartedAt time.Time     `json:"started_at"`
}

// Summary describes how a run ended.
type Summary struct {
	Reason  episode.EndReason `json:"reason"`
	Ticks   uint64            `json:"ticks"`
	Elapsed time.Duration     `json:"elapsed"`
	EndedAt time.Time         `json:"ended_at"`
}

// Nop discards everything.
type Nop struct{}

var _ Backend = Nop{}

func (Nop) Init() error                       { return nil }
func (Nop) Close() error                      { return nil }
func (Nop) StartEpisode(Episode) error        { return nil }
func (Nop) RecordResult(episode.Result) error { return nil }
func (Nop) EndEpisode(Summary) error          { return nil }
