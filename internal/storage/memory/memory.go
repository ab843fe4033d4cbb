// Package memory keeps episode results in memory and optionally exports each
// finished episode as a (gzipped) JSON file.
package memory

import (
	"sync"

	"github.com/zeusync/drivesim/internal/core/episode"
	"github.com/zeusync/drivesim/internal/storage"
)

// Config holds in-memory/JSON storage backend settings
type Config struct {
	OutputDir      string `json:"output_dir" mapstructure:"output_dir"`
	CompressOutput bool   `json:"compress_output" mapstructure:"compress_output"`
}

type Backend struct {
	mu       sync.Mutex
	cfg      Config
	current  *Export
	history  []Export
	lastPath string
}

var (
	_ storage.Backend  = (*Backend)(nil)
	_ storage.Exporter = (*Backend)(nil)
)

func New(cfg Config) *Backend {
	return &Backend{cfg: cfg}
}

func (b *Backend) Init() error  { return nil }
func (b *Backend) Close() error { return nil }

func (b *Backend) StartEpisode(ep storage.Episode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current != nil {
		return storage.ErrEpisodeActive
	}
	b.current = &Export{Episode: ep, Results: []episode.Result{}}
	return nil
}

func (b *Backend) RecordResult(r episode.Result) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return storage.ErrNoEpisode
	}
	b.current.Results = append(b.current.Results, r)
	return nil
}

// EndEpisode closes the current episode and writes it out when an output
// directory is configured.
func (b *Backend) EndEpisode(s storage.Summary) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return storage.ErrNoEpisode
	}

	done := *b.current
	done.Summary = s
	b.current = nil
	b.history = append(b.history, done)

	if b.cfg.OutputDir == "" {
		return nil
	}
	path, err := b.exportJSON(done)
	if err != nil {
		return err
	}
	b.lastPath = path
	return nil
}

// Episodes returns every finished episode.
func (b *Backend) Episodes() []Export {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Export(nil), b.history...)
}

// ExportedPath is the file written for the last finished episode.
func (b *Backend) ExportedPath() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastPath
}
