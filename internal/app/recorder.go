package app

import (
	"fmt"
	"sync"

	"github.com/zeusync/drivesim/internal/core/episode"
	"github.com/zeusync/drivesim/internal/core/events/bus"
	"github.com/zeusync/drivesim/internal/core/observability/log"
	"github.com/zeusync/drivesim/internal/core/simulation"
	"github.com/zeusync/drivesim/internal/storage"
)

// Report summarises one finished episode.
type Report struct {
	Episode     int               `json:"episode"`
	ID          string            `json:"id"`
	Reason      episode.EndReason `json:"reason"`
	Ticks       uint64            `json:"ticks"`
	BestFitness float64           `json:"best_fitness"`
	Path        string            `json:"path,omitempty"`
}

// recorder persists episode.ended events.
type recorder struct {
	store  storage.Backend
	logger log.Log

	mu      sync.Mutex
	episode int
	id      string
	err     error
	reports []Report
}

func newRecorder(store storage.Backend, logger log.Log) *recorder {
	return &recorder{store: store, logger: logger}
}

func (r *recorder) begin(n int, id string) {
	r.mu.Lock()
	r.episode, r.id, r.err = n, id, nil
	r.mu.Unlock()
}

func (r *recorder) handle(ev bus.Event) error {
	ended, ok := ev.Data().(simulation.EpisodeEnded)
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	report := Report{Episode: r.episode, ID: r.id, Reason: ended.Reason, Ticks: ended.Ticks}
	for _, res := range ended.Results {
		if res.Fitness > report.BestFitness {
			report.BestFitness = res.Fitness
		}
		if err := r.store.RecordResult(res); err != nil {
			r.err = fmt.Errorf("record result: %w", err)
			return r.err
		}
	}

	err := r.store.EndEpisode(storage.Summary{
		Reason:  ended.Reason,
		Ticks:   ended.Ticks,
		Elapsed: ended.Elapsed,
		EndedAt: ev.Timestamp().UTC(),
	})
	if err != nil {
		r.err = fmt.Errorf("end episode: %w", err)
		return r.err
	}
	if exp, ok := r.store.(storage.Exporter); ok {
		report.Path = exp.ExportedPath()
	}
	r.reports = append(r.reports, report)

	r.logger.Info("episode recorded",
		log.Int("episode", report.Episode),
		log.String("reason", string(report.Reason)),
		log.Uint64("ticks", report.Ticks),
		log.Float64("best_fitness", report.BestFitness),
	)
	return nil
}

func (r *recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *recorder) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Report(nil), r.reports...)
}
