// Package sqlite persists episode results into a SQLite database through GORM.
package sqlite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zeusync/drivesim/internal/core/episode"
	"github.com/zeusync/drivesim/internal/core/observability/log"
	"github.com/zeusync/drivesim/internal/storage"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var ErrNotInitialized = errors.New("sqlite backend not initialized")

// Config holds SQLite storage backend settings
type Config struct {
	Path string `json:"path" mapstructure:"path"`
}

type Backend struct {
	mu      sync.Mutex
	cfg     Config
	db      *gorm.DB
	current *EpisodeRecord
	logger  log.Log
}

var _ storage.Backend = (*Backend)(nil)

func New(cfg Config, logger log.Log) *Backend {
	if cfg.Path == "" {
		cfg.Path = MemoryPath
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Backend{cfg: cfg, logger: logger.With(log.String("component", "storage.sqlite"))}
}

// Init opens the database and migrates the schema.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.Path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(b.cfg.Path), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(b.cfg.Path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open sqlite %s: %w", b.cfg.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql.DB: %w", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	if err = db.AutoMigrate(&EpisodeRecord{}, &ResultRecord{}); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	b.db = db
	b.logger.Info("sqlite storage ready", log.String("path", b.cfg.Path))
	return nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	b.db = nil
	return sqlDB.Close()
}

func (b *Backend) StartEpisode(ep storage.Episode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return ErrNotInitialized
	}
	if b.current != nil {
		return storage.ErrEpisodeActive
	}

	rec := &EpisodeRecord{
		ID:        ep.ID,
		Track:     ep.Track,
		MapHash:   ep.MapHash,
		Vehicles:  ep.Vehicles,
		Tick:      ep.Tick,
		Budget:    ep.Budget,
		StartedAt: ep.StartedAt,
	}
	if err := b.db.Create(rec).Error; err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}
	b.current = rec
	return nil
}

func (b *Backend) RecordResult(r episode.Result) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return ErrNotInitialized
	}
	if b.current == nil {
		return storage.ErrNoEpisode
	}

	rec := &ResultRecord{
		EpisodeID:   b.current.ID,
		VehicleID:   r.VehicleID,
		Controller:  r.Controller,
		Fitness:     r.Fitness,
		Distance:    r.Distance,
		Checkpoints: r.Checkpoints,
		Alive:       r.Alive,
		EndReason:   string(r.EndReason),
		Survived:    r.Survived,
	}
	if err := b.db.Create(rec).Error; err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (b *Backend) EndEpisode(s storage.Summary) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return ErrNotInitialized
	}
	if b.current == nil {
		return storage.ErrNoEpisode
	}

	endedAt := s.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now()
	}
	err := b.db.Model(b.current).Updates(map[string]any{
		"ended_at": endedAt,
		"reason":   string(s.Reason),
		"ticks":    s.Ticks,
		"elapsed":  s.Elapsed,
	}).Error
	if err != nil {
		return fmt.Errorf("update episode: %w", err)
	}
	b.current = nil
	return nil
}

// Episodes loads every stored episode with its results, oldest first.
func (b *Backend) Episodes() ([]EpisodeRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil, ErrNotInitialized
	}

	var out []EpisodeRecord
	err := b.db.
		Preload("Results", func(db *gorm.DB) *gorm.DB { return db.Order("fitness DESC") }).
		Order("started_at ASC").
		Find(&out).Error
	return out, err
}

// Best returns the highest-fitness results across all episodes.
func (b *Backend) Best(limit int) ([]ResultRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil, ErrNotInitialized
	}

	var out []ResultRecord
	err := b.db.Order("fitness DESC").Limit(limit).Find(&out).Error
	return out, err
}
