package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/drivesim/internal/core/controller"
	"github.com/zeusync/drivesim/internal/core/episode"
	"github.com/zeusync/drivesim/internal/core/events/bus"
	"github.com/zeusync/drivesim/internal/core/observability/log"
	"github.com/zeusync/drivesim/internal/core/simulation"
)

// Source supplies telemetry frames and episode results.
type Source interface {
	Snapshot() simulation.Frame
	Results() []episode.Result
}

// Server streams simulation telemetry over websocket and serves a small HTTP
// API next to it.
type Server struct {
	config Config
	logger log.Log
	source Source
	hub    *Hub

	httpServer *http.Server
	listener   net.Listener

	running atomic.Bool
	closed  atomic.Bool

	workerGroup sync.WaitGroup
	stopChan    chan struct{}
}

// Config holds server configuration
type Config struct {
	Enabled    bool   `mapstructure:"enabled" json:"enabled"`
	ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
	MaxClients int    `mapstructure:"max_clients" json:"max_clients"`
	// Token, when set, must be presented as ?token= or a Bearer header.
	Token string `mapstructure:"token" json:"-"`

	BroadcastInterval time.Duration `mapstructure:"broadcast_interval" json:"broadcast_interval"`
	SendBuffer        int           `mapstructure:"send_buffer" json:"send_buffer"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	MaxMessageSize    int64         `mapstructure:"max_message_size" json:"max_message_size"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:        "127.0.0.1:8080",
		MaxClients:        64,
		BroadcastInterval: 100 * time.Millisecond,
		SendBuffer:        16,
		WriteTimeout:      5 * time.Second,
		MaxMessageSize:    4096,
	}
}

func (c Config) Validate() error {
	switch {
	case c.ListenAddr == "":
		return fmt.Errorf("%w: listen_addr is empty", ErrInvalidConfig)
	case c.MaxClients <= 0:
		return fmt.Errorf("%w: max_clients must be positive", ErrInvalidConfig)
	case c.BroadcastInterval <= 0:
		return fmt.Errorf("%w: broadcast_interval must be positive", ErrInvalidConfig)
	case c.SendBuffer <= 0:
		return fmt.Errorf("%w: send_buffer must be positive", ErrInvalidConfig)
	}
	return nil
}

// NewServer creates a telemetry server for source. keys, when non-nil,
// receives arrow-key input sent by websocket clients.
func NewServer(config Config, source Source, keys *controller.Keys, logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	logger = logger.With(log.String("component", "server"))

	server := &Server{
		config:   config,
		logger:   logger,
		source:   source,
		hub:      NewHub(config, keys, logger),
		stopChan: make(chan struct{}),
	}

	server.logger.Info("Server created",
		log.String("listen_addr", config.ListenAddr),
		log.Int("max_clients", config.MaxClients))

	return server
}

func (s *Server) Hub() *Hub { return s.hub }

// Handler exposes the HTTP routes without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.requireToken(s.hub))
	mux.Handle("/frame", s.requireToken(http.HandlerFunc(s.handleFrame)))
	mux.Handle("/results", s.requireToken(http.HandlerFunc(s.handleResults)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// Start listens on ListenAddr and begins broadcasting frames.
func (s *Server) Start(_ context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		s.running.Store(false)
		s.logger.Error("Failed to create listener", log.Error(err))
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.workerGroup.Add(2)
	go func() {
		defer s.workerGroup.Done()
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", log.Error(err))
		}
	}()
	go s.broadcastLoop()

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Addr is the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.config.ListenAddr
	}
	return s.listener.Addr().String()
}

// Stop sends a final frame, disconnects clients and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}

	s.logger.Info("Stopping server")
	close(s.stopChan)

	if s.source != nil {
		_ = s.hub.Broadcast(s.source.Snapshot())
	}
	s.hub.Close()

	err := s.httpServer.Shutdown(ctx)
	s.workerGroup.Wait()

	s.logger.Info("Server stopped")
	return err
}

// Close stops the server if running and prevents restarts.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.running.Load() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(ctx)
	}
	return nil
}

// ForwardEvents relays simulation events to websocket clients.
func (s *Server) ForwardEvents(b bus.EventBus) (bus.Subscription, error) {
	return b.Subscribe(bus.Wildcard, func(e bus.Event) error {
		return s.hub.Broadcast(EventMessage{
			Event:  e.Type(),
			Source: e.Source(),
			Tick:   e.Tick(),
			Data:   e.Data(),
		})
	})
}

func (s *Server) broadcastLoop() {
	defer s.workerGroup.Done()
	s.logger.Debug("Broadcast loop started")
	defer s.logger.Debug("Broadcast loop stopped")

	ticker := time.NewTicker(s.config.BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if s.source == nil || s.hub.ClientCount() == 0 {
				continue
			}
			if err := s.hub.Broadcast(s.source.Snapshot()); err != nil {
				s.logger.Warn("Broadcast failed", log.Error(err))
			}
		}
	}
}

func (s *Server) handleFrame(w http.ResponseWriter, _ *http.Request) {
	if s.source == nil {
		http.Error(w, "no simulation", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, s.source.Snapshot())
}

func (s *Server) handleResults(w http.ResponseWriter, _ *http.Request) {
	if s.source == nil {
		http.Error(w, "no simulation", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, s.source.Results())
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", log.Error(err))
	}
}
