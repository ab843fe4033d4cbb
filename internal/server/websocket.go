package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/drivesim/internal/core/controller"
	"github.com/zeusync/drivesim/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// EventMessage wraps a simulation event for websocket clients. Frames are sent
// bare; event messages are told apart by the "event" key.
type EventMessage struct {
	Event  string `json:"event"`
	Source string `json:"source,omitempty"`
	Tick   uint64 `json:"tick"`
	Data   any    `json:"data,omitempty"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans encoded messages out to connected websocket clients. Each client
// has a bounded send buffer; a client that falls behind drops messages rather
// than stalling the simulation.
type Hub struct {
	config Config
	keys   *controller.Keys
	logger log.Log

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub(config Config, keys *controller.Keys, logger log.Log) *Hub {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Hub{
		config:  config,
		keys:    keys,
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	full := h.config.MaxClients > 0 && len(h.clients) >= h.config.MaxClients
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	if full {
		h.logger.Warn("Maximum clients reached, rejecting connection",
			log.String("remote_addr", r.RemoteAddr))
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, max(h.config.SendBuffer, 1)),
	}
	if !h.register(c) {
		_ = conn.Close()
		return
	}

	h.logger.Info("Client connected",
		log.String("client_id", c.id),
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int("total_clients", h.ClientCount()))

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// Broadcast encodes v once and queues it for every client.
func (h *Hub) Broadcast(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Debug("Client send buffer full, dropping message", log.String("client_id", c.id))
		}
	}
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

func (h *Hub) writePump(c *client) {
	defer func() { _ = c.conn.Close() }()

	for payload := range c.send {
		if h.config.WriteTimeout > 0 {
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Debug("Write failed", log.String("client_id", c.id), log.Error(err))
			h.unregister(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		h.logger.Info("Client disconnected",
			log.String("client_id", c.id),
			log.Int("total_clients", h.ClientCount()))
	}()

	if h.config.MaxMessageSize > 0 {
		c.conn.SetReadLimit(h.config.MaxMessageSize)
	}

	for {
		_, p, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if err = h.handleInput(p); err != nil {
			h.logger.Debug("Ignoring client message", log.String("client_id", c.id), log.Error(err))
		}
	}
}
