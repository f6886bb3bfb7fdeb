package authority

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fluencyrush/go/internal/stream"
)

// HubConfig holds configuration for push-channel connections.
type HubConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultHubConfig returns the push-channel defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    15 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBuffer:      64,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// SnapshotFunc builds the init event sent to a new subscriber.
type SnapshotFunc func(ctx context.Context) (stream.InitEvent, error)

// Hub fans push-channel events out to every connected subscriber.
type Hub struct {
	mu       sync.RWMutex
	conns    map[*subscriber]bool
	upgrader websocket.Upgrader
	config   HubConfig
	snapshot SnapshotFunc
}

type subscriber struct {
	id          string
	conn        *websocket.Conn
	send        chan []byte
	hub         *Hub
	connectedAt time.Time
	closeOnce   sync.Once
}

func NewHub(config HubConfig, snapshot SnapshotFunc) *Hub {
	return &Hub{
		conns: make(map[*subscriber]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:   config,
		snapshot: snapshot,
	}
}

// ServeHTTP upgrades the request and queues the init snapshot before any
// broadcast reaches the new subscriber.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to build init snapshot")
		http.Error(w, "snapshot unavailable", http.StatusInternalServerError)
		return
	}
	initMsg, err := stream.Encode(snap)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode init snapshot")
		http.Error(w, "snapshot unavailable", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade push connection")
		return
	}

	sub := &subscriber{
		id:          uuid.NewString(),
		conn:        conn,
		send:        make(chan []byte, h.config.SendBuffer),
		hub:         h,
		connectedAt: time.Now(),
	}
	sub.send <- initMsg
	h.register(sub)

	go sub.writePump()
	go sub.readPump()

	log.Info().
		Str("connection_id", sub.id).
		Str("remote_addr", r.RemoteAddr).
		Msg("push connection established")
}

func (h *Hub) register(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[sub] = true

	log.Debug().
		Str("connection_id", sub.id).
		Int("total_connections", len(h.conns)).
		Msg("connection registered")
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[sub]; ok {
		delete(h.conns, sub)
		close(sub.send)

		log.Info().
			Str("connection_id", sub.id).
			Dur("connected_for", time.Since(sub.connectedAt)).
			Msg("connection unregistered")
	}
}

// Publish encodes ev and sends it to every subscriber.
func (h *Hub) Publish(ev stream.Event) error {
	msg, err := stream.Encode(ev)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", ev.Kind(), err)
	}
	h.Deliver(msg)
	return nil
}

// Deliver sends an already encoded message to every subscriber.
// A subscriber whose buffer is full is disconnected.
func (h *Hub) Deliver(msg []byte) {
	var slow []*subscriber

	h.mu.RLock()
	delivered := len(h.conns)
	for sub := range h.conns {
		select {
		case sub.send <- msg:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		log.Warn().
			Str("connection_id", sub.id).
			Msg("connection send buffer full, closing connection")
		h.unregister(sub)
		sub.close()
	}

	log.Debug().Int("connections", delivered-len(slow)).Msg("event broadcasted")
}

// Connections returns the number of live subscribers.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.conns))
	for sub := range h.conns {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		h.unregister(sub)
		sub.close()
	}
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(s.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		s.close()
		s.hub.unregister(s)
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.hub.config.WriteTimeout))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Err(err).Str("connection_id", s.id).Msg("failed to write push message")
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.hub.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("connection_id", s.id).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump only drains control frames; subscribers never send commands.
func (s *subscriber) readPump() {
	defer func() {
		s.hub.unregister(s)
		s.close()
	}()

	s.conn.SetReadLimit(s.hub.config.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.hub.config.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.hub.config.ReadTimeout))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("connection_id", s.id).Msg("unexpected push connection close")
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(s.hub.config.ReadTimeout))
	}
}
