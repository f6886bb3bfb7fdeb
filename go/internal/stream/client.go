// Package stream subscribes to the authority's push channel and hands decoded
// events to the event loop.
package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/fluencyrush/go/internal/eventloop"
	"github.com/rs/zerolog/log"
)

// Handler applies one event to the local view. It runs on the event loop.
type Handler func(ev Event)

// Config holds push-channel settings.
type Config struct {
	URL            string
	ReconnectDelay time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
	Header         http.Header
	Dialer         *websocket.Dialer
	Clock          clockwork.Clock
}

// DefaultConfig returns the settings used when fields are left zero.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		ReconnectDelay: 3 * time.Second,
		ReadTimeout:    90 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 1 << 20,
	}
}

// Client keeps exactly one subscription open and redials forever after a
// fixed delay. Each connection gets a generation number; events posted by a
// connection that has since been torn down are dropped on the loop.
type Client struct {
	cfg    Config
	poster eventloop.Poster

	mu     sync.RWMutex
	routes map[Kind]Handler

	nextGen atomic.Uint64
	active  atomic.Uint64
	dials   atomic.Int64
}

// NewClient creates a push-channel client that posts events to poster.
func NewClient(cfg Config, poster eventloop.Poster) *Client {
	def := DefaultConfig(cfg.URL)
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Client{
		cfg:    cfg,
		poster: poster,
		routes: make(map[Kind]Handler),
	}
}

// Handle registers the handler for an event kind, replacing any previous one.
func (c *Client) Handle(kind Kind, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[kind] = h
}

// Dials reports how many connection attempts have been made.
func (c *Client) Dials() int64 {
	return c.dials.Load()
}

// Generation returns the generation of the live connection, or 0 between connections.
func (c *Client) Generation() uint64 {
	return c.active.Load()
}

// Run keeps the subscription alive until ctx is cancelled.
// Transport errors are never fatal.
func (c *Client) Run(ctx context.Context) error {
	log.Info().Str("url", c.cfg.URL).Msg("push channel starting")

	for {
		err := c.connectOnce(ctx)
		if ctx.Err() != nil {
			log.Info().Msg("push channel stopped")
			return nil
		}
		log.Warn().
			Err(err).
			Dur("retry_in", c.cfg.ReconnectDelay).
			Msg("push channel disconnected")

		select {
		case <-ctx.Done():
			log.Info().Msg("push channel stopped")
			return nil
		case <-c.cfg.Clock.After(c.cfg.ReconnectDelay):
		}
	}
}

// connectOnce dials, reads until the connection fails, then retires it.
func (c *Client) connectOnce(ctx context.Context) error {
	c.dials.Add(1)
	conn, _, err := c.cfg.Dialer.DialContext(ctx, c.cfg.URL, c.cfg.Header)
	if err != nil {
		return fmt.Errorf("failed to dial push channel: %w", err)
	}

	gen := c.nextGen.Add(1)
	c.active.Store(gen)
	defer c.active.CompareAndSwap(gen, 0)

	log.Info().Uint64("generation", gen).Msg("push channel connected")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.cfg.WriteTimeout))
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()

	conn.SetReadLimit(c.cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(c.cfg.WriteTimeout))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read push message: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))

		ev, err := Decode(message)
		if err != nil {
			log.Warn().Err(err).Uint64("generation", gen).Msg("skipping undecodable push message")
			continue
		}
		if err := c.poster.Post(c.deliver(gen, ev)); err != nil {
			return fmt.Errorf("failed to post push event: %w", err)
		}
	}
}

// deliver wraps an event so it only reaches its handler if its connection is still current.
func (c *Client) deliver(gen uint64, ev Event) func() {
	return func() {
		if c.active.Load() != gen {
			log.Debug().
				Uint64("generation", gen).
				Str("event", string(ev.Kind())).
				Msg("dropping event from superseded connection")
			return
		}

		c.mu.RLock()
		h, ok := c.routes[ev.Kind()]
		c.mu.RUnlock()
		if !ok {
			log.Debug().Str("event", string(ev.Kind())).Msg("no handler for event")
			return
		}
		h(ev)
	}
}
