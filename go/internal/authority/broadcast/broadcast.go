// Package broadcast fans push-channel events out across authority instances
// over NATS, so subscribers of every instance see writes made on any of them.
package broadcast

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fluencyrush/go/internal/stream"
)

// OriginHeader identifies the instance that published a message.
const OriginHeader = "Fluency-Origin"

type Config struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultConfig(url string) Config {
	if url == "" {
		url = nats.DefaultURL
	}
	return Config{
		URL:           url,
		Subject:       "fluency.events",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Deliverer receives encoded push-channel messages. *authority.Hub satisfies it.
type Deliverer interface {
	Deliver(msg []byte)
}

// Bridge delivers events to the local hub and relays them to the other
// instances. Messages relayed back from NATS with this instance's origin are skipped.
type Bridge struct {
	nc     *nats.Conn
	sub    *nats.Subscription
	local  Deliverer
	origin string
	config Config
}

// Connect dials NATS and subscribes to the event subject.
func Connect(cfg Config, local Deliverer) (*Bridge, error) {
	opts := []nats.Option{
		nats.Name("fluency-authority"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	b := newBridge(cfg, local)
	b.nc = nc

	sub, err := nc.Subscribe(cfg.Subject, b.handle)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", cfg.Subject, err)
	}
	b.sub = sub

	log.Info().
		Str("url", nc.ConnectedUrl()).
		Str("subject", cfg.Subject).
		Str("origin", b.origin).
		Msg("NATS event bridge started")
	return b, nil
}

func newBridge(cfg Config, local Deliverer) *Bridge {
	return &Bridge{
		local:  local,
		origin: uuid.NewString(),
		config: cfg,
	}
}

// Publish delivers ev locally, then relays it. A relay failure is logged;
// local subscribers are still served.
func (b *Bridge) Publish(ev stream.Event) error {
	data, err := stream.Encode(ev)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", ev.Kind(), err)
	}
	b.local.Deliver(data)

	msg := &nats.Msg{
		Subject: b.config.Subject,
		Header:  nats.Header{},
		Data:    data,
	}
	msg.Header.Set(OriginHeader, b.origin)
	if err := b.nc.PublishMsg(msg); err != nil {
		log.Error().Err(err).Str("event", string(ev.Kind())).Msg("failed to relay event to NATS")
	}
	return nil
}

func (b *Bridge) handle(msg *nats.Msg) {
	if msg.Header.Get(OriginHeader) == b.origin {
		return
	}
	if _, err := stream.Decode(msg.Data); err != nil {
		log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping malformed relayed event")
		return
	}
	b.local.Deliver(msg.Data)
}

// IsConnected reports the broker connection state.
func (b *Bridge) IsConnected() bool {
	return b.nc != nil && b.nc.IsConnected()
}

// Close unsubscribes and drains the connection.
func (b *Bridge) Close() {
	if b.sub != nil {
		if err := b.sub.Unsubscribe(); err != nil {
			log.Warn().Err(err).Msg("failed to unsubscribe from NATS")
		}
	}
	if b.nc != nil {
		if err := b.nc.Drain(); err != nil {
			b.nc.Close()
		}
	}
}
