package ui

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mcdev12/fluencyrush/go/internal/game"
)

// SnapshotMsg carries fresh game state into the program.
type SnapshotMsg game.Snapshot

// Publisher hands snapshots from the event loop to the program without ever
// blocking the loop. Only the latest snapshot is kept.
type Publisher struct {
	latest atomic.Pointer[game.Snapshot]
	wake   chan struct{}
}

func NewPublisher() *Publisher {
	return &Publisher{wake: make(chan struct{}, 1)}
}

// Publish stores s and wakes the forwarder.
func (p *Publisher) Publish(s game.Snapshot) {
	p.latest.Store(&s)
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Forward sends the latest snapshot to the program whenever one is published.
func (p *Publisher) Forward(ctx context.Context, send func(tea.Msg)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.wake:
			if s := p.latest.Load(); s != nil {
				send(SnapshotMsg(*s))
			}
		}
	}
}
