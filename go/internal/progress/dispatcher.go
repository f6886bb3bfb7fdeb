package progress

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultRequestTimeout bounds each best-effort request.
const DefaultRequestTimeout = 10 * time.Second

// Dispatcher runs write requests to the authority in the background.
// Callers never wait for them and failures are only logged: the push stream
// is the source of truth for whatever the authority ends up accepting.
type Dispatcher struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher whose requests are cancelled by Close.
func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{ctx: ctx, cancel: cancel, timeout: timeout}
}

// Go runs fn in the background with a per-request timeout.
func (d *Dispatcher) Go(op string, fn func(ctx context.Context) error) {
	if d.ctx.Err() != nil {
		log.Debug().Str("op", op).Msg("dispatcher closed, dropping request")
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			log.Error().
				Err(err).
				Str("op", op).
				Dur("elapsed", time.Since(start)).
				Msg("best-effort request failed")
			return
		}
		log.Debug().Str("op", op).Dur("elapsed", time.Since(start)).Msg("best-effort request done")
	}()
}

// Wait blocks until every dispatched request has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close cancels in-flight requests and waits for them to return.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}
