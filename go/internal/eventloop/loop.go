// Package eventloop runs every client state transition on a single goroutine.
//
// User input, timer expirations and push-channel events are all posted as
// tasks and executed one at a time, so game state needs no locking. Timers are
// exposed as cancelable Task handles; a Task that is stopped after its timer
// fired but before the loop got to it never runs.
package eventloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrClosed is returned when posting to a loop that has shut down.
var ErrClosed = errors.New("event loop closed")

// Scheduler schedules a function to run on the loop after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) *Task
}

// Poster enqueues a function to run on the loop.
type Poster interface {
	Post(fn func()) error
}

// Loop is a single-goroutine task executor.
type Loop struct {
	clock clockwork.Clock
	tasks chan func()
	done  chan struct{}
	once  sync.Once

	// AfterTask, when set, is called on the loop goroutine after every task.
	AfterTask func()
}

// New creates a loop with the given clock and task buffer size.
func New(clock clockwork.Clock, buffer int) *Loop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if buffer <= 0 {
		buffer = 256
	}
	return &Loop{
		clock: clock,
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Clock returns the clock used for scheduling.
func (l *Loop) Clock() clockwork.Clock {
	return l.clock
}

// Post enqueues fn. It blocks while the buffer is full and fails once the loop is closed.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}

	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// Run executes tasks until ctx is cancelled, then closes the loop.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Close()
	log.Debug().Msg("event loop started")

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("event loop shutting down")
			return nil
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

// RunOne blocks until one task is available and executes it.
// It lets tests drive the loop deterministically.
func (l *Loop) RunOne(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	case fn := <-l.tasks:
		l.exec(fn)
		return nil
	}
}

// Pending reports the number of queued tasks.
func (l *Loop) Pending() int {
	return len(l.tasks)
}

// Close stops accepting tasks. Pending timers stop posting.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

func (l *Loop) exec(fn func()) {
	fn()
	if l.AfterTask != nil {
		l.AfterTask()
	}
}

// AfterFunc schedules fn to run on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Task {
	t := &Task{
		timer: l.clock.NewTimer(d),
		stop:  make(chan struct{}),
	}

	go func() {
		select {
		case <-t.timer.Chan():
			err := l.Post(func() {
				if t.stopped.Load() {
					return
				}
				t.fired.Store(true)
				fn()
			})
			if err != nil {
				log.Debug().Err(err).Msg("dropping timer task")
			}
		case <-t.stop:
		case <-l.done:
			stopAndDrainTimer(t.timer)
		}
	}()

	return t
}

// Task is a handle to a scheduled function.
type Task struct {
	timer   clockwork.Timer
	stop    chan struct{}
	once    sync.Once
	stopped atomic.Bool
	fired   atomic.Bool
}

// Stop cancels the task. It reports whether this call prevented the function
// from running; later calls report false. Stop on a nil Task is a no-op.
func (t *Task) Stop() bool {
	if t == nil {
		return false
	}
	prevented := false
	t.once.Do(func() {
		prevented = !t.fired.Load()
		t.stopped.Store(true)
		stopAndDrainTimer(t.timer)
		close(t.stop)
	})
	return prevented
}

// Replace stops the task held in *slot and stores next in its place.
func Replace(slot **Task, next *Task) {
	if *slot != nil {
		(*slot).Stop()
	}
	*slot = next
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
