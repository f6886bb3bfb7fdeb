// Package presence simulates the live player and online counters shown in the header.
package presence

import (
	"math/rand"
	"time"

	"github.com/mcdev12/fluencyrush/go/internal/eventloop"
)

const (
	RefreshInterval = 9 * time.Second
	minLive         = 800
	liveSpread      = 400
	minOnline       = 1
	onlineSpread    = 3
)

// Counts is one presence sample.
type Counts struct {
	Live   int
	Online int
}

// Simulator refreshes Counts on the event loop every RefreshInterval.
// Its task is independent of the quiz countdown.
type Simulator struct {
	sched  eventloop.Scheduler
	rng    *rand.Rand
	counts Counts
	task   *eventloop.Task
}

// NewSimulator creates a simulator seeded with seed.
func NewSimulator(sched eventloop.Scheduler, seed int64) *Simulator {
	s := &Simulator{
		sched: sched,
		rng:   rand.New(rand.NewSource(seed)),
	}
	s.sample()
	return s
}

// Start schedules periodic refreshes, replacing any pending one.
func (s *Simulator) Start() {
	eventloop.Replace(&s.task, s.sched.AfterFunc(RefreshInterval, s.refresh))
}

// Stop cancels the pending refresh.
func (s *Simulator) Stop() {
	eventloop.Replace(&s.task, nil)
}

// Counts returns the latest sample.
func (s *Simulator) Counts() Counts {
	return s.counts
}

func (s *Simulator) refresh() {
	s.sample()
	s.task = s.sched.AfterFunc(RefreshInterval, s.refresh)
}

func (s *Simulator) sample() {
	s.counts = Counts{
		Live:   minLive + s.rng.Intn(liveSpread),
		Online: minOnline + s.rng.Intn(onlineSpread),
	}
}
