// Package missions derives one-time achievements from the session's progress events.
package missions

import "github.com/rs/zerolog/log"

// Event is a progress event emitted by a game action.
type Event string

const (
	EventBlitzCorrect Event = "blitz-correct"
	EventChatSent     Event = "chat-sent"
)

// Kind identifies a mission.
type Kind string

const (
	KindBlitzStreak Kind = "blitz-streak"
	KindChatSent    Kind = "chat-sent"
)

// Granter issues XP grants. The progress emitter satisfies it.
type Granter interface {
	Grant(amount int, reason string)
}

// Definition describes a mission: which event it counts and what it pays out.
type Definition struct {
	Kind      Kind
	Title     string
	Watches   Event
	Threshold int
	Bonus     int
	Reason    string
}

// State is the observable progress of one mission.
type State struct {
	Kind      Kind
	Title     string
	Progress  int
	Threshold int
	Completed bool
}

// DefaultDefinitions are the missions every session starts with.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Kind:      KindBlitzStreak,
			Title:     "Get 5 Blitz answers right",
			Watches:   EventBlitzCorrect,
			Threshold: 5,
			Bonus:     150,
			Reason:    "completed the Blitz 5x mission ✅",
		},
		{
			Kind:      KindChatSent,
			Title:     "Send a chat message",
			Watches:   EventChatSent,
			Threshold: 1,
			Bonus:     30,
			Reason:    "sent a chat message 💬",
		},
	}
}

// Tracker counts events per mission and pays each bonus exactly once.
// It is not safe for concurrent use; it lives on the event loop.
type Tracker struct {
	defs    []Definition
	states  map[Kind]*State
	granter Granter
}

// NewTracker creates a tracker for the given missions.
func NewTracker(granter Granter, defs []Definition) *Tracker {
	t := &Tracker{
		defs:    defs,
		states:  make(map[Kind]*State, len(defs)),
		granter: granter,
	}
	for _, d := range defs {
		t.states[d.Kind] = &State{Kind: d.Kind, Title: d.Title, Threshold: d.Threshold}
	}
	return t
}

// Observe records an event and returns the missions it completed.
// Progress keeps counting after completion; the bonus is never paid twice.
func (t *Tracker) Observe(ev Event) []Kind {
	var completed []Kind
	for _, d := range t.defs {
		if d.Watches != ev {
			continue
		}
		st := t.states[d.Kind]
		st.Progress++
		if st.Completed || st.Progress < st.Threshold {
			continue
		}

		st.Completed = true
		completed = append(completed, d.Kind)
		log.Info().Str("mission", string(d.Kind)).Int("bonus", d.Bonus).Msg("mission completed")
		if t.granter != nil && d.Bonus > 0 {
			t.granter.Grant(d.Bonus, d.Reason)
		}
	}
	return completed
}

// Get returns the state of a mission.
func (t *Tracker) Get(kind Kind) (State, bool) {
	st, ok := t.states[kind]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// States returns every mission state in definition order.
func (t *Tracker) States() []State {
	out := make([]State, 0, len(t.defs))
	for _, d := range t.defs {
		out = append(out, *t.states[d.Kind])
	}
	return out
}
