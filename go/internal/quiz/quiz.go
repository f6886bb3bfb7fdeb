// Package quiz implements the three mini-game state machines.
//
// Every method must be called on the event loop goroutine. Each machine owns
// its scheduled tasks and stops the previous handle before arming a new one,
// so two countdowns can never race.
package quiz

import (
	"errors"

	"github.com/mcdev12/fluencyrush/go/internal/missions"
	"github.com/mcdev12/fluencyrush/go/internal/session"
)

var (
	// ErrRoundClosed is returned for input that arrives while a round is not accepting answers.
	ErrRoundClosed = errors.New("round is not accepting answers")
	// ErrNotLoggedIn is returned when a session is required but missing.
	ErrNotLoggedIn = errors.New("log in first")
	// ErrInvalidOption is returned for an option index outside the question's options.
	ErrInvalidOption = errors.New("invalid option")
	// ErrNoContent is returned when a machine is built with an empty set.
	ErrNoContent = errors.New("quiz has no content")
)

// Observer receives progress events. missions.Tracker satisfies it.
type Observer interface {
	Observe(ev missions.Event) []missions.Kind
}

// SessionSource returns the current session, or nil before login.
type SessionSource interface {
	Session() *session.Session
}

// StaticSession is a SessionSource that always returns the same session.
type StaticSession struct {
	S *session.Session
}

func (s StaticSession) Session() *session.Session { return s.S }
