// Package progress turns completed game actions into XP grants and feed entries.
package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/fluencyrush/go/internal/session"
	"github.com/rs/zerolog/log"
)

// Authority is the subset of the authority API the emitter writes to.
type Authority interface {
	AddXP(ctx context.Context, id string, amount int, key string) error
	AppendFeed(ctx context.Context, name, action string, xp int) error
}

// Emitter is the single entry point for awarding XP.
type Emitter struct {
	session    *session.Session
	authority  Authority
	dispatcher *Dispatcher
	notifier   Notifier
}

// NewEmitter creates an emitter bound to a logged-in session.
func NewEmitter(sess *session.Session, authority Authority, dispatcher *Dispatcher, notifier Notifier) *Emitter {
	return &Emitter{
		session:    sess,
		authority:  authority,
		dispatcher: dispatcher,
		notifier:   notifier,
	}
}

// Grant awards amount XP for reason: it asks the authority to add the XP and to
// append a feed entry, then shows a local notification. It never blocks on the
// network and never reports request failures to the caller.
func (e *Emitter) Grant(amount int, reason string) {
	if e == nil || e.session == nil {
		return
	}
	if amount < 0 {
		log.Warn().Int("amount", amount).Str("reason", reason).Msg("ignoring negative xp grant")
		return
	}

	sess := *e.session
	key := uuid.NewString()

	e.dispatcher.Go("grant_xp", func(ctx context.Context) error {
		return e.deliver(ctx, sess, amount, reason, key)
	})

	log.Info().Str("user_id", sess.ID).Int("xp", amount).Str("reason", reason).Msg("xp granted")

	if e.notifier != nil {
		e.notifier.Notify(Notification{
			Text:  fmt.Sprintf("+%d XP — %s", amount, reason),
			Level: LevelSuccess,
		})
	}
}

// deliver writes the XP and then the feed entry. The feed entry is attempted
// even when the XP write fails; both errors are kept.
func (e *Emitter) deliver(ctx context.Context, sess session.Session, amount int, reason, key string) error {
	xpErr := e.authority.AddXP(ctx, sess.ID, amount, key)
	feedErr := e.authority.AppendFeed(ctx, sess.Name, reason, amount)
	return errors.Join(xpErr, feedErr)
}
