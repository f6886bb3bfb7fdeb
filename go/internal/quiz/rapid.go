package quiz

import (
	"fmt"

	"github.com/mcdev12/fluencyrush/go/internal/content"
	"github.com/mcdev12/fluencyrush/go/internal/missions"
	"github.com/mcdev12/fluencyrush/go/internal/progress"
)

const RapidKnewXP = 5

// Verdict is the player's answer to a vocabulary card.
type Verdict int

const (
	Knew Verdict = iota
	Hard
	Skip
)

func (v Verdict) String() string {
	switch v {
	case Knew:
		return "knew"
	case Hard:
		return "hard"
	case Skip:
		return "skip"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// RapidView is a read-only copy of the review state for rendering.
type RapidView struct {
	Term     content.VocabTerm
	Known    int
	Seen     int
	Progress float64
}

// Rapid is the vocabulary rapid-review deck.
type Rapid struct {
	sessions SessionSource
	granter  missions.Granter
	notifier progress.Notifier
	terms    []content.VocabTerm

	index int
	known int
	seen  int
}

func NewRapid(sessions SessionSource, granter missions.Granter, notifier progress.Notifier, terms []content.VocabTerm) (*Rapid, error) {
	if len(terms) == 0 {
		return nil, ErrNoContent
	}
	return &Rapid{
		sessions: sessions,
		granter:  granter,
		notifier: notifier,
		terms:    terms,
	}, nil
}

// Review records the verdict for the current card and shows the next one.
func (r *Rapid) Review(v Verdict) error {
	if r.sessions == nil || r.sessions.Session() == nil {
		r.notify("⚠️ Log in first!", progress.LevelWarning)
		return ErrNotLoggedIn
	}

	term := r.terms[r.index]
	switch v {
	case Knew:
		r.known++
		r.seen++
		r.granter.Grant(RapidKnewXP, fmt.Sprintf("learned %q 📚", term.Word))
	case Hard:
		r.seen++
		r.notify("📌 Queued for review", progress.LevelInfo)
	case Skip:
	default:
		return fmt.Errorf("unknown verdict %d", int(v))
	}

	r.index = mod(r.index+1, len(r.terms))
	return nil
}

// Progress is the share of seen cards the player knew, in [0, 1].
func (r *Rapid) Progress() float64 {
	seen := r.seen
	if seen < 1 {
		seen = 1
	}
	p := float64(r.known) / float64(seen)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// View returns a snapshot of the deck.
func (r *Rapid) View() RapidView {
	return RapidView{
		Term:     r.terms[r.index],
		Known:    r.known,
		Seen:     r.seen,
		Progress: r.Progress(),
	}
}

// Index is the position of the current card.
func (r *Rapid) Index() int { return r.index }

func (r *Rapid) notify(text string, level progress.Level) {
	if r.notifier != nil {
		r.notifier.Notify(progress.Notification{Text: text, Level: level})
	}
}
