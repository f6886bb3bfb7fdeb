package quiz

import (
	"fmt"
	"strings"
	"time"

	"github.com/mcdev12/fluencyrush/go/internal/content"
	"github.com/mcdev12/fluencyrush/go/internal/eventloop"
	"github.com/mcdev12/fluencyrush/go/internal/missions"
	"github.com/mcdev12/fluencyrush/go/internal/progress"
	"github.com/rs/zerolog/log"
)

const (
	FillCorrectXP      = 20
	FillAdvanceDelay   = 800 * time.Millisecond
	FillMarkerDuration = 1200 * time.Millisecond
	fillCorrectReason  = "completed a Fill in the Blank ✏️"
)

// FillState is the state of the fill-in-the-blank quiz.
type FillState int

const (
	FillShowing FillState = iota
	FillCorrect
	FillIncorrect
)

func (s FillState) String() string {
	switch s {
	case FillCorrect:
		return "correct"
	case FillIncorrect:
		return "incorrect"
	default:
		return "showing"
	}
}

// FillView is a read-only copy of the fill state for rendering.
type FillView struct {
	Question    content.FillQuestion
	State       FillState
	Feedback    string
	ErrorMarker bool
	Solved      int
}

// Fill is the fill-in-the-blank quiz.
type Fill struct {
	sched     eventloop.Scheduler
	sessions  SessionSource
	granter   missions.Granter
	notifier  progress.Notifier
	questions []content.FillQuestion

	index       int
	solved      int
	state       FillState
	feedback    string
	errorMarker bool

	advance     *eventloop.Task
	clearMarker *eventloop.Task
}

func NewFill(sched eventloop.Scheduler, sessions SessionSource, granter missions.Granter, notifier progress.Notifier, questions []content.FillQuestion) (*Fill, error) {
	if len(questions) == 0 {
		return nil, ErrNoContent
	}
	return &Fill{
		sched:     sched,
		sessions:  sessions,
		granter:   granter,
		notifier:  notifier,
		questions: questions,
	}, nil
}

// Matches reports whether input is the canonical answer, ignoring case and
// surrounding whitespace.
func Matches(input, answer string) bool {
	return strings.ToLower(strings.TrimSpace(input)) == strings.ToLower(answer)
}

// Check submits an answer for the current question.
func (f *Fill) Check(input string) error {
	if f.sessions == nil || f.sessions.Session() == nil {
		f.notify("⚠️ Log in first!", progress.LevelWarning)
		return ErrNotLoggedIn
	}
	if f.state == FillCorrect {
		return ErrRoundClosed
	}

	q := f.current()
	if Matches(input, q.Answer) {
		eventloop.Replace(&f.clearMarker, nil)
		f.state = FillCorrect
		f.feedback = ""
		f.errorMarker = false
		f.solved++
		f.granter.Grant(FillCorrectXP, fillCorrectReason)
		eventloop.Replace(&f.advance, f.sched.AfterFunc(FillAdvanceDelay, f.next))
		return nil
	}

	f.state = FillIncorrect
	f.feedback = q.Answer
	f.errorMarker = true
	f.notify(fmt.Sprintf("✗ Answer: %q", q.Answer), progress.LevelError)
	eventloop.Replace(&f.clearMarker, f.sched.AfterFunc(FillMarkerDuration, func() {
		f.errorMarker = false
		f.clearMarker = nil
	}))
	log.Debug().Int("index", f.index).Msg("fill answer rejected")
	return nil
}

func (f *Fill) next() {
	f.advance = nil
	f.index = mod(f.index+1, len(f.questions))
	f.state = FillShowing
	f.feedback = ""
}

// Stop cancels pending tasks.
func (f *Fill) Stop() {
	eventloop.Replace(&f.advance, nil)
	eventloop.Replace(&f.clearMarker, nil)
}

// View returns a snapshot of the quiz.
func (f *Fill) View() FillView {
	return FillView{
		Question:    f.current(),
		State:       f.state,
		Feedback:    f.feedback,
		ErrorMarker: f.errorMarker,
		Solved:      f.solved,
	}
}

// Index is the position of the current question.
func (f *Fill) Index() int { return f.index }

// State is the current state.
func (f *Fill) State() FillState { return f.state }

func (f *Fill) current() content.FillQuestion {
	return f.questions[f.index]
}

func (f *Fill) notify(text string, level progress.Level) {
	if f.notifier != nil {
		f.notifier.Notify(progress.Notification{Text: text, Level: level})
	}
}
