package quiz

import (
	"fmt"
	"time"

	"github.com/mcdev12/fluencyrush/go/internal/content"
	"github.com/mcdev12/fluencyrush/go/internal/eventloop"
	"github.com/mcdev12/fluencyrush/go/internal/missions"
	"github.com/mcdev12/fluencyrush/go/internal/progress"
	"github.com/rs/zerolog/log"
)

const (
	BlitzRoundSeconds  = 45
	BlitzTick          = time.Second
	BlitzAnsweredDelay = 2200 * time.Millisecond
	BlitzTimeoutDelay  = 1800 * time.Millisecond
	BlitzCorrectXP     = 15
	blitzCorrectReason = "got a Blitz Quiz answer right ⚡"
)

// RoundState is the state of a Blitz round.
type RoundState int

const (
	RoundIdle RoundState = iota
	RoundAwaitingAnswer
	RoundAnswered
)

func (s RoundState) String() string {
	switch s {
	case RoundAwaitingAnswer:
		return "awaiting_answer"
	case RoundAnswered:
		return "answered"
	default:
		return "idle"
	}
}

// OptionMark is how an option is highlighted after a round closes.
type OptionMark int

const (
	MarkNone OptionMark = iota
	MarkCorrect
	MarkWrong
)

// BlitzView is a read-only copy of the Blitz state for rendering.
type BlitzView struct {
	Number    int
	Question  content.ChoiceQuestion
	State     RoundState
	Remaining int
	Correct   bool
	TimedOut  bool
	Marks     []OptionMark
	Score     int
}

// Blitz is the timed multiple-choice quiz.
type Blitz struct {
	sched     eventloop.Scheduler
	granter   missions.Granter
	observer  Observer
	notifier  progress.Notifier
	questions []content.ChoiceQuestion

	index     int
	score     int
	state     RoundState
	remaining int
	correct   bool
	timedOut  bool
	marks     []OptionMark

	countdown *eventloop.Task
	advance   *eventloop.Task
}

// NewBlitz creates a Blitz quiz. Call Start to play the first round.
func NewBlitz(sched eventloop.Scheduler, granter missions.Granter, observer Observer, notifier progress.Notifier, questions []content.ChoiceQuestion) (*Blitz, error) {
	if len(questions) == 0 {
		return nil, ErrNoContent
	}
	return &Blitz{
		sched:     sched,
		granter:   granter,
		observer:  observer,
		notifier:  notifier,
		questions: questions,
	}, nil
}

// Start opens a round on the current question with a full countdown.
// Any pending countdown or advance task is cancelled first.
func (b *Blitz) Start() {
	eventloop.Replace(&b.advance, nil)
	eventloop.Replace(&b.countdown, nil)

	q := b.current()
	b.state = RoundAwaitingAnswer
	b.remaining = BlitzRoundSeconds
	b.correct = false
	b.timedOut = false
	b.marks = make([]OptionMark, len(q.Options))

	b.countdown = b.sched.AfterFunc(BlitzTick, b.tick)
	log.Debug().Int("index", b.index).Msg("blitz round started")
}

// Stop cancels every pending task and leaves the quiz idle.
func (b *Blitz) Stop() {
	eventloop.Replace(&b.advance, nil)
	eventloop.Replace(&b.countdown, nil)
	b.state = RoundIdle
}

func (b *Blitz) tick() {
	if b.state != RoundAwaitingAnswer {
		return
	}
	b.remaining--
	if b.remaining > 0 {
		b.countdown = b.sched.AfterFunc(BlitzTick, b.tick)
		return
	}

	b.countdown = nil
	b.state = RoundAnswered
	b.correct = false
	b.timedOut = true
	b.index++
	b.notify("⏰ Time's up! Next question...", progress.LevelWarning)
	log.Debug().Int("index", b.index).Msg("blitz round timed out")

	eventloop.Replace(&b.advance, b.sched.AfterFunc(BlitzTimeoutDelay, b.Start))
}

// Answer closes the round with the chosen option.
func (b *Blitz) Answer(option int) error {
	if b.state != RoundAwaitingAnswer {
		return ErrRoundClosed
	}
	q := b.current()
	if option < 0 || option >= len(q.Options) {
		return fmt.Errorf("%w: %d", ErrInvalidOption, option)
	}

	eventloop.Replace(&b.countdown, nil)
	b.state = RoundAnswered
	b.correct = option == q.Correct

	if b.correct {
		b.marks[option] = MarkCorrect
		b.score++
		b.granter.Grant(BlitzCorrectXP, blitzCorrectReason)
		if b.observer != nil {
			b.observer.Observe(missions.EventBlitzCorrect)
		}
	} else {
		b.marks[option] = MarkWrong
		b.marks[q.Correct] = MarkCorrect
		b.notify("✗ Incorrect, the right answer is marked", progress.LevelError)
	}

	b.index++
	eventloop.Replace(&b.advance, b.sched.AfterFunc(BlitzAnsweredDelay, b.Start))
	return nil
}

// View returns a snapshot of the quiz. While a round is answered it still
// shows the question that was just closed.
func (b *Blitz) View() BlitzView {
	idx := b.index
	if b.state == RoundAnswered {
		idx--
	}
	return BlitzView{
		Number:    idx + 1,
		Question:  b.questions[mod(idx, len(b.questions))],
		State:     b.state,
		Remaining: b.remaining,
		Correct:   b.correct,
		TimedOut:  b.timedOut,
		Marks:     append([]OptionMark(nil), b.marks...),
		Score:     b.score,
	}
}

// Index is the number of rounds closed since login.
func (b *Blitz) Index() int { return b.index }

// Score is the number of correct answers since login.
func (b *Blitz) Score() int { return b.score }

// State is the current round state.
func (b *Blitz) State() RoundState { return b.state }

// Remaining is the countdown in seconds.
func (b *Blitz) Remaining() int { return b.remaining }

func (b *Blitz) current() content.ChoiceQuestion {
	return b.questions[mod(b.index, len(b.questions))]
}

func (b *Blitz) notify(text string, level progress.Level) {
	if b.notifier != nil {
		b.notifier.Notify(progress.Notification{Text: text, Level: level})
	}
}

func mod(i, n int) int {
	return ((i % n) + n) % n
}
