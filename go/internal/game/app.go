// Package game wires the session, quizzes, missions and push channel together.
//
// Every piece of game state lives on one eventloop.Loop. Public methods are
// safe to call from any goroutine: they validate input, post the work to the
// loop and return without waiting for the authority.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mcdev12/fluencyrush/go/clients/authority_client"
	"github.com/mcdev12/fluencyrush/go/internal/content"
	"github.com/mcdev12/fluencyrush/go/internal/eventloop"
	"github.com/mcdev12/fluencyrush/go/internal/feed"
	"github.com/mcdev12/fluencyrush/go/internal/missions"
	"github.com/mcdev12/fluencyrush/go/internal/models"
	"github.com/mcdev12/fluencyrush/go/internal/presence"
	"github.com/mcdev12/fluencyrush/go/internal/progress"
	"github.com/mcdev12/fluencyrush/go/internal/quiz"
	"github.com/mcdev12/fluencyrush/go/internal/ranking"
	"github.com/mcdev12/fluencyrush/go/internal/session"
	"github.com/mcdev12/fluencyrush/go/internal/stream"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrEmptyMessage is returned for a chat message that is blank after trimming.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNotLoggedIn is returned for actions that need a session.
	ErrNotLoggedIn = quiz.ErrNotLoggedIn
	// ErrAlreadyLoggedIn is returned by a second Login.
	ErrAlreadyLoggedIn = errors.New("already logged in")
	// ErrUnknownChallenge is returned for a challenge name that is not in the content set.
	ErrUnknownChallenge = errors.New("unknown challenge")
)

const (
	loginReason  = "joined the platform 🚀"
	loginXP      = 10
	noticeTTL    = 3200 * time.Millisecond
	maxNotices   = 5
	chatMaxRunes = 300
)

// Authority is the request API the client talks to.
type Authority interface {
	progress.Authority
	content.Fetcher
	RegisterUser(ctx context.Context, id, name string) (*authority_client.RegisterUserResponse, error)
	SendChat(ctx context.Context, name, text string) error
}

// Stream is the push-channel subscription.
type Stream interface {
	Handle(kind stream.Kind, h stream.Handler)
	Run(ctx context.Context) error
	Generation() uint64
}

// Options configures an App.
type Options struct {
	QuestionsFile  string
	RequestTimeout time.Duration
	PresenceSeed   int64
	// OnChange receives a fresh snapshot after every loop task. It runs on the
	// loop goroutine and must not block on the App.
	OnChange func(Snapshot)
}

// App is one client session.
type App struct {
	opts       Options
	loop       *eventloop.Loop
	authority  Authority
	stream     Stream
	dispatcher *progress.Dispatcher

	loginOnce sync.Once
	loggedIn  chan struct{}

	// Loop-owned state.
	session  *session.Session
	emitter  *progress.Emitter
	tracker  *missions.Tracker
	blitz    *quiz.Blitz
	fill     *quiz.Fill
	rapid    *quiz.Rapid
	presence *presence.Simulator
	content  content.Set

	users   stream.UserMap
	ranked  []ranking.Entry
	feed    []models.FeedItem
	chat    []models.ChatMessage
	xp      int
	notices []Notice
}

// New creates an App. Nothing runs until Run is called.
func New(loop *eventloop.Loop, authority Authority, sub Stream, opts Options) *App {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = progress.DefaultRequestTimeout
	}
	a := &App{
		opts:       opts,
		loop:       loop,
		authority:  authority,
		stream:     sub,
		dispatcher: progress.NewDispatcher(opts.RequestTimeout),
		loggedIn:   make(chan struct{}),
		presence:   presence.NewSimulator(loop, opts.PresenceSeed),
		content:    content.Defaults(),
	}
	a.ranked = ranking.Merge(nil, ranking.Illustrative, "")

	sub.Handle(stream.KindInit, a.onInit)
	sub.Handle(stream.KindUsers, a.onUsers)
	sub.Handle(stream.KindFeed, a.onFeed)
	sub.Handle(stream.KindChat, a.onChat)

	if opts.OnChange != nil {
		loop.AfterTask = func() { opts.OnChange(a.snapshot()) }
	}
	return a
}

// Run drives the event loop and, once the player has logged in, the push
// channel. It returns when ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.loop.Run(gctx)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-a.loggedIn:
		}
		return a.stream.Run(gctx)
	})

	err := g.Wait()
	a.stopSession()
	a.dispatcher.Close()
	log.Info().Msg("game stopped")
	return err
}

// stopSession cancels the quiz and presence tasks. It runs after the loop
// has exited, so it does not race with loop-owned state.
func (a *App) stopSession() {
	if a.blitz != nil {
		a.blitz.Stop()
	}
	if a.fill != nil {
		a.fill.Stop()
	}
	a.presence.Stop()
}

// Login validates the display name, registers the player and starts the game.
// It blocks on the registration round-trip; a failed registration is logged
// and the session continues.
func (a *App) Login(ctx context.Context, displayName string) (*session.Session, error) {
	sess, err := session.New(displayName)
	if err != nil {
		return nil, err
	}

	select {
	case <-a.loggedIn:
		return nil, ErrAlreadyLoggedIn
	default:
	}

	xp := 0
	regCtx, cancel := context.WithTimeout(ctx, a.opts.RequestTimeout)
	resp, err := a.authority.RegisterUser(regCtx, sess.ID, sess.Name)
	cancel()
	if err != nil {
		log.Error().Err(err).Str("user_id", sess.ID).Msg("failed to register user")
	} else {
		xp = resp.User.XP
		log.Info().Str("user_id", sess.ID).Bool("new", resp.New).Msg("user registered")
	}

	a.loginOnce.Do(func() { close(a.loggedIn) })

	loadCtx, cancel := context.WithTimeout(ctx, a.opts.RequestTimeout)
	set := content.Load(loadCtx, a.authority, a.opts.QuestionsFile)
	cancel()

	errc := make(chan error, 1)
	if err := a.loop.Post(func() { errc <- a.start(sess, set, xp) }); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	select {
	case err := <-errc:
		if err != nil {
			return nil, err
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return sess, nil
}

// start builds the per-session machines. Runs on the loop.
func (a *App) start(sess *session.Session, set content.Set, xp int) error {
	emitter := progress.NewEmitter(sess, a.authority, a.dispatcher, a)
	tracker := missions.NewTracker(emitter, missions.DefaultDefinitions())

	blitz, err := quiz.NewBlitz(a.loop, emitter, tracker, a, set.Blitz)
	if err != nil {
		return fmt.Errorf("failed to create blitz quiz: %w", err)
	}
	fill, err := quiz.NewFill(a.loop, a, emitter, a, set.Fill)
	if err != nil {
		return fmt.Errorf("failed to create fill quiz: %w", err)
	}
	rapid, err := quiz.NewRapid(a, emitter, a, set.Vocab)
	if err != nil {
		return fmt.Errorf("failed to create rapid review: %w", err)
	}

	a.session = sess
	a.emitter = emitter
	a.tracker = tracker
	a.blitz = blitz
	a.fill = fill
	a.rapid = rapid
	a.content = set
	a.xp = xp
	a.setUsers(a.users)

	a.blitz.Start()
	a.presence.Start()
	a.emitter.Grant(loginXP, loginReason)

	log.Info().Str("user_id", sess.ID).Msg("session started")
	return nil
}

// Session returns the current session. Loop only.
func (a *App) Session() *session.Session {
	return a.session
}

// Notify records a notification and schedules its expiry. Loop only.
func (a *App) Notify(n progress.Notification) {
	notice := Notice{Notification: n, At: a.loop.Clock().Now()}
	a.notices = append(a.notices, notice)
	if len(a.notices) > maxNotices {
		a.notices = a.notices[len(a.notices)-maxNotices:]
	}
	a.loop.AfterFunc(noticeTTL, func() { a.expire(notice) })
}

func (a *App) expire(n Notice) {
	for i, cur := range a.notices {
		if cur == n {
			a.notices = append(a.notices[:i:i], a.notices[i+1:]...)
			return
		}
	}
}

// AnswerBlitz selects an option in the running Blitz round.
func (a *App) AnswerBlitz(option int) error {
	return a.loop.Post(func() {
		if a.blitz == nil {
			return
		}
		if err := a.blitz.Answer(option); err != nil {
			log.Debug().Err(err).Int("option", option).Msg("blitz answer ignored")
		}
	})
}

// CheckFill submits a fill-in-the-blank answer.
func (a *App) CheckFill(input string) error {
	return a.loop.Post(func() {
		if a.fill == nil {
			a.Notify(progress.Notification{Text: "⚠️ Log in first!", Level: progress.LevelWarning})
			return
		}
		if err := a.fill.Check(input); err != nil {
			log.Debug().Err(err).Msg("fill answer ignored")
		}
	})
}

// Review records a rapid-review verdict.
func (a *App) Review(v quiz.Verdict) error {
	return a.loop.Post(func() {
		if a.rapid == nil {
			a.Notify(progress.Notification{Text: "⚠️ Log in first!", Level: progress.LevelWarning})
			return
		}
		if err := a.rapid.Review(v); err != nil {
			log.Debug().Err(err).Stringer("verdict", v).Msg("review ignored")
		}
	})
}

// SendChat posts a chat message and counts it towards the chat mission.
func (a *App) SendChat(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if r := []rune(text); len(r) > chatMaxRunes {
		text = string(r[:chatMaxRunes])
	}

	return a.loop.Post(func() {
		if a.session == nil {
			a.Notify(progress.Notification{Text: "⚠️ Log in first!", Level: progress.LevelWarning})
			return
		}
		name := a.session.Name
		a.dispatcher.Go("send_chat", func(ctx context.Context) error {
			return a.authority.SendChat(ctx, name, text)
		})
		a.tracker.Observe(missions.EventChatSent)
	})
}

// CompleteChallenge grants the XP of a named challenge.
func (a *App) CompleteChallenge(name string) error {
	return a.loop.Post(func() {
		if a.session == nil {
			return
		}
		for _, ch := range a.content.Challenges {
			if ch.Name == name {
				a.emitter.Grant(ch.XP, fmt.Sprintf("completed %q 🎯", ch.Name))
				return
			}
		}
		log.Warn().Err(ErrUnknownChallenge).Str("challenge", name).Msg("challenge not completed")
	})
}

// Sync waits until every task posted before it has run.
func (a *App) Sync(ctx context.Context) error {
	done := make(chan struct{})
	if err := a.loop.Post(func() { close(done) }); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the current state. It waits for the loop.
func (a *App) Snapshot(ctx context.Context) (Snapshot, error) {
	out := make(chan Snapshot, 1)
	if err := a.loop.Post(func() { out <- a.snapshot() }); err != nil {
		return Snapshot{}, err
	}
	select {
	case s := <-out:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// WaitDispatched blocks until every best-effort request has finished.
func (a *App) WaitDispatched() {
	a.dispatcher.Wait()
}

func (a *App) onInit(ev stream.Event) {
	init := ev.(stream.InitEvent)
	a.setUsers(init.Users)
	a.feed = init.Feed
	a.chat = init.Chat
}

func (a *App) onUsers(ev stream.Event) {
	a.setUsers(ev.(stream.UsersEvent).Users)
}

func (a *App) onFeed(ev stream.Event) {
	a.feed = ev.(stream.FeedEvent).Items
}

func (a *App) onChat(ev stream.Event) {
	a.chat = ev.(stream.ChatEvent).Messages
}

func (a *App) setUsers(users stream.UserMap) {
	a.users = users
	if a.session != nil {
		if me, ok := users.Find(a.session.ID); ok {
			a.xp = me.XP
		}
	}
	a.rerank()
}

func (a *App) rerank() {
	self := ""
	if a.session != nil {
		self = a.session.Name
	}
	a.ranked = ranking.Merge(a.users, ranking.Illustrative, self)
}

func (a *App) snapshot() Snapshot {
	s := Snapshot{
		XP:         a.xp,
		XPBar:      XPBar(a.xp),
		Connected:  a.stream.Generation() != 0,
		Ranking:    append([]ranking.Entry(nil), ranking.Top(a.ranked, ranking.TopN)...),
		Feed:       feed.FeedView(a.feed),
		Chat:       feed.ChatView(a.chat),
		Challenges: append([]content.Challenge(nil), a.content.Challenges...),
		Presence:   a.presence.Counts(),
		Notices:    append([]Notice(nil), a.notices...),
	}
	if a.session != nil {
		s.LoggedIn = true
		s.Name = a.session.Name
		s.ID = a.session.ID
		s.Blitz = a.blitz.View()
		s.Fill = a.fill.View()
		s.Rapid = a.rapid.View()
		s.Missions = a.tracker.States()
	}
	return s
}
