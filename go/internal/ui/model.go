package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mcdev12/fluencyrush/go/internal/game"
	"github.com/mcdev12/fluencyrush/go/internal/quiz"
	"github.com/mcdev12/fluencyrush/go/internal/session"
	"github.com/rs/zerolog/log"
)

// Controller is the game surface the UI drives. game.App satisfies it.
type Controller interface {
	Login(ctx context.Context, displayName string) (*session.Session, error)
	AnswerBlitz(option int) error
	CheckFill(input string) error
	Review(v quiz.Verdict) error
	SendChat(text string) error
	CompleteChallenge(name string) error
}

type screen int

const (
	screenLogin screen = iota
	screenDashboard
)

// Pane is the dashboard panel receiving key input.
type Pane int

const (
	PaneBlitz Pane = iota
	PaneFill
	PaneRapid
	PaneChat
	PaneChallenges
	paneCount
)

func (p Pane) String() string {
	return [...]string{"Blitz", "Fill", "Rapid", "Chat", "Challenges"}[p]
}

type loginResultMsg struct {
	sess *session.Session
	err  error
}

type tickMsg time.Time

// Model is the bubbletea model for the whole client.
type Model struct {
	ctx    context.Context
	ctrl   Controller
	styles Styles

	screen    screen
	loggingIn bool
	loginErr  string
	name      textinput.Model
	fill      textinput.Model
	chat      textinput.Model
	focus     Pane
	snap      game.Snapshot
	now       time.Time
	width     int
	height    int
}

// NewModel creates the model. ctx bounds the login request.
func NewModel(ctx context.Context, ctrl Controller) Model {
	name := textinput.New()
	name.Placeholder = "Your name"
	name.CharLimit = 40
	name.Focus()

	fill := textinput.New()
	fill.Placeholder = "Type the missing words"
	fill.CharLimit = 80

	chat := textinput.New()
	chat.Placeholder = "Say something..."
	chat.CharLimit = 300

	return Model{
		ctx:    ctx,
		ctrl:   ctrl,
		styles: NewStyles(),
		name:   name,
		fill:   fill,
		chat:   chat,
		now:    time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tickMsg:
		m.now = time.Time(msg)
		return m, tick()
	case SnapshotMsg:
		m.snap = game.Snapshot(msg)
		return m, nil
	case loginResultMsg:
		m.loggingIn = false
		if msg.err != nil {
			m.loginErr = loginError(msg.err)
			return m, nil
		}
		m.screen = screenDashboard
		m.name.Blur()
		m.setFocus(PaneBlitz)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	}

	if m.screen == screenLogin {
		return m.updateLogin(msg)
	}
	return m.updateDashboard(msg)
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.loggingIn {
				return m, nil
			}
			m.loggingIn = true
			m.loginErr = ""
			ctx, ctrl, name := m.ctx, m.ctrl, m.name.Value()
			return m, func() tea.Msg {
				sess, err := ctrl.Login(ctx, name)
				return loginResultMsg{sess: sess, err: err}
			}
		}
	}

	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	return m, cmd
}

func (m Model) updateDashboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateInputs(msg)
	}

	switch key.Type {
	case tea.KeyTab:
		m.setFocus((m.focus + 1) % paneCount)
		return m, nil
	case tea.KeyShiftTab:
		m.setFocus((m.focus + paneCount - 1) % paneCount)
		return m, nil
	case tea.KeyEsc:
		return m, tea.Quit
	}

	switch m.focus {
	case PaneBlitz:
		if opt, ok := optionKey(key.String()); ok {
			m.report(m.ctrl.AnswerBlitz(opt))
		}
		return m, nil
	case PaneRapid:
		switch key.String() {
		case "k":
			m.report(m.ctrl.Review(quiz.Knew))
		case "h":
			m.report(m.ctrl.Review(quiz.Hard))
		case "s":
			m.report(m.ctrl.Review(quiz.Skip))
		}
		return m, nil
	case PaneChallenges:
		if i, ok := optionKey(key.String()); ok && i < len(m.snap.Challenges) {
			m.report(m.ctrl.CompleteChallenge(m.snap.Challenges[i].Name))
		}
		return m, nil
	case PaneFill:
		if key.Type == tea.KeyEnter {
			m.report(m.ctrl.CheckFill(m.fill.Value()))
			m.fill.SetValue("")
			return m, nil
		}
	case PaneChat:
		if key.Type == tea.KeyEnter {
			err := m.ctrl.SendChat(m.chat.Value())
			if !errors.Is(err, game.ErrEmptyMessage) {
				m.report(err)
				m.chat.SetValue("")
			}
			return m, nil
		}
	}
	return m.updateInputs(msg)
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case PaneFill:
		m.fill, cmd = m.fill.Update(msg)
	case PaneChat:
		m.chat, cmd = m.chat.Update(msg)
	}
	return m, cmd
}

func (m *Model) setFocus(p Pane) {
	m.focus = p
	m.fill.Blur()
	m.chat.Blur()
	switch p {
	case PaneFill:
		m.fill.Focus()
	case PaneChat:
		m.chat.Focus()
	}
}

func (m *Model) report(err error) {
	if err != nil {
		log.Error().Err(err).Str("pane", m.focus.String()).Msg("action not delivered")
	}
}

// Focus returns the focused pane.
func (m Model) Focus() Pane { return m.focus }

// LoggedIn reports whether the dashboard is showing.
func (m Model) LoggedIn() bool { return m.screen == screenDashboard }

func optionKey(s string) (int, bool) {
	if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		return int(s[0] - '1'), true
	}
	return 0, false
}

func loginError(err error) string {
	switch {
	case errors.Is(err, session.ErrNameTooShort):
		return "Enter a name with at least 2 characters."
	case errors.Is(err, session.ErrEmptyID):
		return "Your name needs at least one letter or digit."
	default:
		return "Could not start the session: " + err.Error()
	}
}
