package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mcdev12/fluencyrush/go/internal/feed"
	"github.com/mcdev12/fluencyrush/go/internal/quiz"
)

const (
	panelWidth = 46
	barWidth   = 24
)

func (m Model) View() string {
	if m.screen == screenLogin {
		return m.viewLogin()
	}
	return m.viewDashboard()
}

func (m Model) viewLogin() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("⚡ FLUENCY RUSH"))
	sb.WriteString("\n\n")
	sb.WriteString("What should we call you?\n\n")
	sb.WriteString(m.name.View())
	sb.WriteString("\n\n")
	switch {
	case m.loggingIn:
		sb.WriteString(m.styles.Muted.Render("Joining..."))
	case m.loginErr != "":
		sb.WriteString(m.styles.Error.Render(m.loginErr))
	default:
		sb.WriteString(m.styles.Muted.Render("enter to join • esc to quit"))
	}
	return m.styles.Panel.Padding(1, 3).Render(sb.String())
}

func (m Model) viewDashboard() string {
	s := m.snap

	status := "○ offline"
	if s.Connected {
		status = "● live"
	}
	header := m.styles.Header.Render(fmt.Sprintf("FLUENCY RUSH  %s  %s XP  🔴 %d playing  %d online  %s",
		s.Name, formatXP(s.XP), s.Presence.Live, s.Presence.Online, status))

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.panel(PaneBlitz, m.viewBlitz()),
		m.panel(PaneFill, m.viewFill()),
		m.panel(PaneRapid, m.viewRapid()),
	)
	middle := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Panel.Width(panelWidth).Render(m.viewProfile()),
		m.panel(PaneChallenges, m.viewChallenges()),
		m.styles.Panel.Width(panelWidth).Render(m.viewRanking()),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Panel.Width(panelWidth).Render(m.viewFeed()),
		m.panel(PaneChat, m.viewChat()),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, middle, right)
	footer := m.styles.Footer.Render("tab/shift+tab switch panel • blitz 1-4 • rapid k/h/s • challenges 1-3 • ctrl+c quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewNotices(), body, footer)
}

func (m Model) panel(p Pane, content string) string {
	style := m.styles.Panel
	if m.focus == p {
		style = m.styles.Focused
	}
	return style.Width(panelWidth).Render(content)
}

func (m Model) viewNotices() string {
	if len(m.snap.Notices) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m.snap.Notices))
	for _, n := range m.snap.Notices {
		parts = append(parts, NoticeStyle(n.Level).Render(n.Text))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) viewBlitz() string {
	b := m.snap.Blitz
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render(fmt.Sprintf("⚡ Blitz #%d", b.Number)))
	timer := fmt.Sprintf("  %02d:%02d  score %d", b.Remaining/60, b.Remaining%60, b.Score)
	if b.Remaining < 10 {
		sb.WriteString(m.styles.Error.Render(timer))
	} else {
		sb.WriteString(m.styles.Muted.Render(timer))
	}
	sb.WriteString("\n")
	sb.WriteString(bar(m.styles, float64(b.Remaining)/quiz.BlitzRoundSeconds))
	sb.WriteString("\n")
	sb.WriteString(b.Question.Prompt)
	sb.WriteString("\n")
	for i, opt := range b.Question.Options {
		line := fmt.Sprintf("%d) %s", i+1, opt)
		if i < len(b.Marks) {
			switch b.Marks[i] {
			case quiz.MarkCorrect:
				line = m.styles.Correct.Render(line)
			case quiz.MarkWrong:
				line = m.styles.Wrong.Render(line)
			}
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) viewFill() string {
	f := m.snap.Fill
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("✏️ Fill in the Blank"))
	sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("  solved %d", f.Solved)))
	sb.WriteString("\n")
	sb.WriteString(f.Question.Prompt)
	sb.WriteString("\n")
	if f.Question.Hint != "" {
		sb.WriteString(m.styles.Muted.Render(f.Question.Hint))
		sb.WriteString("\n")
	}
	input := m.fill.View()
	if f.ErrorMarker {
		input = m.styles.Error.Render("✗ ") + input
	}
	sb.WriteString(input)
	switch f.State {
	case quiz.FillCorrect:
		sb.WriteString("\n" + m.styles.Self.Render("✓ Correct!"))
	case quiz.FillIncorrect:
		sb.WriteString("\n" + m.styles.Muted.Render(fmt.Sprintf("answer: %q", f.Feedback)))
	}
	return sb.String()
}

func (m Model) viewRapid() string {
	r := m.snap.Rapid
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("📚 Rapid Review"))
	sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("  %d/%d known", r.Known, r.Seen)))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Bold.Render(r.Term.Word))
	if r.Term.Pronunciation != "" {
		sb.WriteString(" " + m.styles.Muted.Render(r.Term.Pronunciation))
	}
	sb.WriteString("\n")
	sb.WriteString(r.Term.Meaning)
	sb.WriteString("\n")
	sb.WriteString(bar(m.styles, r.Progress))
	sb.WriteString(m.styles.Muted.Render("  k knew • h hard • s skip"))
	return sb.String()
}

func (m Model) viewProfile() string {
	s := m.snap
	var sb strings.Builder
	sb.WriteString(m.styles.Self.Render(s.Name))
	sb.WriteString(m.styles.Muted.Render(" @" + s.ID))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s XP ", formatXP(s.XP)))
	sb.WriteString(bar(m.styles, s.XPBar/100))
	for _, ms := range s.Missions {
		sb.WriteString("\n")
		icon := "○"
		if ms.Completed {
			icon = "✅"
		}
		progress := ms.Progress
		if progress > ms.Threshold {
			progress = ms.Threshold
		}
		sb.WriteString(fmt.Sprintf("%s %s %s", icon, ms.Title, m.styles.Muted.Render(fmt.Sprintf("%d/%d", progress, ms.Threshold))))
	}
	return sb.String()
}

func (m Model) viewChallenges() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("🎯 Challenges"))
	for i, ch := range m.snap.Challenges {
		sb.WriteString(fmt.Sprintf("\n%d) %s %s", i+1, ch.Name, m.styles.Self.Render(fmt.Sprintf("+%d XP", ch.XP))))
	}
	return sb.String()
}

func (m Model) viewRanking() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("🏆 Ranking"))
	for _, e := range m.snap.Ranking {
		rank := lipgloss.NewStyle().Foreground(TierColor(e.Tier)).Bold(true).Render(fmt.Sprintf("%2d", e.Rank))
		name := e.Name
		stat := m.styles.Muted.Render(fmt.Sprintf("%dd streak", e.Streak))
		if e.Real {
			stat = m.styles.Muted.Render("online")
		}
		if e.Self {
			name = m.styles.Self.Render(name + " 👈")
		}
		sb.WriteString(fmt.Sprintf("\n%s %-16s %8s %s", rank, name, formatXP(e.XP), stat))
	}
	return sb.String()
}

func (m Model) viewFeed() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("📡 Live Feed"))
	for _, item := range m.snap.Feed {
		line := fmt.Sprintf("\n%s %s", m.styles.Bold.Render(item.Name), item.Action)
		if item.XP > 0 {
			line += " " + m.styles.Self.Render(fmt.Sprintf("+%dxp", item.XP))
		}
		line += " " + m.styles.Muted.Render(feed.TimeSince(m.now, item.Time()))
		sb.WriteString(line)
	}
	return sb.String()
}

func (m Model) viewChat() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("💬 Chat"))
	if len(m.snap.Chat) == 0 {
		sb.WriteString("\n" + m.styles.Muted.Render("Be the first to write!"))
	}
	for _, msg := range m.snap.Chat {
		name := msg.Name
		if msg.Name == m.snap.Name {
			name = m.styles.Self.Render("You")
		} else {
			name = m.styles.Bold.Render(name)
		}
		sb.WriteString(fmt.Sprintf("\n%s: %s", name, msg.Text))
	}
	sb.WriteString("\n")
	sb.WriteString(m.chat.View())
	return sb.String()
}

func bar(s Styles, ratio float64) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio*barWidth + 0.5)
	return s.Bar.Render(strings.Repeat("█", filled)) + s.BarEmpty.Render(strings.Repeat("░", barWidth-filled))
}

// formatXP groups thousands with commas.
func formatXP(xp int) string {
	neg := xp < 0
	if neg {
		xp = -xp
	}
	digits := fmt.Sprintf("%d", xp)
	var out []byte
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

