// Package ui is the terminal front end of the game.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mcdev12/fluencyrush/go/internal/progress"
	"github.com/mcdev12/fluencyrush/go/internal/ranking"
)

var (
	Lime   = lipgloss.Color("#c8ff00")
	Cyan   = lipgloss.Color("#00e5ff")
	Pink   = lipgloss.Color("#ff0080")
	Orange = lipgloss.Color("#ff6a00")
	Muted  = lipgloss.Color("#6b6b80")
	Ink    = lipgloss.Color("#04040a")

	Gold   = lipgloss.Color("#ffd700")
	Silver = lipgloss.Color("#c0c0c0")
	Bronze = lipgloss.Color("#cd7f32")
)

// Styles holds the styled components of the dashboard.
type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Panel    lipgloss.Style
	Focused  lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style
	Self     lipgloss.Style
	Error    lipgloss.Style
	Correct  lipgloss.Style
	Wrong    lipgloss.Style
	Bar      lipgloss.Style
	BarEmpty lipgloss.Style
	Footer   lipgloss.Style
}

func NewStyles() Styles {
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(0, 1)

	return Styles{
		Title:    lipgloss.NewStyle().Foreground(Lime).Bold(true),
		Header:   lipgloss.NewStyle().Background(Lime).Foreground(Ink).Bold(true).Padding(0, 2),
		Panel:    panel,
		Focused:  panel.BorderForeground(Lime),
		Muted:    lipgloss.NewStyle().Foreground(Muted),
		Bold:     lipgloss.NewStyle().Bold(true),
		Self:     lipgloss.NewStyle().Foreground(Lime).Bold(true),
		Error:    lipgloss.NewStyle().Foreground(Pink).Bold(true),
		Correct:  lipgloss.NewStyle().Foreground(Ink).Background(Lime),
		Wrong:    lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(Pink),
		Bar:      lipgloss.NewStyle().Foreground(Lime),
		BarEmpty: lipgloss.NewStyle().Foreground(Muted),
		Footer:   lipgloss.NewStyle().Foreground(Muted).Padding(0, 1),
	}
}

// TierColor is the rank number color.
func TierColor(t ranking.Tier) lipgloss.Color {
	switch t {
	case ranking.TierGold:
		return Gold
	case ranking.TierSilver:
		return Silver
	case ranking.TierBronze:
		return Bronze
	default:
		return Muted
	}
}

// NoticeStyle colors a notification by level.
func NoticeStyle(l progress.Level) lipgloss.Style {
	base := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	switch l {
	case progress.LevelSuccess:
		return base.Background(Lime).Foreground(Ink)
	case progress.LevelWarning:
		return base.Background(Orange).Foreground(lipgloss.Color("#ffffff"))
	case progress.LevelError:
		return base.Background(Pink).Foreground(lipgloss.Color("#ffffff"))
	default:
		return base.Background(Cyan).Foreground(Ink)
	}
}
