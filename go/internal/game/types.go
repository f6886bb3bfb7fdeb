package game

import (
	"time"

	"github.com/mcdev12/fluencyrush/go/internal/content"
	"github.com/mcdev12/fluencyrush/go/internal/missions"
	"github.com/mcdev12/fluencyrush/go/internal/models"
	"github.com/mcdev12/fluencyrush/go/internal/presence"
	"github.com/mcdev12/fluencyrush/go/internal/progress"
	"github.com/mcdev12/fluencyrush/go/internal/quiz"
	"github.com/mcdev12/fluencyrush/go/internal/ranking"
)

// Notice is a notification shown until it expires.
type Notice struct {
	progress.Notification
	At time.Time
}

// Snapshot is a copy of everything the UI renders. It is built on the event
// loop after every task and is safe to read from any goroutine.
type Snapshot struct {
	LoggedIn   bool
	Name       string
	ID         string
	XP         int
	XPBar      float64
	Connected  bool
	Ranking    []ranking.Entry
	Feed       []models.FeedItem
	Chat       []models.ChatMessage
	Blitz      quiz.BlitzView
	Fill       quiz.FillView
	Rapid      quiz.RapidView
	Missions   []missions.State
	Challenges []content.Challenge
	Presence   presence.Counts
	Notices    []Notice
}

const (
	// XPBarScale is the XP that fills the profile bar.
	XPBarScale = 10000
	xpBarMin   = 2.0
	xpBarMax   = 98.0
)

// XPBar returns the profile bar fill in percent, clamped to [2, 98].
func XPBar(xp int) float64 {
	pct := float64(xp) / XPBarScale * 100
	if pct < xpBarMin {
		return xpBarMin
	}
	if pct > xpBarMax {
		return xpBarMax
	}
	return pct
}
