// Package ranking merges live users with the illustrative leaderboard.
package ranking

import (
	"sort"

	"github.com/mcdev12/fluencyrush/go/internal/models"
)

// TopN is the number of rows the leaderboard shows.
const TopN = 10

// Tier is the highlight color class of a rank.
type Tier int

const (
	TierNeutral Tier = iota
	TierGold
	TierSilver
	TierBronze
)

func (t Tier) String() string {
	switch t {
	case TierGold:
		return "gold"
	case TierSilver:
		return "silver"
	case TierBronze:
		return "bronze"
	default:
		return "neutral"
	}
}

// TierFor returns the tier of a 1-based rank.
func TierFor(rank int) Tier {
	switch rank {
	case 1:
		return TierGold
	case 2:
		return TierSilver
	case 3:
		return TierBronze
	default:
		return TierNeutral
	}
}

// Record is an illustrative leaderboard row that is not a real player.
type Record struct {
	Name   string
	XP     int
	Streak int
}

// Illustrative is the fixed set shown alongside real players.
var Illustrative = []Record{
	{Name: "Camila B.", XP: 9840, Streak: 45},
	{Name: "Lucas M.", XP: 8200, Streak: 38},
	{Name: "Julia A.", XP: 7650, Streak: 31},
	{Name: "Thiago R.", XP: 7100, Streak: 28},
	{Name: "Beatriz N.", XP: 6800, Streak: 22},
}

// Entry is one ranked row.
type Entry struct {
	Rank   int
	Name   string
	XP     int
	Streak int
	Real   bool
	Self   bool
	Tier   Tier
}

// Merge ranks real users (in the order given) followed by illustrative records.
// The sort is stable by XP descending; ranks are positions 1..N. selfName marks
// the real row whose name matches it.
func Merge(users []models.User, illustrative []Record, selfName string) []Entry {
	entries := make([]Entry, 0, len(users)+len(illustrative))
	for _, u := range users {
		entries = append(entries, Entry{
			Name:   u.Name,
			XP:     u.XP,
			Streak: u.Streak,
			Real:   true,
			Self:   selfName != "" && u.Name == selfName,
		})
	}
	for _, r := range illustrative {
		entries = append(entries, Entry{Name: r.Name, XP: r.XP, Streak: r.Streak})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].XP > entries[j].XP
	})
	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].Tier = TierFor(i + 1)
	}
	return entries
}

// Top returns at most n leading entries.
func Top(entries []Entry, n int) []Entry {
	if n < 0 {
		n = 0
	}
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}

// Self returns the current player's entry, if ranked.
func Self(entries []Entry) (Entry, bool) {
	for _, e := range entries {
		if e.Self {
			return e, true
		}
	}
	return Entry{}, false
}
