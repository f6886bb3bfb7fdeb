package models

import (
	"strings"
	"time"
	"unicode"
)

// User is a player record as owned by the authority.
// ID is the key of the authority's user map and is derived from Name.
type User struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	XP       int    `json:"xp"`
	Streak   int    `json:"streak,omitempty"`
	JoinedAt int64  `json:"joinedAt,omitempty"` // unix millis
	LastSeen int64  `json:"lastSeen,omitempty"` // unix millis
}

// NormalizeID derives the stable user identifier from a display name:
// lowercased, whitespace runs collapsed to "_", anything outside [a-z0-9_] dropped.
func NormalizeID(name string) string {
	var sb strings.Builder
	inSpace := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) {
			if !inSpace {
				sb.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Millis converts t to the unix-millisecond timestamps used on the wire.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
