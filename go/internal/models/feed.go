package models

import "time"

// FeedItem is one entry of the shared activity feed.
type FeedItem struct {
	Name   string `json:"name"`
	Action string `json:"action"`
	XP     int    `json:"xp,omitempty"`
	TS     int64  `json:"ts"` // server-assigned, unix millis
}

// Time returns the server timestamp.
func (f FeedItem) Time() time.Time {
	return time.UnixMilli(f.TS)
}

// ChatMessage is one entry of the shared chat log.
type ChatMessage struct {
	Name string `json:"name"`
	Text string `json:"text"`
	TS   int64  `json:"ts,omitempty"`
}

// Snapshot is the full shared state the authority sends on connect.
type Snapshot struct {
	Users map[string]User `json:"users"`
	Feed  []FeedItem      `json:"feed"`
	Chat  []ChatMessage   `json:"chat"`
}
