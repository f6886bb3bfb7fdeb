// Package feed renders windowed views over the shared activity feed and chat log.
package feed

import (
	"strconv"
	"time"

	"github.com/mcdev12/fluencyrush/go/internal/models"
)

const (
	FeedWindow = 8
	ChatWindow = 40
)

// Tail returns a copy of the last n items in their original order.
func Tail[T any](items []T, n int) []T {
	if n <= 0 {
		return nil
	}
	if len(items) > n {
		items = items[len(items)-n:]
	}
	return append([]T(nil), items...)
}

// FeedView returns the visible feed: the last FeedWindow items, newest first.
func FeedView(items []models.FeedItem) []models.FeedItem {
	out := Tail(items, FeedWindow)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// ChatView returns the visible chat: the last ChatWindow messages, oldest first.
func ChatView(msgs []models.ChatMessage) []models.ChatMessage {
	return Tail(msgs, ChatWindow)
}

// TimeSince formats the age of ts as whole seconds, minutes or hours.
func TimeSince(now, ts time.Time) string {
	s := int64(now.Sub(ts) / time.Second)
	if s < 0 {
		s = 0
	}
	switch {
	case s < 60:
		return strconv.FormatInt(s, 10) + "s"
	case s < 3600:
		return strconv.FormatInt(s/60, 10) + "m"
	default:
		return strconv.FormatInt(s/3600, 10) + "h"
	}
}
