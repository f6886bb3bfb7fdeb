package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/mcdev12/fluencyrush/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedViewNewestFirst(t *testing.T) {
	var items []models.FeedItem
	for i := 1; i <= 12; i++ {
		items = append(items, models.FeedItem{Name: fmt.Sprintf("p%d", i), TS: int64(i)})
	}

	got := FeedView(items)
	require.Len(t, got, FeedWindow)
	assert.Equal(t, "p12", got[0].Name)
	assert.Equal(t, "p5", got[FeedWindow-1].Name)
	assert.Equal(t, "p1", items[0].Name, "input is not modified")
	assert.Equal(t, "p12", items[11].Name)
}

func TestChatViewOldestFirst(t *testing.T) {
	var msgs []models.ChatMessage
	for i := 1; i <= 45; i++ {
		msgs = append(msgs, models.ChatMessage{Name: "p", Text: fmt.Sprintf("m%d", i)})
	}

	got := ChatView(msgs)
	require.Len(t, got, ChatWindow)
	assert.Equal(t, "m6", got[0].Text)
	assert.Equal(t, "m45", got[ChatWindow-1].Text)
}

func TestShortLogsShowEverything(t *testing.T) {
	assert.Len(t, FeedView([]models.FeedItem{{Name: "a"}, {Name: "b"}}), 2)
	assert.Empty(t, ChatView(nil))
	assert.Nil(t, Tail([]int{1, 2}, 0))
}

func TestTimeSince(t *testing.T) {
	now := time.Unix(100000, 0)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "0s"},
		{59 * time.Second, "59s"},
		{60 * time.Second, "1m"},
		{59*time.Minute + 59*time.Second, "59m"},
		{time.Hour, "1h"},
		{26 * time.Hour, "26h"},
		{-5 * time.Second, "0s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeSince(now, now.Add(-tt.ago)), "ago=%s", tt.ago)
	}
}
