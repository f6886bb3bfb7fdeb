package stream

import (
	"testing"

	"github.com/mcdev12/fluencyrush/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUsersKeepsOrder(t *testing.T) {
	msg := []byte(`{"event":"users","data":{"zoe":{"name":"Zoe","xp":10},"ana_b":{"name":"Ana B.","xp":30},"bia":{"id":"bia","name":"Bia","xp":30}}}`)

	ev, err := Decode(msg)
	require.NoError(t, err)
	users, ok := ev.(UsersEvent)
	require.True(t, ok)

	var ids []string
	for _, u := range users.Users {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{"zoe", "ana_b", "bia"}, ids)

	self, ok := users.Users.Find("ana_b")
	require.True(t, ok)
	assert.Equal(t, 30, self.XP)

	_, ok = users.Users.Find("missing")
	assert.False(t, ok)
}

func TestDecodeInit(t *testing.T) {
	msg := []byte(`{"event":"init","data":{"users":{},"feed":[{"name":"Ana","action":"joined","xp":10,"ts":1}],"chat":[{"name":"Ana","text":"hi","ts":2}]}}`)

	ev, err := Decode(msg)
	require.NoError(t, err)
	init, ok := ev.(InitEvent)
	require.True(t, ok)
	assert.Empty(t, init.Users)
	assert.Equal(t, []models.FeedItem{{Name: "Ana", Action: "joined", XP: 10, TS: 1}}, init.Feed)
	assert.Equal(t, []models.ChatMessage{{Name: "Ana", Text: "hi", TS: 2}}, init.Chat)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`{"event":"bogus","data":{}}`))
	require.ErrorIs(t, err, ErrUnknownKind)

	_, err = Decode([]byte(`not json`))
	require.Error(t, err)

	_, err = Decode([]byte(`{"event":"feed","data":{"oops":1}}`))
	require.Error(t, err)
}

func TestEncodeInitUsesEmptyCollections(t *testing.T) {
	data, err := Encode(InitEvent{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"init","data":{"users":{},"feed":[],"chat":[]}}`, string(data))
}

func TestEncodeUsersIsKeyedByID(t *testing.T) {
	data, err := Encode(UsersEvent{Users: UserMap{{ID: "b", Name: "B", XP: 2}, {ID: "a", Name: "A", XP: 1}}})
	require.NoError(t, err)

	ev, err := Decode(data)
	require.NoError(t, err)
	users := ev.(UsersEvent).Users
	require.Len(t, users, 2)
	assert.Equal(t, "b", users[0].ID)
	assert.Equal(t, "a", users[1].ID)
}
