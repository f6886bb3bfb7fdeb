package authority

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mcdev12/fluencyrush/go/clients"
	"github.com/mcdev12/fluencyrush/go/clients/authority_client"
	"github.com/mcdev12/fluencyrush/go/internal/content"
	"github.com/mcdev12/fluencyrush/go/internal/models"
	"github.com/mcdev12/fluencyrush/go/internal/stream"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

type fixture struct {
	app    *App
	hub    *Hub
	clock  *clockwork.FakeClock
	srv    *httptest.Server
	client *authority_client.AuthorityClient
}

func newFixture(t *testing.T, questionsFile string) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(epoch)
	app := NewApp(NewMemoryStore(), nil, clock, questionsFile)
	hub := NewHub(DefaultHubConfig(), app.Snapshot)
	app.SetPublisher(hub)

	srv := httptest.NewServer(Handler(NewService(app, hub), NewHealthChecker(app, hub, nil)))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &fixture{
		app:    app,
		hub:    hub,
		clock:  clock,
		srv:    srv,
		client: authority_client.NewAuthorityClient(srv.URL),
	}
}

func (f *fixture) getJSON(t *testing.T, path string, dst any) int {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dst != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp.StatusCode
}

func TestRegisterUserRoundTrip(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	resp, err := f.client.RegisterUser(ctx, "ana_b", "Ana B.")
	require.NoError(t, err)
	assert.True(t, resp.New)
	assert.Equal(t, 0, resp.User.XP)
	assert.Equal(t, 1, resp.User.Streak)
	assert.Equal(t, epoch.UnixMilli(), resp.User.JoinedAt)

	f.clock.Advance(time.Minute)
	resp, err = f.client.RegisterUser(ctx, "ana_b", "Ana B.")
	require.NoError(t, err)
	assert.False(t, resp.New)
	assert.Equal(t, epoch.Add(time.Minute).UnixMilli(), resp.User.LastSeen)

	var users stream.UserMap
	assert.Equal(t, http.StatusOK, f.getJSON(t, "/users", &users))
	require.Len(t, users, 1)
	assert.Equal(t, "ana_b", users[0].ID)
}

func TestAddXPOverHTTP(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	err := f.client.AddXP(ctx, "ghost", 10, "")
	var se *clients.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)

	_, err = f.client.RegisterUser(ctx, "ana", "Ana")
	require.NoError(t, err)
	require.NoError(t, f.client.AddXP(ctx, "ana", 15, "same-key"))
	require.NoError(t, f.client.AddXP(ctx, "ana", 15, "same-key"))
	require.NoError(t, f.client.AddXP(ctx, "ana", 20, ""))

	users, err := f.app.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 35, users[0].XP)
}

func TestAddXPRejectsOversizedAmount(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	_, err := f.client.RegisterUser(ctx, "ana", "Ana")
	require.NoError(t, err)

	for _, amount := range []string{"4294967301", "2147483648"} {
		req, err := http.NewRequest(http.MethodPatch, f.srv.URL+"/users/ana/xp", strings.NewReader(`{"amount":`+amount+`}`))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, amount)
	}

	_, err = f.app.AddXP(ctx, "ana", MaxXPAmount+1, "")
	assert.ErrorIs(t, err, ErrXPTooLarge)

	users, err := f.app.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, users[0].XP)
}

func TestFeedAndChatOverHTTP(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	require.NoError(t, f.client.AppendFeed(ctx, "Ana", "joined the platform", 10))
	require.NoError(t, f.client.AppendFeed(ctx, "", "lurked", 0))
	require.NoError(t, f.client.SendChat(ctx, "Ana", strings.Repeat("é", ChatTextLimit+50)))

	var feed []models.FeedItem
	assert.Equal(t, http.StatusOK, f.getJSON(t, "/feed", &feed))
	require.Len(t, feed, 2)
	assert.Equal(t, models.FeedItem{Name: "Ana", Action: "joined the platform", XP: 10, TS: epoch.UnixMilli()}, feed[0])
	assert.Equal(t, AnonymousName, feed[1].Name)

	var chat []models.ChatMessage
	assert.Equal(t, http.StatusOK, f.getJSON(t, "/chat", &chat))
	require.Len(t, chat, 1)
	assert.Equal(t, ChatTextLimit, len([]rune(chat[0].Text)))
}

func TestMalformedBodyIsRejected(t *testing.T) {
	f := newFixture(t, "")

	resp, err := http.Post(f.srv.URL+"/feed", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuestionsConfig(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		f := newFixture(t, "")
		_, err := f.client.FetchQuestionsConfig(context.Background())
		var se *clients.StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusNotFound, se.StatusCode)
	})

	t.Run("served from yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "questions.yaml")
		require.NoError(t, os.WriteFile(path, []byte("vocab:\n  - w: GRIT\n    m: Courage.\n"), 0o644))
		f := newFixture(t, path)

		set := content.Load(context.Background(), f.client, "")
		require.Len(t, set.Vocab, 1)
		assert.Equal(t, "GRIT", set.Vocab[0].Word)
		assert.Equal(t, content.Defaults().Blitz, set.Blitz)
	})
}

func TestResetAndHealth(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	_, err := f.client.RegisterUser(ctx, "ana", "Ana")
	require.NoError(t, err)
	require.NoError(t, f.client.Reset(ctx))

	users, err := f.app.Users(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	var status HealthStatus
	assert.Equal(t, http.StatusOK, f.getJSON(t, "/health", &status))
	assert.True(t, status.Healthy)
	assert.True(t, status.StoreConnected)
	assert.Nil(t, status.NATSConnected)
}

type brokerStatus bool

func (b brokerStatus) IsConnected() bool { return bool(b) }

func TestHealthReportsBrokerOutage(t *testing.T) {
	app := NewApp(NewMemoryStore(), nil, nil, "")
	h := NewHealthChecker(app, nil, brokerStatus(false))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "NATS disconnected")
}

func dialEvents(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(authority_client.PushURL(f.srv.URL), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) stream.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	ev, err := stream.Decode(msg)
	require.NoError(t, err)
	return ev
}

func TestEventsStartWithSnapshot(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	_, err := f.client.RegisterUser(ctx, "ana", "Ana")
	require.NoError(t, err)
	require.NoError(t, f.client.SendChat(ctx, "Ana", "oi"))

	conn := dialEvents(t, f)
	ev := readEvent(t, conn)
	snap, ok := ev.(stream.InitEvent)
	require.True(t, ok, "first event is %T", ev)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "Ana", snap.Users[0].Name)
	assert.Empty(t, snap.Feed)
	require.Len(t, snap.Chat, 1)
	assert.Equal(t, "oi", snap.Chat[0].Text)
}

func TestEventsFollowWrites(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	conn := dialEvents(t, f)
	_, ok := readEvent(t, conn).(stream.InitEvent)
	require.True(t, ok)
	require.Eventually(t, func() bool { return f.hub.Connections() == 1 }, time.Second, 10*time.Millisecond)

	_, err := f.client.RegisterUser(ctx, "ana", "Ana")
	require.NoError(t, err)
	users, ok := readEvent(t, conn).(stream.UsersEvent)
	require.True(t, ok)
	require.Len(t, users.Users, 1)

	for i := 0; i < FeedBroadcast+3; i++ {
		require.NoError(t, f.client.AppendFeed(ctx, "Ana", "answered", 5))
	}
	var feed stream.FeedEvent
	for i := 0; i < FeedBroadcast+3; i++ {
		feed, ok = readEvent(t, conn).(stream.FeedEvent)
		require.True(t, ok)
	}
	assert.Len(t, feed.Items, FeedBroadcast, "feed broadcasts carry the most recent window")

	require.NoError(t, f.client.Reset(ctx))
	reset, ok := readEvent(t, conn).(stream.InitEvent)
	require.True(t, ok)
	assert.Empty(t, reset.Users)
	assert.Empty(t, reset.Feed)
	assert.Empty(t, reset.Chat)
}
