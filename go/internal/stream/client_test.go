package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/fluencyrush/go/internal/eventloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type pushServer struct {
	srv   *httptest.Server
	conns chan *websocket.Conn
}

func newPushServer(t *testing.T) *pushServer {
	t.Helper()
	ps := &pushServer{conns: make(chan *websocket.Conn, 4)}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ps.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ps.conns <- conn
	}))
	t.Cleanup(ps.srv.Close)
	return ps
}

func (ps *pushServer) url() string {
	return "ws" + strings.TrimPrefix(ps.srv.URL, "http") + "/events"
}

func (ps *pushServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-ps.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("client never connected")
		return nil
	}
}

func send(t *testing.T, conn *websocket.Conn, ev Event) {
	t.Helper()
	data, err := Encode(ev)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestClientDeliversEvents(t *testing.T) {
	ps := newPushServer(t)
	loop := eventloop.New(clockwork.NewFakeClock(), 16)
	defer loop.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := NewClient(Config{URL: ps.url()}, loop)
	var got []Event
	for _, k := range []Kind{KindInit, KindUsers, KindFeed, KindChat} {
		c.Handle(k, func(ev Event) { got = append(got, ev) })
	}

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(runCtx)
	}()

	conn := ps.accept(t)
	defer conn.Close()

	send(t, conn, InitEvent{})
	send(t, conn, UsersEvent{Users: UserMap{{ID: "ana_b", Name: "Ana B.", XP: 40}}})
	send(t, conn, FeedEvent{})
	send(t, conn, ChatEvent{})
	for i := 0; i < 4; i++ {
		require.NoError(t, loop.RunOne(ctx))
	}

	require.Len(t, got, 4)
	assert.Equal(t, KindInit, got[0].Kind())
	assert.Equal(t, 40, got[1].(UsersEvent).Users[0].XP)
	assert.Equal(t, KindFeed, got[2].Kind())
	assert.Equal(t, KindChat, got[3].Kind())

	stop()
	<-done
}

func TestClientReconnectsOnceAfterDelay(t *testing.T) {
	ps := newPushServer(t)
	clock := clockwork.NewFakeClock()
	loop := eventloop.New(clock, 16)
	defer loop.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := NewClient(Config{URL: ps.url(), Clock: clock, ReconnectDelay: 3 * time.Second}, loop)
	var users []UsersEvent
	var inits int
	c.Handle(KindUsers, func(ev Event) { users = append(users, ev.(UsersEvent)) })
	c.Handle(KindInit, func(Event) { inits++ })

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(runCtx)
	}()

	first := ps.accept(t)
	send(t, first, UsersEvent{Users: UserMap{{ID: "a", Name: "A", XP: 1}}})
	require.NoError(t, loop.RunOne(ctx))
	require.Len(t, users, 1)

	// This event is queued by the first connection right before it breaks.
	send(t, first, UsersEvent{Users: UserMap{{ID: "a", Name: "A", XP: 999}}})
	first.Close()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.EqualValues(t, 1, c.Dials(), "no redial before the delay elapses")
	assert.Zero(t, c.Generation())

	require.NoError(t, loop.RunOne(ctx))
	assert.Len(t, users, 1, "event from the torn-down connection is dropped")

	clock.Advance(3 * time.Second)
	second := ps.accept(t)
	defer second.Close()
	assert.EqualValues(t, 2, c.Dials())

	send(t, second, InitEvent{})
	require.NoError(t, loop.RunOne(ctx))
	assert.Equal(t, 1, inits)

	select {
	case extra := <-ps.conns:
		extra.Close()
		t.Fatal("client dialed more than once")
	case <-time.After(100 * time.Millisecond):
	}

	stop()
	<-done
	assert.EqualValues(t, 2, c.Dials())
}

func TestClientRetriesWhenAuthorityIsDown(t *testing.T) {
	ps := newPushServer(t)
	url := ps.url()
	ps.srv.Close()

	clock := clockwork.NewFakeClock()
	loop := eventloop.New(clock, 4)
	defer loop.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := NewClient(Config{URL: url, Clock: clock}, loop)
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(runCtx)
	}()

	for i := 1; i <= 3; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		assert.EqualValues(t, i, c.Dials())
		clock.Advance(3 * time.Second)
	}

	stop()
	<-done
}
