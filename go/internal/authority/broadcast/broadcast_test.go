package broadcast

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/fluencyrush/go/internal/models"
	"github.com/mcdev12/fluencyrush/go/internal/stream"
)

type recorder struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (r *recorder) Deliver(msg []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) events(t *testing.T) []stream.Event {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []stream.Event
	for _, m := range r.msgs {
		ev, err := stream.Decode(m)
		require.NoError(t, err)
		out = append(out, ev)
	}
	return out
}

func relayed(t *testing.T, origin string, ev stream.Event) *nats.Msg {
	t.Helper()
	data, err := stream.Encode(ev)
	require.NoError(t, err)
	msg := &nats.Msg{Subject: "fluency.events", Header: nats.Header{}, Data: data}
	msg.Header.Set(OriginHeader, origin)
	return msg
}

func TestHandleSkipsOwnMessages(t *testing.T) {
	rec := &recorder{}
	b := newBridge(DefaultConfig(""), rec)

	b.handle(relayed(t, b.origin, stream.ChatEvent{}))
	assert.Empty(t, rec.events(t))

	b.handle(relayed(t, "other-instance", stream.ChatEvent{Messages: []models.ChatMessage{{Name: "Ana", Text: "oi"}}}))
	evs := rec.events(t)
	require.Len(t, evs, 1)
	chat, ok := evs[0].(stream.ChatEvent)
	require.True(t, ok)
	assert.Equal(t, "oi", chat.Messages[0].Text)
}

func TestHandleDropsMalformed(t *testing.T) {
	rec := &recorder{}
	b := newBridge(DefaultConfig(""), rec)

	b.handle(&nats.Msg{Subject: "fluency.events", Header: nats.Header{}, Data: []byte(`{"event":"bogus","data":1}`)})
	assert.Empty(t, rec.events(t))
}

// Set FLUENCY_TEST_NATS_URL to run against a real server.
func TestBridgeRelaysBetweenInstances(t *testing.T) {
	url := os.Getenv("FLUENCY_TEST_NATS_URL")
	if url == "" {
		t.Skip("FLUENCY_TEST_NATS_URL not set")
	}

	cfg := DefaultConfig(url)
	cfg.Subject = "fluency.test." + time.Now().Format("150405.000000")

	a, b := &recorder{}, &recorder{}
	left, err := Connect(cfg, a)
	require.NoError(t, err)
	defer left.Close()
	right, err := Connect(cfg, b)
	require.NoError(t, err)
	defer right.Close()
	require.True(t, left.IsConnected())

	require.NoError(t, left.Publish(stream.FeedEvent{Items: []models.FeedItem{{Name: "Ana", Action: "joined", TS: 1}}}))

	assert.Len(t, a.events(t), 1, "publisher delivers locally once")
	require.Eventually(t, func() bool { return len(b.events(t)) == 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, a.events(t), 1, "own relay is not delivered twice")
}
