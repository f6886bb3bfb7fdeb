package authority_client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mcdev12/fluencyrush/go/clients"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]any
}

func newTestServer(t *testing.T, status int, response string) (*AuthorityClient, *[]recordedRequest) {
	t.Helper()
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone()}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
		reqs = append(reqs, rec)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return NewAuthorityClient(srv.URL), &reqs
}

func TestRegisterUser(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{"ok":true,"new":true,"user":{"name":"Ana B.","xp":0,"streak":1}}`)

	resp, err := c.RegisterUser(context.Background(), "ana_b", "Ana B.")
	require.NoError(t, err)
	assert.True(t, resp.New)
	assert.Equal(t, "Ana B.", resp.User.Name)

	require.Len(t, *reqs, 1)
	got := (*reqs)[0]
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/users/ana_b", got.Path)
	assert.Equal(t, "Ana B.", got.Body["name"])
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
}

func TestAddXPSendsIdempotencyKey(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{"ok":true,"xp":15}`)

	require.NoError(t, c.AddXP(context.Background(), "ana_b", 15, "key-1"))
	require.NoError(t, c.AddXP(context.Background(), "ana_b", 5, ""))

	require.Len(t, *reqs, 2)
	assert.Equal(t, http.MethodPatch, (*reqs)[0].Method)
	assert.Equal(t, "/users/ana_b/xp", (*reqs)[0].Path)
	assert.EqualValues(t, 15, (*reqs)[0].Body["amount"])
	assert.Equal(t, "key-1", (*reqs)[0].Header.Get(IdempotencyKeyHeader))
	assert.NotEmpty(t, (*reqs)[1].Header.Get(IdempotencyKeyHeader))
}

func TestAddXPRejectsNegative(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{}`)
	assert.Error(t, c.AddXP(context.Background(), "ana_b", -1, ""))
	assert.Empty(t, *reqs)
}

func TestStatusErrorIsWrapped(t *testing.T) {
	c, _ := newTestServer(t, http.StatusNotFound, `{"error":"user not found"}`)

	err := c.AddXP(context.Background(), "ghost", 10, "")
	require.Error(t, err)

	var se *clients.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestAppendFeedAndChat(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{"ok":true}`)

	require.NoError(t, c.AppendFeed(context.Background(), "Ana", "joined", 10))
	require.NoError(t, c.SendChat(context.Background(), "Ana", "hello"))

	require.Len(t, *reqs, 2)
	assert.Equal(t, "/feed", (*reqs)[0].Path)
	assert.Equal(t, "joined", (*reqs)[0].Body["action"])
	assert.EqualValues(t, 10, (*reqs)[0].Body["xp"])
	assert.Equal(t, "/chat", (*reqs)[1].Path)
	assert.Equal(t, "hello", (*reqs)[1].Body["text"])
}

func TestPushURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:5000/events", PushURL("http://localhost:5000/"))
	assert.Equal(t, "wss://rush.example.com/events", PushURL("https://rush.example.com"))
	assert.Equal(t, "ws://localhost:5000/events", NewAuthorityClient("").EventsURL())
}
