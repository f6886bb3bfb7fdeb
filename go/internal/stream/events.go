package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcdev12/fluencyrush/go/internal/models"
)

// Kind names a push-channel event.
type Kind string

const (
	KindInit  Kind = "init"
	KindUsers Kind = "users"
	KindFeed  Kind = "feed"
	KindChat  Kind = "chat"
)

// Envelope is the wire format of every push-channel message.
type Envelope struct {
	Event Kind            `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Event is one decoded push-channel event. The concrete types are
// InitEvent, UsersEvent, FeedEvent and ChatEvent.
type Event interface {
	Kind() Kind
}

// InitEvent is the full snapshot sent on connect and on reset.
type InitEvent struct {
	Users UserMap              `json:"users"`
	Feed  []models.FeedItem    `json:"feed"`
	Chat  []models.ChatMessage `json:"chat"`
}

// UsersEvent replaces the user map.
type UsersEvent struct {
	Users UserMap
}

// FeedEvent replaces the feed list.
type FeedEvent struct {
	Items []models.FeedItem
}

// ChatEvent replaces the chat list.
type ChatEvent struct {
	Messages []models.ChatMessage
}

func (InitEvent) Kind() Kind  { return KindInit }
func (UsersEvent) Kind() Kind { return KindUsers }
func (FeedEvent) Kind() Kind  { return KindFeed }
func (ChatEvent) Kind() Kind  { return KindChat }

var decoders = map[Kind]func(json.RawMessage) (Event, error){
	KindInit: func(data json.RawMessage) (Event, error) {
		var ev InitEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	},
	KindUsers: func(data json.RawMessage) (Event, error) {
		var users UserMap
		if err := json.Unmarshal(data, &users); err != nil {
			return nil, err
		}
		return UsersEvent{Users: users}, nil
	},
	KindFeed: func(data json.RawMessage) (Event, error) {
		var items []models.FeedItem
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return FeedEvent{Items: items}, nil
	},
	KindChat: func(data json.RawMessage) (Event, error) {
		var msgs []models.ChatMessage
		if err := json.Unmarshal(data, &msgs); err != nil {
			return nil, err
		}
		return ChatEvent{Messages: msgs}, nil
	},
}

// ErrUnknownKind is wrapped by Decode for envelopes with an unrecognized event name.
var ErrUnknownKind = errors.New("unknown event kind")

// Decode parses one push-channel message.
func Decode(message []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	decode, ok := decoders[env.Event]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Event)
	}
	ev, err := decode(env.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", env.Event, err)
	}
	return ev, nil
}

// Encode builds the wire message for an event.
func Encode(ev Event) ([]byte, error) {
	var payload any
	switch e := ev.(type) {
	case InitEvent:
		payload = InitEvent{Users: e.Users, Feed: nonNil(e.Feed), Chat: nonNil(e.Chat)}
	case UsersEvent:
		payload = e.Users
	case FeedEvent:
		payload = nonNil(e.Items)
	case ChatEvent:
		payload = nonNil(e.Messages)
	default:
		return nil, fmt.Errorf("cannot encode event %T", ev)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", ev.Kind(), err)
	}
	return json.Marshal(Envelope{Event: ev.Kind(), Data: data})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// UserMap is the authority's user map, keyed by user id. It keeps the
// order the authority sent so that ranking ties stay stable.
type UserMap []models.User

// Find returns the user with the given id.
func (m UserMap) Find(id string) (models.User, bool) {
	for _, u := range m {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

// MarshalJSON encodes the users as a JSON object keyed by id, in slice order.
func (m UserMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, u := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(u.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(u)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of users keeping key order.
// A record without an id takes its key.
func (m *UserMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("users: expected object, got %v", tok)
	}

	users := UserMap{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("users: expected key, got %v", tok)
		}
		var u models.User
		if err := dec.Decode(&u); err != nil {
			return fmt.Errorf("users[%s]: %w", key, err)
		}
		if u.ID == "" {
			u.ID = key
		}
		users = append(users, u)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = users
	return nil
}
