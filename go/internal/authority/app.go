package authority

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fluencyrush/go/internal/content"
	"github.com/mcdev12/fluencyrush/go/internal/models"
	"github.com/mcdev12/fluencyrush/go/internal/stream"
)

// AnonymousName is used for feed and chat posts without a name.
const AnonymousName = "Anonymous"

// Publisher delivers a push-channel event to every subscriber.
type Publisher interface {
	Publish(ev stream.Event) error
}

// App handles the authority's business logic on top of a Store.
// Every write is followed by a broadcast of the affected collection.
type App struct {
	store         Store
	publisher     Publisher
	clock         clockwork.Clock
	questionsFile string
}

// NewApp creates a new authority App. questionsFile may be empty.
func NewApp(store Store, publisher Publisher, clock clockwork.Clock, questionsFile string) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		store:         store,
		publisher:     publisher,
		clock:         clock,
		questionsFile: questionsFile,
	}
}

// SetPublisher swaps the broadcast target. It must be called before serving.
func (a *App) SetPublisher(p Publisher) {
	a.publisher = p
}

func (a *App) now() int64 {
	return models.Millis(a.clock.Now())
}

// RegisterUser creates or refreshes a user. An empty name defaults to the id.
func (a *App) RegisterUser(ctx context.Context, id, name string) (models.User, bool, error) {
	if strings.TrimSpace(id) == "" {
		return models.User{}, false, fmt.Errorf("validation failed: user id is required")
	}

	user, created, err := a.store.UpsertUser(ctx, id, name, a.now())
	if err != nil {
		return models.User{}, false, fmt.Errorf("failed to upsert user: %w", err)
	}
	if created {
		log.Info().Str("user_id", id).Str("name", user.Name).Msg("user registered")
	}

	a.publishUsers(ctx)
	return user, created, nil
}

// AddXP credits amount to the user. A repeated key is applied once.
func (a *App) AddXP(ctx context.Context, id string, amount int, key string) (models.User, error) {
	if amount > MaxXPAmount {
		return models.User{}, ErrXPTooLarge
	}
	user, err := a.store.AddXP(ctx, id, amount, key)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to add xp: %w", err)
	}

	log.Debug().Str("user_id", id).Int("amount", amount).Int("xp", user.XP).Msg("xp added")
	a.publishUsers(ctx)
	return user, nil
}

func (a *App) Users(ctx context.Context) ([]models.User, error) {
	users, err := a.store.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// AppendFeed stamps and stores a feed entry.
func (a *App) AppendFeed(ctx context.Context, name, action string, xp int) (models.FeedItem, error) {
	if name == "" {
		name = AnonymousName
	}
	item := models.FeedItem{Name: name, Action: action, XP: xp, TS: a.now()}
	if err := a.store.AppendFeed(ctx, item); err != nil {
		return models.FeedItem{}, fmt.Errorf("failed to append feed item: %w", err)
	}

	recent, err := a.store.Feed(ctx, FeedBroadcast)
	if err != nil {
		log.Error().Err(err).Msg("failed to read feed for broadcast")
		return item, nil
	}
	a.publish(stream.FeedEvent{Items: recent})
	return item, nil
}

func (a *App) Feed(ctx context.Context) ([]models.FeedItem, error) {
	items, err := a.store.Feed(ctx, FeedReadLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}
	return items, nil
}

// AppendChat stamps and stores a chat message, cutting text at ChatTextLimit runes.
func (a *App) AppendChat(ctx context.Context, name, text string) (models.ChatMessage, error) {
	if name == "" {
		name = AnonymousName
	}
	msg := models.ChatMessage{Name: name, Text: truncateRunes(text, ChatTextLimit), TS: a.now()}
	if err := a.store.AppendChat(ctx, msg); err != nil {
		return models.ChatMessage{}, fmt.Errorf("failed to append chat message: %w", err)
	}

	recent, err := a.store.Chat(ctx, ChatBroadcast)
	if err != nil {
		log.Error().Err(err).Msg("failed to read chat for broadcast")
		return msg, nil
	}
	a.publish(stream.ChatEvent{Messages: recent})
	return msg, nil
}

func (a *App) Chat(ctx context.Context) ([]models.ChatMessage, error) {
	msgs, err := a.store.Chat(ctx, ChatReadLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat: %w", err)
	}
	return msgs, nil
}

// Reset wipes all shared state and broadcasts an empty snapshot.
func (a *App) Reset(ctx context.Context) error {
	if err := a.store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	log.Warn().Msg("authority state reset")
	a.publish(stream.InitEvent{Users: stream.UserMap{}})
	return nil
}

// Snapshot returns the full shared state sent to a new subscriber.
func (a *App) Snapshot(ctx context.Context) (stream.InitEvent, error) {
	users, err := a.store.Users(ctx)
	if err != nil {
		return stream.InitEvent{}, fmt.Errorf("failed to list users: %w", err)
	}
	feed, err := a.store.Feed(ctx, 0)
	if err != nil {
		return stream.InitEvent{}, fmt.Errorf("failed to list feed: %w", err)
	}
	chat, err := a.store.Chat(ctx, 0)
	if err != nil {
		return stream.InitEvent{}, fmt.Errorf("failed to list chat: %w", err)
	}
	return stream.InitEvent{Users: stream.UserMap(users), Feed: feed, Chat: chat}, nil
}

// QuestionsConfig returns the questions file as a JSON document.
// ErrNoQuestionsConfig is returned when no file is configured.
func (a *App) QuestionsConfig() ([]byte, error) {
	if a.questionsFile == "" {
		return nil, ErrNoQuestionsConfig
	}
	o, err := content.LoadFile(a.questionsFile)
	if err != nil {
		return nil, err
	}
	doc := content.Set{
		Blitz:      o.Blitz,
		Fill:       o.Fill,
		Vocab:      o.Vocab,
		Challenges: o.Challenges,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal questions config: %w", err)
	}
	return data, nil
}

// Ping checks the store.
func (a *App) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}

func (a *App) publishUsers(ctx context.Context) {
	users, err := a.store.Users(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to read users for broadcast")
		return
	}
	a.publish(stream.UsersEvent{Users: stream.UserMap(users)})
}

func (a *App) publish(ev stream.Event) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Publish(ev); err != nil {
		log.Error().Err(err).Str("event", string(ev.Kind())).Msg("failed to publish event")
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
