// Package authority is a reference implementation of the server that owns the
// shared users, feed and chat and broadcasts them over the push channel.
package authority

import (
	"context"
	"errors"
	"math"

	"github.com/mcdev12/fluencyrush/go/internal/models"
)

const (
	FeedCap        = 200
	ChatCap        = 300
	FeedBroadcast  = 20
	ChatBroadcast  = 40
	FeedReadLimit  = 50
	ChatReadLimit  = 60
	ChatTextLimit  = 300
	IdempotencyCap = 10000
	MaxXPAmount    = math.MaxInt32
)

var (
	// ErrUserNotFound is returned when adding XP to an unknown user.
	ErrUserNotFound = errors.New("user not found")
	// ErrNegativeXP is returned for a negative XP amount.
	ErrNegativeXP = errors.New("xp amount must be non-negative")
	// ErrXPTooLarge is returned for an XP amount above MaxXPAmount.
	ErrXPTooLarge = errors.New("xp amount too large")
	// ErrNoQuestionsConfig is returned when no questions file is configured.
	ErrNoQuestionsConfig = errors.New("no questions config")
)

// Store persists the shared state. Users are returned in registration order.
type Store interface {
	// UpsertUser creates the user or refreshes its name and last-seen time.
	UpsertUser(ctx context.Context, id, name string, nowMillis int64) (user models.User, created bool, err error)
	// AddXP adds amount to the user's XP. A key already applied is a no-op.
	AddXP(ctx context.Context, id string, amount int, key string) (models.User, error)
	Users(ctx context.Context) ([]models.User, error)
	AppendFeed(ctx context.Context, item models.FeedItem) error
	Feed(ctx context.Context, limit int) ([]models.FeedItem, error)
	AppendChat(ctx context.Context, msg models.ChatMessage) error
	Chat(ctx context.Context, limit int) ([]models.ChatMessage, error)
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
}
