// Package postgres is the database/sql + lib/pq backend of the authority store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fluencyrush/go/internal/authority"
	"github.com/mcdev12/fluencyrush/go/internal/models"
	"github.com/mcdev12/fluencyrush/go/internal/sqlutil"
)

// KeyRetention is how long applied idempotency keys are remembered.
const KeyRetention = 24 * time.Hour

// Store implements authority.Store on Postgres.
type Store struct {
	db *sql.DB
	q  *Queries
}

var _ authority.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{
		db: db,
		q:  New(db),
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.q.CreateSchema(ctx); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *Store) UpsertUser(ctx context.Context, id, name string, nowMillis int64) (models.User, bool, error) {
	var (
		row     User
		created bool
	)
	err := sqlutil.Run(ctx, s.db, txQueries, func(q *Queries) error {
		insertName := name
		if insertName == "" {
			insertName = id
		}
		u, err := q.InsertUser(ctx, InsertUserParams{ID: id, Name: insertName, Now: nowMillis})
		if err == nil {
			row, created = u, true
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		u, err = q.TouchUser(ctx, TouchUserParams{
			ID:   id,
			Name: sql.NullString{String: name, Valid: name != ""},
			Now:  nowMillis,
		})
		if err != nil {
			return err
		}
		row = u
		return nil
	})
	if err != nil {
		return models.User{}, false, fmt.Errorf("failed to upsert user: %w", err)
	}
	return toModelUser(row), created, nil
}

func (s *Store) AddXP(ctx context.Context, id string, amount int, key string) (models.User, error) {
	if amount < 0 {
		return models.User{}, authority.ErrNegativeXP
	}
	if amount > authority.MaxXPAmount {
		return models.User{}, authority.ErrXPTooLarge
	}

	var row User
	err := sqlutil.Run(ctx, s.db, txQueries, func(q *Queries) error {
		u, err := q.GetUserForUpdate(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return authority.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		row = u

		if key != "" {
			fresh, err := q.ClaimXPKey(ctx, key)
			if err != nil {
				return err
			}
			if !fresh {
				return nil
			}
		}

		row, err = q.AddUserXP(ctx, AddUserXPParams{ID: id, Amount: int32(amount)})
		return err
	})
	if err != nil {
		return models.User{}, err
	}
	return toModelUser(row), nil
}

func (s *Store) Users(ctx context.Context) ([]models.User, error) {
	rows, err := s.q.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]models.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, toModelUser(r))
	}
	return users, nil
}

func (s *Store) AppendFeed(ctx context.Context, item models.FeedItem) error {
	return sqlutil.Run(ctx, s.db, txQueries, func(q *Queries) error {
		if err := q.InsertFeedItem(ctx, FeedItem{Name: item.Name, Action: item.Action, XP: int32(item.XP), TS: item.TS}); err != nil {
			return fmt.Errorf("failed to insert feed item: %w", err)
		}
		return q.TrimFeed(ctx, authority.FeedCap)
	})
}

func (s *Store) Feed(ctx context.Context, limit int) ([]models.FeedItem, error) {
	if limit <= 0 {
		limit = authority.FeedCap
	}
	rows, err := s.q.ListRecentFeed(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}
	items := make([]models.FeedItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, models.FeedItem{Name: r.Name, Action: r.Action, XP: int(r.XP), TS: r.TS})
	}
	return items, nil
}

func (s *Store) AppendChat(ctx context.Context, msg models.ChatMessage) error {
	return sqlutil.Run(ctx, s.db, txQueries, func(q *Queries) error {
		if err := q.InsertChatMessage(ctx, ChatMessage{Name: msg.Name, Text: msg.Text, TS: msg.TS}); err != nil {
			return fmt.Errorf("failed to insert chat message: %w", err)
		}
		return q.TrimChat(ctx, authority.ChatCap)
	})
}

func (s *Store) Chat(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = authority.ChatCap
	}
	rows, err := s.q.ListRecentChat(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list chat: %w", err)
	}
	msgs := make([]models.ChatMessage, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, models.ChatMessage{Name: r.Name, Text: r.Text, TS: r.TS})
	}
	return msgs, nil
}

func (s *Store) Reset(ctx context.Context) error {
	if err := s.q.TruncateAll(ctx); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// PruneKeys forgets idempotency keys older than KeyRetention.
func (s *Store) PruneKeys(ctx context.Context) error {
	if err := s.q.PruneXPKeys(ctx, fmt.Sprintf("%d seconds", int(KeyRetention.Seconds()))); err != nil {
		return fmt.Errorf("failed to prune xp keys: %w", err)
	}
	return nil
}

// RunPruner calls PruneKeys every interval until ctx is done.
func (s *Store) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.PruneKeys(ctx); err != nil {
				log.Warn().Err(err).Msg("idempotency key pruning failed")
			}
		}
	}
}

func txQueries(tx *sql.Tx) *Queries {
	return New(tx)
}

func toModelUser(u User) models.User {
	return models.User{
		ID:       u.ID,
		Name:     u.Name,
		XP:       int(u.XP),
		Streak:   int(u.Streak),
		JoinedAt: u.JoinedAt,
		LastSeen: u.LastSeen,
	}
}
