package postgres

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS fluency_users (
    seq        BIGSERIAL,
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    xp         INTEGER NOT NULL DEFAULT 0 CHECK (xp >= 0),
    streak     INTEGER NOT NULL DEFAULT 1,
    joined_at  BIGINT NOT NULL,
    last_seen  BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS fluency_feed (
    seq    BIGSERIAL PRIMARY KEY,
    name   TEXT NOT NULL,
    action TEXT NOT NULL,
    xp     INTEGER NOT NULL DEFAULT 0,
    ts     BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS fluency_chat (
    seq  BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    text TEXT NOT NULL,
    ts   BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS fluency_xp_keys (
    key        TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (q *Queries) CreateSchema(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, schema)
	return err
}

type User struct {
	ID       string
	Name     string
	XP       int32
	Streak   int32
	JoinedAt int64
	LastSeen int64
}

const getUserForUpdate = `
SELECT id, name, xp, streak, joined_at, last_seen FROM fluency_users WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetUserForUpdate(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserForUpdate, id)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.XP, &u.Streak, &u.JoinedAt, &u.LastSeen)
	return u, err
}

type InsertUserParams struct {
	ID   string
	Name string
	Now  int64
}

const insertUser = `
INSERT INTO fluency_users (id, name, xp, streak, joined_at, last_seen)
VALUES ($1, $2, 0, 1, $3, $3)
ON CONFLICT (id) DO NOTHING
RETURNING id, name, xp, streak, joined_at, last_seen
`

// InsertUser returns sql.ErrNoRows when the user already exists.
func (q *Queries) InsertUser(ctx context.Context, arg InsertUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, insertUser, arg.ID, arg.Name, arg.Now)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.XP, &u.Streak, &u.JoinedAt, &u.LastSeen)
	return u, err
}

type TouchUserParams struct {
	ID   string
	Name sql.NullString
	Now  int64
}

const touchUser = `
UPDATE fluency_users SET last_seen = $3, name = COALESCE($2, name)
WHERE id = $1
RETURNING id, name, xp, streak, joined_at, last_seen
`

func (q *Queries) TouchUser(ctx context.Context, arg TouchUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, touchUser, arg.ID, arg.Name, arg.Now)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.XP, &u.Streak, &u.JoinedAt, &u.LastSeen)
	return u, err
}

const claimXPKey = `
INSERT INTO fluency_xp_keys (key) VALUES ($1) ON CONFLICT (key) DO NOTHING
`

// ClaimXPKey reports whether key was not seen before.
func (q *Queries) ClaimXPKey(ctx context.Context, key string) (bool, error) {
	res, err := q.db.ExecContext(ctx, claimXPKey, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

type AddUserXPParams struct {
	ID     string
	Amount int32
}

const addUserXP = `
UPDATE fluency_users SET xp = xp + $2 WHERE id = $1
RETURNING id, name, xp, streak, joined_at, last_seen
`

func (q *Queries) AddUserXP(ctx context.Context, arg AddUserXPParams) (User, error) {
	row := q.db.QueryRowContext(ctx, addUserXP, arg.ID, arg.Amount)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.XP, &u.Streak, &u.JoinedAt, &u.LastSeen)
	return u, err
}

const listUsers = `
SELECT id, name, xp, streak, joined_at, last_seen FROM fluency_users ORDER BY seq
`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.XP, &u.Streak, &u.JoinedAt, &u.LastSeen); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

type FeedItem struct {
	Name   string
	Action string
	XP     int32
	TS     int64
}

const insertFeedItem = `
INSERT INTO fluency_feed (name, action, xp, ts) VALUES ($1, $2, $3, $4)
`

func (q *Queries) InsertFeedItem(ctx context.Context, arg FeedItem) error {
	_, err := q.db.ExecContext(ctx, insertFeedItem, arg.Name, arg.Action, arg.XP, arg.TS)
	return err
}

const trimFeed = `
DELETE FROM fluency_feed WHERE seq <= (
    SELECT seq FROM fluency_feed ORDER BY seq DESC OFFSET $1 LIMIT 1
)
`

func (q *Queries) TrimFeed(ctx context.Context, keep int32) error {
	_, err := q.db.ExecContext(ctx, trimFeed, keep)
	return err
}

const listRecentFeed = `
SELECT name, action, xp, ts FROM (
    SELECT seq, name, action, xp, ts FROM fluency_feed ORDER BY seq DESC LIMIT $1
) recent ORDER BY seq
`

func (q *Queries) ListRecentFeed(ctx context.Context, limit int32) ([]FeedItem, error) {
	rows, err := q.db.QueryContext(ctx, listRecentFeed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FeedItem
	for rows.Next() {
		var i FeedItem
		if err := rows.Scan(&i.Name, &i.Action, &i.XP, &i.TS); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type ChatMessage struct {
	Name string
	Text string
	TS   int64
}

const insertChatMessage = `
INSERT INTO fluency_chat (name, text, ts) VALUES ($1, $2, $3)
`

func (q *Queries) InsertChatMessage(ctx context.Context, arg ChatMessage) error {
	_, err := q.db.ExecContext(ctx, insertChatMessage, arg.Name, arg.Text, arg.TS)
	return err
}

const trimChat = `
DELETE FROM fluency_chat WHERE seq <= (
    SELECT seq FROM fluency_chat ORDER BY seq DESC OFFSET $1 LIMIT 1
)
`

func (q *Queries) TrimChat(ctx context.Context, keep int32) error {
	_, err := q.db.ExecContext(ctx, trimChat, keep)
	return err
}

const listRecentChat = `
SELECT name, text, ts FROM (
    SELECT seq, name, text, ts FROM fluency_chat ORDER BY seq DESC LIMIT $1
) recent ORDER BY seq
`

func (q *Queries) ListRecentChat(ctx context.Context, limit int32) ([]ChatMessage, error) {
	rows, err := q.db.QueryContext(ctx, listRecentChat, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.Name, &m.Text, &m.TS); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const pruneXPKeys = `
DELETE FROM fluency_xp_keys WHERE created_at < now() - $1::interval
`

func (q *Queries) PruneXPKeys(ctx context.Context, olderThan string) error {
	_, err := q.db.ExecContext(ctx, pruneXPKeys, olderThan)
	return err
}

const truncateAll = `
TRUNCATE fluency_users, fluency_feed, fluency_chat, fluency_xp_keys RESTART IDENTITY
`

func (q *Queries) TruncateAll(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, truncateAll)
	return err
}
