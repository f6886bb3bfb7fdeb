package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/fluencyrush/go/internal/dbconfig"
	"github.com/mcdev12/fluencyrush/go/internal/stream"
)

// Imports a JSON snapshot shaped like the push-channel init payload
// ({"users": {id: {...}}, "feed": [...], "chat": [...]}) into Postgres.
// Run the authority with STORE=postgres once first so the tables exist.
func main() {
	path := "data/db.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the JSON snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var snap stream.InitEvent
	if err := json.Unmarshal(data, &snap); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Insert users, skipping existing ids
	now := time.Now().UnixMilli()
	var inserted, skipped, errs int
	for _, u := range snap.Users {
		joined, seen := u.JoinedAt, u.LastSeen
		if joined == 0 {
			joined = now
		}
		if seen == 0 {
			seen = joined
		}
		streak := u.Streak
		if streak == 0 {
			streak = 1
		}
		name := u.Name
		if name == "" {
			name = u.ID
		}

		cmdTag, err := pool.Exec(ctx, `
            INSERT INTO fluency_users (id, name, xp, streak, joined_at, last_seen)
            VALUES ($1, $2, $3, $4, $5, $6)
            ON CONFLICT (id) DO NOTHING
        `, u.ID, name, max(u.XP, 0), streak, joined, seen)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting user %s: %v\n", u.ID, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	// 4) Append feed and chat history
	var feedRows, chatRows int
	for _, f := range snap.Feed {
		if _, err := pool.Exec(ctx,
			`INSERT INTO fluency_feed (name, action, xp, ts) VALUES ($1, $2, $3, $4)`,
			f.Name, f.Action, f.XP, f.TS,
		); err != nil {
			fmt.Fprintf(os.Stderr, "error inserting feed item: %v\n", err)
			errs++
			continue
		}
		feedRows++
	}
	for _, m := range snap.Chat {
		if _, err := pool.Exec(ctx,
			`INSERT INTO fluency_chat (name, text, ts) VALUES ($1, $2, $3)`,
			m.Name, m.Text, m.TS,
		); err != nil {
			fmt.Fprintf(os.Stderr, "error inserting chat message: %v\n", err)
			errs++
			continue
		}
		chatRows++
	}

	// 5) Print summary
	fmt.Printf(
		"Users seed complete: %d users (%d inserted, %d skipped), %d feed items, %d chat messages, %d errors\n",
		len(snap.Users), inserted, skipped, feedRows, chatRows, errs,
	)
}
