package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fluencyrush/go/internal/authority"
	"github.com/mcdev12/fluencyrush/go/internal/authority/broadcast"
	"github.com/mcdev12/fluencyrush/go/internal/authority/postgres"
)

const keyPruneInterval = time.Hour

type Services struct {
	App     *authority.App
	Hub     *authority.Hub
	Service *authority.Service
	Health  *authority.HealthChecker

	bridge *broadcast.Bridge
	db     *sql.DB
}

// setupServices wires store → app → hub → service, with the optional
// Postgres store and NATS bridge.
func setupServices(ctx context.Context, cfg AuthorityConfig) (*Services, error) {
	s := &Services{}

	var store authority.Store
	switch cfg.Store {
	case storePostgres:
		database, err := setupDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		pg := postgres.NewStore(database)
		if err := pg.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, err
		}
		go pg.RunPruner(ctx, keyPruneInterval)
		s.db = database
		store = pg
	default:
		store = authority.NewMemoryStore()
	}

	s.App = authority.NewApp(store, nil, clockwork.NewRealClock(), cfg.QuestionsFile)
	s.Hub = authority.NewHub(authority.DefaultHubConfig(), s.App.Snapshot)
	s.App.SetPublisher(s.Hub)

	var natsStatus authority.ConnStatus
	if cfg.NATSURL != "" {
		bridge, err := broadcast.Connect(broadcast.DefaultConfig(cfg.NATSURL), s.Hub)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to start NATS bridge: %w", err)
		}
		s.bridge = bridge
		s.App.SetPublisher(bridge)
		natsStatus = bridge
	}

	s.Service = authority.NewService(s.App, s.Hub)
	s.Health = authority.NewHealthChecker(s.App, s.Hub, natsStatus)

	log.Info().
		Str("store", cfg.Store).
		Bool("nats", s.bridge != nil).
		Bool("questions_file", cfg.QuestionsFile != "").
		Msg("authority services ready")
	return s, nil
}

func (s *Services) Close() {
	if s.Hub != nil {
		s.Hub.Close()
	}
	if s.bridge != nil {
		s.bridge.Close()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}
}
