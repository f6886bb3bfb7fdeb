package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
)

func runAuthority(ctx context.Context, cfg *Config) error {
	setupLogging(os.Stderr, cfg.LogLevel, true)

	services, err := setupServices(ctx, cfg.Authority)
	if err != nil {
		return err
	}
	defer services.Close()

	server := setupServer(cfg.Authority, services)

	log.Info().
		Str("port", cfg.Authority.Port).
		Str("store", cfg.Authority.Store).
		Msg("fluency authority started")

	if err := serve(ctx, server); err != nil {
		return err
	}
	log.Info().Msg("fluency authority shutdown complete")
	return nil
}
