package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/fluencyrush/go/clients/authority_client"
	"github.com/mcdev12/fluencyrush/go/internal/eventloop"
	"github.com/mcdev12/fluencyrush/go/internal/game"
	"github.com/mcdev12/fluencyrush/go/internal/stream"
	"github.com/mcdev12/fluencyrush/go/internal/ui"
)

const loopBuffer = 256

// runPlay starts the terminal client. Logs go to a file so the UI owns the terminal.
func runPlay(ctx context.Context, cfg *Config) error {
	logFile, err := os.OpenFile(cfg.Client.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	setupLogging(logFile, cfg.LogLevel, false)

	log.Info().
		Str("authority_url", cfg.Client.AuthorityURL).
		Str("push_url", cfg.Client.PushURL).
		Msg("starting client")

	clock := clockwork.NewRealClock()
	loop := eventloop.New(clock, loopBuffer)

	api := authority_client.NewAuthorityClient(cfg.Client.AuthorityURL)
	api.SetTimeout(cfg.Client.RequestTimeout)

	streamCfg := stream.DefaultConfig(cfg.Client.PushURL)
	streamCfg.ReconnectDelay = cfg.Client.ReconnectDelay
	streamCfg.Clock = clock
	sub := stream.NewClient(streamCfg, loop)

	publisher := ui.NewPublisher()
	app := game.New(loop, api, sub, game.Options{
		QuestionsFile:  cfg.Client.QuestionsFile,
		RequestTimeout: cfg.Client.RequestTimeout,
		PresenceSeed:   time.Now().UnixNano(),
		OnChange:       publisher.Publish,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(ui.NewModel(ctx, app), tea.WithAltScreen(), tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Run(gctx)
	})
	g.Go(func() error {
		return publisher.Forward(gctx, program.Send)
	})
	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info().Err(err).Msg("client stopped")
	return err
}

// runReset calls the authority's development reset endpoint.
func runReset(ctx context.Context, cfg *Config) error {
	setupLogging(os.Stderr, cfg.LogLevel, true)

	api := authority_client.NewAuthorityClient(cfg.Client.AuthorityURL)
	api.SetTimeout(cfg.Client.RequestTimeout)
	if err := api.Reset(ctx); err != nil {
		return err
	}
	log.Info().Str("authority_url", cfg.Client.AuthorityURL).Msg("authority state reset")
	return nil
}
