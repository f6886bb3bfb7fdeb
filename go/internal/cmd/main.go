package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	config     *Config
)

var rootCmd = &cobra.Command{
	Use:   "fluency",
	Short: "Fluency Rush - multiplayer English practice in the terminal",
	Long: `Fluency Rush is a gamified English practice client.

Players log in with a display name, answer timed quizzes, review vocabulary and
chat, while XP, the shared activity feed and the ranking update live from the
authority server.

Run without arguments to start playing.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Debug().Err(err).Msg("could not load .env file")
		}
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
		config = cfg
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd.Context(), config)
	},
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start the terminal client",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd.Context(), config)
	},
}

var authorityCmd = &cobra.Command{
	Use:   "authority",
	Short: "Run the reference authority server",
	Long: `Runs the server that owns users, the activity feed and the chat.

STORE selects the backend (memory or postgres, configured with DB_*).
NATS_URL enables event fan-out between several authority processes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthority(cmd.Context(), config)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe the authority's users, feed and chat (development only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReset(cmd.Context(), config)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(authorityCmd)
	rootCmd.AddCommand(resetCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
