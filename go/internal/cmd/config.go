package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/fluencyrush/go/clients/authority_client"
	"github.com/mcdev12/fluencyrush/go/internal/dbconfig"
)

// Config is the optional YAML config file. Environment variables win over it.
type Config struct {
	Client    ClientConfig    `yaml:"client"`
	Authority AuthorityConfig `yaml:"authority"`
	LogLevel  string          `yaml:"log_level"`
}

type ClientConfig struct {
	AuthorityURL   string        `yaml:"authority_url"`
	PushURL        string        `yaml:"push_url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	QuestionsFile  string        `yaml:"questions_file"`
	LogFile        string        `yaml:"log_file"`
}

type AuthorityConfig struct {
	Port          string `yaml:"port"`
	Store         string `yaml:"store"`
	NATSURL       string `yaml:"nats_url"`
	QuestionsFile string `yaml:"questions_file"`
	Database      dbconfig.Config `yaml:"-"`
}

const (
	storeMemory   = "memory"
	storePostgres = "postgres"
)

func defaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			AuthorityURL:   authority_client.DefaultBaseURL,
			ReconnectDelay: 3 * time.Second,
			RequestTimeout: 10 * time.Second,
			LogFile:        "fluency.log",
		},
		Authority: AuthorityConfig{
			Port:  "5000",
			Store: storeMemory,
		},
		LogLevel: "info",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if ms := getEnvAsInt(key, -1); ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring malformed duration")
	}
	return defaultValue
}

// loadConfig builds the configuration: defaults, then the YAML file at path
// (if any), then environment variables.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	c := &config.Client
	c.AuthorityURL = getEnv("AUTHORITY_URL", c.AuthorityURL)
	c.PushURL = getEnv("PUSH_URL", c.PushURL)
	c.ReconnectDelay = getEnvAsDuration("RECONNECT_DELAY", c.ReconnectDelay)
	c.RequestTimeout = getEnvAsDuration("REQUEST_TIMEOUT", c.RequestTimeout)
	c.QuestionsFile = getEnv("QUESTIONS_FILE", c.QuestionsFile)
	c.LogFile = getEnv("FLUENCY_LOG_FILE", c.LogFile)
	if c.PushURL == "" {
		c.PushURL = authority_client.PushURL(c.AuthorityURL)
	}

	a := &config.Authority
	a.Port = getEnv("PORT", a.Port)
	a.Store = strings.ToLower(getEnv("STORE", a.Store))
	a.NATSURL = getEnv("NATS_URL", a.NATSURL)
	a.QuestionsFile = getEnv("QUESTIONS_FILE", a.QuestionsFile)
	a.Database = dbconfig.NewConfigFromEnv()

	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)

	if a.Store != storeMemory && a.Store != storePostgres {
		return nil, fmt.Errorf("unknown store %q (want %s or %s)", a.Store, storeMemory, storePostgres)
	}
	return config, nil
}

// setupLogging points the global logger at out. Human-readable console output
// unless out is a log file.
func setupLogging(out io.Writer, level string, console bool) {
	if console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
