package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aardvark-games/college-cup/internal/bracket"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type OAuthProvider struct {
	Key         string
	Secret      string
	CallbackURL string
}

type Config struct {
	Addr string

	DBDriver       string
	DatabaseURL    string
	MigrationsPath string

	WinningScore int
	Seeding      bracket.Seeding

	// Cron spec for the repair pass, empty when disabled
	RepairSchedule string

	SessionLifetime     time.Duration
	CORSOrigins         []string
	ResultRatePerMinute int
	SentryDSN           string
	LogLevel            slog.Level

	Discord OAuthProvider
	Google  OAuthProvider
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults for
// anything unset.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Addr:           get("ADDR", ":8080"),
		DBDriver:       get("DB_DRIVER", "sqlite3"),
		DatabaseURL:    get("DATABASE_URL", "tournament.db?_journal_mode=WAL"),
		MigrationsPath: get("MIGRATIONS_PATH", "migrations"),
		RepairSchedule: get("REPAIR_SCHEDULE", "@every 5m"),
		SentryDSN:      get("SENTRY_DSN", ""),
		Discord: OAuthProvider{
			Key:         getenv("DISCORD_KEY"),
			Secret:      getenv("DISCORD_SECRET"),
			CallbackURL: getenv("DISCORD_CALLBACK_URL"),
		},
		Google: OAuthProvider{
			Key:         getenv("GOOGLE_KEY"),
			Secret:      getenv("GOOGLE_SECRET"),
			CallbackURL: getenv("GOOGLE_CALLBACK_URL"),
		},
	}
	if strings.EqualFold(cfg.RepairSchedule, "off") {
		cfg.RepairSchedule = ""
	}
	if cfg.RepairSchedule != "" {
		if _, err := cron.ParseStandard(cfg.RepairSchedule); err != nil {
			return nil, fmt.Errorf("invalid REPAIR_SCHEDULE: %w", err)
		}
	}

	switch cfg.DBDriver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	var err error
	if cfg.WinningScore, err = strconv.Atoi(get("WINNING_SCORE", "3")); err != nil {
		return nil, fmt.Errorf("invalid WINNING_SCORE: %w", err)
	}
	if cfg.WinningScore < 1 {
		return nil, fmt.Errorf("WINNING_SCORE must be at least 1, got %d", cfg.WinningScore)
	}

	if cfg.Seeding, err = bracket.ParseSeeding(get("BYE_SEEDING", string(bracket.SeedSequential))); err != nil {
		return nil, fmt.Errorf("invalid BYE_SEEDING: %w", err)
	}

	if cfg.SessionLifetime, err = time.ParseDuration(get("SESSION_LIFETIME", "24h")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_LIFETIME: %w", err)
	}

	if cfg.ResultRatePerMinute, err = strconv.Atoi(get("RESULT_RATE_PER_MINUTE", "60")); err != nil {
		return nil, fmt.Errorf("invalid RESULT_RATE_PER_MINUTE: %w", err)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	for _, origin := range strings.Split(getenv("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	return cfg, nil
}
