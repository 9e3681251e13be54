package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aardvark-games/college-cup/internal/config"
	"github.com/aardvark-games/college-cup/internal/db"
	"github.com/aardvark-games/college-cup/internal/middleware"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/getsentry/sentry-go"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			log.Fatal("Failed to init sentry: ", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	database, err := db.InitDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB, cfg.DBDriver, cfg.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	middleware.InitAuth(cfg)

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	// Postgres deployments keep sessions in memory
	if cfg.DBDriver == "sqlite3" {
		sessionManager.Store = sqlite3store.New(database.DB)
	}

	app := newApp(cfg, database, sessionManager)

	scheduler := cron.New()
	if cfg.RepairSchedule != "" {
		if _, err := scheduler.AddFunc(cfg.RepairSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := app.matches.Repair(ctx); err != nil {
				slog.Error("scheduled repair failed", "error", err)
			}
		}); err != nil {
			log.Fatal("Invalid REPAIR_SCHEDULE: ", err)
		}
	}
	if _, err := scheduler.AddFunc("@every 10m", func() {
		app.limiter.Cleanup(30 * time.Minute)
	}); err != nil {
		log.Fatal(err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := newRouter(app)

	log.Printf("Server starting on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatal(err)
	}
}
