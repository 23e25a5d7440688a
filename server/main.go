package main

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/buildgrid/cpm"
	"github.com/buildgrid/cpm/postgres"
)

func main() {
	cfg := loadConfig()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	var store cpm.Store = postgres.New(pool)

	app := newApp(store, logger, cfg)

	logger.Info("starting scheduling service", "addr", cfg.Addr, "environment", cfg.Environment)
	log.Fatal(app.Listen(cfg.Addr))
}
