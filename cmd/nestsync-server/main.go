package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata"

	nestsync "github.com/goliatone/go-nestsync"
	"github.com/goliatone/go-nestsync/internal/di"
	"github.com/goliatone/go-nestsync/internal/migrations"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	cfg := nestsync.ConfigFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bunDB, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer bunDB.Close()

	ran, err := migrations.Apply(ctx, bunDB, nestsync.GetMigrationsFS())
	if err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	module, err := nestsync.New(cfg, di.WithBunDB(bunDB))
	if err != nil {
		log.Fatalf("initialise nestsync: %v", err)
	}
	defer module.Close()

	if err := module.Bootstrap(ctx); err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	logger := module.Container().LoggerProvider().GetLogger("server")
	if len(ran) > 0 {
		logger.Info("migrations applied", "count", len(ran))
	}

	handler, err := module.Handler()
	if err != nil {
		log.Fatalf("mount http api: %v", err)
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "base_path", cfg.Server.BasePath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	if worker := module.Worker(); worker != nil {
		go func() {
			if err := worker.Run(ctx, cfg.Notifications.DispatchInterval); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("worker stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

// openDatabase connects bun to the configured driver. SQLite runs with a
// single connection because the shared-cache DSN serializes writers anyway.
func openDatabase(cfg nestsync.Config) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Database.Driver)) {
	case "postgres":
		sqlDB, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		sqlDB, err := sql.Open("sqlite3", cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		db := bun.NewDB(sqlDB, sqlitedialect.New())
		db.SetMaxOpenConns(1)
		return db, nil
	}
}
