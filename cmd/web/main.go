package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/op-bracket-engine/internal/config"
	"github.com/AdamBeresnev/op-bracket-engine/internal/db"
	"github.com/AdamBeresnev/op-bracket-engine/internal/live"
	"github.com/AdamBeresnev/op-bracket-engine/internal/service"
	"github.com/AdamBeresnev/op-bracket-engine/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	logger.Info("configuration loaded", "port", cfg.ServerPort)

	entityStore, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	hub := live.NewHub(logger, cfg.AllowedOrigins)

	engine := service.NewEngine(entityStore, service.EngineConfig{
		Logger:              logger,
		Publisher:           hub,
		DefaultPointsPerWin: cfg.DefaultPointsPerWin,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      newRouter(engine, hub, logger, cfg.AllowedOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server starting", "address", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			_ = server.Close()
		}
	}
	logger.Info("server stopped")
}

// openStore picks the entity store from DATABASE_URL: "memory" keeps
// everything in process, anything else is opened and migrated as SQL.
func openStore(cfg *config.Config, logger *slog.Logger) (service.EntityStore, func() error, error) {
	if cfg.DatabaseURL == config.MemoryDatabase {
		logger.Warn("using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), func() error { return nil }, nil
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(database); err != nil {
		database.Close()
		return nil, nil, err
	}
	logger.Info("database ready", "driver", database.DriverName())

	return store.NewTournamentStore(database), database.Close, nil
}
