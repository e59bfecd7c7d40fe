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

	"catnipgarden/internal/advisor"
	"catnipgarden/internal/api"
	"catnipgarden/internal/auth"
	"catnipgarden/internal/config"
	"catnipgarden/internal/game"
	"catnipgarden/internal/play"
	"catnipgarden/internal/progress"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	kv, closeStore, err := progress.Open(ctx, cfg.Store.Kind, cfg.Store.Path, cfg.Store.DatabaseURL)
	if err != nil {
		logger.Error("open progress store failed", "store", cfg.Store.Kind, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	tracker, err := progress.NewTracker(ctx, kv, cfg.Store.Namespace, progress.WithLogger(logger))
	if err != nil {
		logger.Error("load progress failed", "err", err)
		os.Exit(1)
	}

	sessions := play.NewRegistry(cfg.SessionTTL, func(id game.ID, points int) {
		if _, err := tracker.Complete(context.Background(), id, points); err != nil {
			logger.Error("credit completion failed", "game", id, "points", points, "err", err)
		}
	}, play.WithRegistryLogger(logger))
	go sessions.Run(ctx, cfg.SweepEvery)

	var verifier auth.Verifier
	if cfg.Auth.Enabled() {
		verifier = auth.NewSupabaseClient(cfg.Auth.SupabaseURL, cfg.Auth.SupabaseAnonKey)
	}
	adv := advisor.New(cfg.Advisor.URL, cfg.Advisor.APIKey, logger)

	server := api.New(cfg, logger, verifier, tracker, sessions, adv)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("garden api listening", "addr", cfg.Addr, "store", cfg.Store.Kind, "auth", cfg.Auth.Enabled())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
