package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskflow/internal/config"
	"taskflow/internal/notify"
	"taskflow/internal/permission"
	"taskflow/internal/project"
	"taskflow/internal/report"
	"taskflow/internal/server"
	"taskflow/internal/storage/sqlite"
	"taskflow/internal/suggest"
	"taskflow/internal/task"
	"taskflow/internal/user"
)

func main() {
	configFlag := flag.String("config", "", "Path to YAML config file")
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbFlag := flag.String("db", "", "Path to sqlite database file (overrides config)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configFlag)
	if err != nil {
		logger.Error("unable to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}
	if *dbFlag != "" {
		cfg.DBPath = *dbFlag
	}

	store, err := sqlite.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	perm := permission.New(store)
	notifier := notify.NewService(store, nil, logger)

	var remote suggest.Source
	if cfg.Suggestion.APIKey != "" {
		remote = suggest.NewRemoteSource(cfg.Suggestion.APIKey, cfg.Suggestion.Model)
	}
	suggester := suggest.NewFallback(remote, time.Duration(cfg.Suggestion.TimeoutSeconds)*time.Second, logger)

	srv := server.New(server.Services{
		Users:         user.NewService(store, logger, cfg.AdminEmail),
		Projects:      project.NewService(store, perm, notifier, logger, cfg.FrontendURL),
		Tasks:         task.NewService(store, perm, logger),
		Notifications: notifier,
		Reports:       report.NewService(store, perm, logger),
		Suggester:     suggester,
	}, logger, cfg.DataDir)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
