package main

import (
	"context"
	"errors"
	"log/slog"
	oshttp "net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pulse/internal/api"
	"pulse/internal/config"
	"pulse/internal/engine"
	"pulse/internal/history"
	"pulse/internal/http"
	"pulse/internal/roster"
	"pulse/internal/storage"
	"pulse/internal/video"
	"pulse/internal/ws"

	"golang.org/x/sync/errgroup"
)

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := newLogger(cfg.LogLevel)

	store, err := storage.NewBboltStore(cfg.DBFile)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	videoClient := video.NewClient(ctx, log, cfg.VideoServiceURL, cfg.VideoTimeout, cfg.ParticipantTTL)

	ro := roster.New()
	hist := history.NewLog(cfg.HistorySize)
	eng := engine.New(ctx, log, engine.Config{
		TypingQuiet:  cfg.TypingQuiet,
		StoreTimeout: cfg.StoreTimeout,
		VideoTimeout: cfg.VideoTimeout,
		SendBuffer:   cfg.SendBuffer,
	}, ro, store, videoClient, hist)

	handlers := api.New(log, hist, store, ro)

	opsServer := http.NewOpsServer(log, handlers, cfg.OpsAddr)
	apiServer := http.NewAPIServer(log, eng, handlers, ws.QueryIdentityResolver{}, cfg.APIAddr)

	g, gCtx := errgroup.WithContext(ctx)

	// Start Ops Server
	g.Go(func() error {
		err := opsServer.Start()
		if err != nil && err != oshttp.ErrServerClosed {
			return err
		}
		return nil
	})

	// Start API Server
	g.Go(func() error {
		err := apiServer.Start()
		if err != nil && err != oshttp.ErrServerClosed {
			return err
		}
		return nil
	})

	// Wait for context cancellation (signal)
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("ops server shutdown error", "error", err)
		}
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Error("api server shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}
