// Package main is the entry point for the departure alarm API server.
// Its sole responsibility is wiring dependencies together and starting the
// server. No business logic belongs here.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"ttalarm/internal/alarm"
	"ttalarm/internal/config"
	"ttalarm/internal/domain"
	"ttalarm/internal/handler"
	"ttalarm/internal/middleware"
	"ttalarm/internal/notify"
	"ttalarm/internal/relay"
	"ttalarm/internal/store"
	"ttalarm/internal/traffic"
)

// maxBodySize bounds request bodies; schedule payloads are tiny.
const maxBodySize = 1 << 20 // 1 MiB

func main() {
	// --- Config -----------------------------------------------------------
	// .env is optional; real environment variables win over file entries.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// log/slog is the stdlib structured logger introduced in Go 1.21.
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Travel-duration table -------------------------------------------
	table, err := traffic.Load(cfg.TrafficTable)
	if err != nil {
		slog.Error("failed to load traffic table", "path", cfg.TrafficTable, "error", err)
		os.Exit(1)
	}

	// --- Core wiring ------------------------------------------------------
	// Store → scheduler + relay feeder: every mutation publishes a snapshot
	// that both alarm contexts reconcile against.
	clock := alarm.SystemClock()
	schedules := store.New(table, cfg.DefaultOrigin)

	var tone *notify.TonePlayer
	if cfg.SoundEnabled {
		tone = notify.NewTonePlayer()
	}
	notifier := notify.New(clock, tone, logger)

	bg := relay.New(clock, notify.Presenter{}, notifier, logger)
	ctx, cancelRelay := context.WithCancel(context.Background())
	defer cancelRelay()
	bg.Start(ctx)
	feeder := relay.NewFeeder(bg, clock)

	scheduler := alarm.NewScheduler(clock, notifier, logger)
	schedules.Subscribe(scheduler.Reconcile)
	schedules.Subscribe(func(snap []domain.Schedule) { feeder.Sync(snap) })

	// Recurring schedules must re-arm when the day rolls over, not when the
	// user next touches the collection.
	midnight := cron.New()
	if _, err := midnight.AddFunc("0 0 * * *", func() {
		scheduler.ReconcileNow()
		feeder.Sync(schedules.List())
		slog.Info("midnight reconciliation complete")
	}); err != nil {
		slog.Error("failed to schedule midnight reconciliation", "error", err)
		os.Exit(1)
	}
	midnight.Start()
	defer midnight.Stop()

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBodySize))

	srv := handler.NewServer(schedules, scheduler, bg, notifier, table)
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	// No WriteTimeout: /api/events is a long-lived SSE stream. Read and idle
	// timeouts still bound slow or stale connections.
	httpSrv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
