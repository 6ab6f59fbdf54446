package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"donortrack/internal/bootstrap"
	"donortrack/internal/eventsvc"
	"donortrack/internal/infra"
)

// reconciler periodically recomputes event totals from donation records and
// repairs counters that drifted after a failed second write.
type reconciler struct {
	svc      *eventsvc.Service
	logger   infra.Logger
	interval time.Duration
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel).With().Str("cmd", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: store connection failed")
	}
	defer backend.Close()

	w := &reconciler{
		svc:      eventsvc.New(backend.Store, backend.Notifier, logger),
		logger:   logger,
		interval: cfg.ReconcileInterval,
	}
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *reconciler) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return fmt.Errorf("reconcile interval must be positive, got %s", w.interval)
	}
	w.logger.Info().Dur("interval", w.interval).Msg("worker: started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		w.pass(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *reconciler) pass(ctx context.Context) int {
	start := time.Now()
	checks, err := w.svc.Reconcile(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker: reconcile failed")
		return 0
	}
	repaired := 0
	for _, c := range checks {
		if c.Repaired {
			repaired++
		}
	}
	w.logger.Info().
		Int("events", len(checks)).
		Int("repaired", repaired).
		Dur("took", time.Since(start)).
		Msg("worker: reconcile pass")
	return repaired
}
