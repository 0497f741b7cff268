package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/princekumarofficial/journal-service/internal/config"
	"github.com/princekumarofficial/journal-service/internal/storage"
	"github.com/princekumarofficial/journal-service/internal/storage/driver"
)

// ReconcileWorker periodically repairs data left inconsistent by partial
// failures: comments whose post is gone and like counters that drifted
// from the liker sets.
type ReconcileWorker struct {
	storage  storage.Storage
	interval time.Duration
	logger   *slog.Logger
}

func NewReconcileWorker(store storage.Storage, interval time.Duration) *ReconcileWorker {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &ReconcileWorker{
		storage:  store,
		interval: interval,
		logger:   logger,
	}
}

func (rw *ReconcileWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.logger.Info("Reconcile worker started",
		"interval", rw.interval.String())

	// Run once immediately on startup
	rw.reconcile(ctx)

	for {
		select {
		case <-ctx.Done():
			rw.logger.Info("Reconcile worker shutting down")
			return
		case <-ticker.C:
			rw.reconcile(ctx)
		}
	}
}

func (rw *ReconcileWorker) reconcile(ctx context.Context) {
	startTime := time.Now()

	orphans, err := rw.storage.DeleteOrphanComments(ctx)
	if err != nil {
		rw.logger.Error("Failed to delete orphan comments",
			"error", err.Error(),
			"duration_ms", time.Since(startTime).Milliseconds())
		return
	}

	repaired, err := rw.storage.ReconcileCounters(ctx)
	if err != nil {
		rw.logger.Error("Failed to reconcile like counters",
			"error", err.Error(),
			"duration_ms", time.Since(startTime).Milliseconds())
		return
	}

	duration := time.Since(startTime)

	rw.logger.Info("Completed reconciliation",
		"orphan_comments_deleted", orphans,
		"counters_repaired", repaired,
		"duration_ms", duration.Milliseconds(),
		"duration", duration.String())
}

func main() {
	cfg := config.MustLoad()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := driver.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer store.Close()

	worker := NewReconcileWorker(store, cfg.Worker.Interval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Received shutdown signal")
		cancel()
	}()

	worker.Start(ctx)

	slog.Info("Reconcile worker stopped")
}
