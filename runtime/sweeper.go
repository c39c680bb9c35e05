package runtime

import (
	"context"
	"log/slog"
	"time"
)

// SweeperWorker periodically asks the registry to purge sessions that
// have been empty longer than the eviction window. The comparison itself
// happens inside the registry goroutine; the sweeper only supplies the
// tick and the wall clock, keeping the single-writer discipline intact.
type SweeperWorker struct {
	log      *slog.Logger
	registry *Registry
	interval time.Duration
}

func NewSweeperWorker(log *slog.Logger, registry *Registry, interval time.Duration) *SweeperWorker {
	return &SweeperWorker{log: log, registry: registry, interval: interval}
}

func (w *SweeperWorker) Run(ctx context.Context) error {
	w.log.Info("Starting session sweeper", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping session sweeper")
			return nil
		case now := <-ticker.C:
			if err := w.registry.Dispatch(ctx, SweepCommand{Now: now}); err != nil {
				return err
			}
		}
	}
}
