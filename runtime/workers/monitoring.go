package workers

import (
	"compoker/observability"
	"context"
	"log/slog"
	"time"
)

// MonitoringWorker logs process health metrics (CPU, RSS, goroutines) on
// a fixed interval.
type MonitoringWorker struct {
	log       *slog.Logger
	collector *observability.Collector
	interval  time.Duration
}

func NewMonitoringWorker(log *slog.Logger, collector *observability.Collector, interval time.Duration) *MonitoringWorker {
	return &MonitoringWorker{log: log, collector: collector, interval: interval}
}

func (w *MonitoringWorker) Run(ctx context.Context) error {
	w.log.Info("Starting monitoring worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats, err := w.collector.Collect()
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			w.log.Info("Process health",
				"cpu_percent", stats.CPUPercent,
				"rss_bytes", stats.RSSBytes,
				"status", stats.Status,
				"goroutines", stats.Goroutines,
				"alloc_mem_mb", stats.AllocMemMb,
				"num_gc", stats.NumGC,
			)
		}
	}
}
