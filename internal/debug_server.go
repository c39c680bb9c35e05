// Package internal hosts operator-facing helpers that are not part of
// the client protocol.
package internal

import (
	"compoker/observability"
	"compoker/runtime"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const inspectTimeout = 2 * time.Second

// StartDebugServer exposes a JSON snapshot of live sessions and process
// stats at /inspect on its own port. It is optional and meant for local
// debugging; it never serves client traffic.
func StartDebugServer(log *slog.Logger, registry *runtime.Registry, collector *observability.Collector, port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), inspectTimeout)
		defer cancel()

		snap, err := registry.TakeSnapshot(ctx)
		if err != nil {
			http.Error(w, fmt.Sprintf("snapshot failed: %v", err), http.StatusServiceUnavailable)
			return
		}

		payload := struct {
			Time     string                     `json:"time"`
			Registry runtime.Snapshot           `json:"registry"`
			Process  observability.ProcessStats `json:"process"`
		}{
			Time:     time.Now().UTC().Format(time.RFC3339),
			Registry: snap,
		}
		if collector != nil {
			if stats, err := collector.Collect(); err == nil {
				payload.Process = stats
			}
		}

		w.Header().Set("Content-Type", "application/json")
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(payload)
	})

	go func() {
		addr := fmt.Sprintf("localhost:%d", port)
		log.Info("Debug server listening", "addr", addr, "endpoint", "/inspect")
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn("Debug server stopped", "error", err)
		}
	}()
}
