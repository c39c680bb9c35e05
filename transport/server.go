// Package transport carries the websocket connection adapter and the
// HTTP surface: the /ws endpoint, a health check, and the static web UI.
package transport

import (
	"compoker/runtime"
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/net/websocket"
)

type Config struct {
	// PublicDir holds the static web UI, served with an index.html
	// fallback for client-side routes.
	PublicDir string
	// HeartbeatInterval is how often the server pings a client.
	HeartbeatInterval time.Duration
	// ClientTimeout closes a connection with no inbound traffic for
	// this long.
	ClientTimeout time.Duration
	// SinkBuffer is the capacity of each connection's outbound channel.
	SinkBuffer int
	// MaxDecodeErrors drops a connection after this many consecutive
	// malformed frames.
	MaxDecodeErrors int
}

// NewHandler builds the HTTP routes of the server. Every websocket
// connection runs its own goroutine; a failure there is isolated to that
// connection and always ends in a Disconnect reaching the registry.
// Canceling baseCtx closes every open connection; websocket connections
// are hijacked, so an http.Server shutdown alone would not reach them.
func NewHandler(baseCtx context.Context, log *slog.Logger, registry *runtime.Registry, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wsHandler := websocket.Handler(func(sock *websocket.Conn) {
		handleConn(baseCtx, log, sock, registry, cfg)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})

	mux.Handle("/", staticHandler(cfg.PublicDir))

	return mux
}

// staticHandler serves files from the public directory. Paths that do
// not resolve to a file fall back to index.html so the single page UI
// owns its own routing.
func staticHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		info, err := os.Stat(requested)
		if err != nil || info.IsDir() && r.URL.Path != "/" {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})
}
