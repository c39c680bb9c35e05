package main

import (
	"compoker/internal"
	"compoker/observability"
	"compoker/runtime"
	"compoker/runtime/workers"
	"compoker/transport"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 5 * time.Second

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and background workers.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Coordinator & Workers
	registry := runtime.NewRegistry(log, config.MailboxSize, config.EvictionWindow, config.SinkTimeout)
	sweeper := runtime.NewSweeperWorker(log, registry, config.SweepInterval)

	collector, err := observability.NewCollector()
	if err != nil {
		return exitRuntime, fmt.Errorf("stats collector: %w", err)
	}
	monitoring := workers.NewMonitoringWorker(log, collector, config.MonitorInterval)

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(registry, sweeper, monitoring)

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Workers run on their own context: on shutdown the registry must
	// outlive the connections so their final disconnects still land.
	supDone := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(supDone)
	}()

	// 4. HTTP Server (websocket endpoint + static UI)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr: address,
		Handler: transport.NewHandler(ctx, log, registry, transport.Config{
			PublicDir:         config.PublicDir,
			HeartbeatInterval: config.HeartbeatInterval,
			ClientTimeout:     config.ClientTimeout,
			SinkBuffer:        config.SinkBuffer,
			MaxDecodeErrors:   config.MaxDecodeErrors,
		}),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "public_dir", config.PublicDir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 5. Optional debug endpoint
	if config.DebugPort > 0 {
		internal.StartDebugServer(log, registry, collector, config.DebugPort)
	}

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		sup.Stop()
		<-supDone
		return exitRuntime, err
	}

	// 7. Final Cleanup: close client connections first so their
	// disconnects reach the still-running registry, then stop workers.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Forcing HTTP server close", "error", err)
		_ = server.Close()
	}
	sup.Stop()
	<-supDone
	log.Info("Server stopped cleanly")

	return exitOK, nil
}
