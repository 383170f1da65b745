package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/base-14/examples/go/parking-fees/internal/config"
	"github.com/base-14/examples/go/parking-fees/internal/events"
	"github.com/base-14/examples/go/parking-fees/internal/logging"
	"github.com/base-14/examples/go/parking-fees/internal/parking"
	"github.com/base-14/examples/go/parking-fees/internal/server"
)

func main() {
	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	cfg := config.Load()

	mode := flag.String("mode", cfg.Mode, "Mode to run: cli, server, or both")
	port := flag.String("port", cfg.Port, "Port for HTTP server")
	capacity := flag.Int("capacity", cfg.Capacity, "Number of parking spaces")
	flag.Parse()

	cfg.Mode, cfg.Port, cfg.Capacity = *mode, *port, *capacity

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryProvider, err := parking.NewTelemetryProvider(ctx, cfg.OTelServiceName, cfg.OTelEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	logging.Init(cfg.OTelServiceName, cfg.Environment, os.Stderr)

	pubSub := events.NewPubSub()
	auditLog, err := events.NewAuditLog(ctx, pubSub, nil)
	if err != nil {
		log.Fatalf("Failed to subscribe to ticket events: %v", err)
	}
	go auditLog.Run(ctx)

	publisher := events.NewPublisher(pubSub)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	switch cfg.Mode {
	case "cli":
		runCLI(ctx, cancel, cfg, telemetryProvider, publisher, sigChan)
	case "server":
		runServer(ctx, cancel, cfg, telemetryProvider, publisher, sigChan)
	case "both":
		runBoth(ctx, cancel, cfg, telemetryProvider, publisher, sigChan)
	default:
		log.Fatalf("Invalid mode: %s. Must be cli, server, or both", cfg.Mode)
	}

	cancel()
	if err := pubSub.Close(); err != nil {
		logging.Error(context.Background(), "error closing event stream", "error", err)
	}
	shutdownTelemetry(telemetryProvider)
}

func newShell(cfg *config.Config, telemetryProvider *parking.TelemetryProvider, publisher *events.Publisher) *parking.Shell {
	shell, err := parking.NewShell(telemetryProvider, os.Stdin, os.Stdout, cfg.Capacity,
		parking.MultiNotifier{parking.LogNotifier{}, publisher})
	if err != nil {
		log.Fatalf("Failed to create parking lot: %v", err)
	}
	return shell
}

func newServer(cfg *config.Config, telemetryProvider *parking.TelemetryProvider, publisher *events.Publisher) *server.Server {
	handler, err := server.NewHandler(cfg.OTelServiceName, cfg.Capacity, telemetryProvider,
		parking.WithNotifier(parking.MultiNotifier{parking.LogNotifier{}, publisher}))
	if err != nil {
		log.Fatalf("Failed to create parking lot: %v", err)
	}
	return server.NewServer(cfg.Port, cfg.OTelServiceName, handler)
}

func runCLI(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, telemetryProvider *parking.TelemetryProvider, publisher *events.Publisher, sigChan chan os.Signal) {
	go func() {
		<-sigChan
		logging.Info(ctx, "shutting down")
		cancel()
	}()

	shell := newShell(cfg, telemetryProvider, publisher)
	shell.Run(ctx)
}

func runServer(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, telemetryProvider *parking.TelemetryProvider, publisher *events.Publisher, sigChan chan os.Signal) {
	srv := newServer(cfg, telemetryProvider, publisher)

	go func() {
		<-sigChan
		logging.Info(ctx, "received shutdown signal")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Error(shutdownCtx, "server shutdown error", "error", err)
		}

		cancel()
	}()

	logging.Info(ctx, "starting server mode", "address", srv.GetAddress(), "capacity", cfg.Capacity)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error(ctx, "server error", "error", err)
	}
}

func runBoth(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, telemetryProvider *parking.TelemetryProvider, publisher *events.Publisher, sigChan chan os.Signal) {
	srv := newServer(cfg, telemetryProvider, publisher)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	cliDone := make(chan struct{})
	go func() {
		newShell(cfg, telemetryProvider, publisher).Run(ctx)
		close(cliDone)
	}()

	go func() {
		<-sigChan
		logging.Info(ctx, "received shutdown signal")
		cancel()
	}()

	select {
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(ctx, "server error", "error", err)
		}
	case <-cliDone:
		logging.Info(ctx, "CLI exited")
	case <-ctx.Done():
		logging.Info(context.Background(), "context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(shutdownCtx, "server shutdown error", "error", err)
	}
}

func shutdownTelemetry(telemetryProvider *parking.TelemetryProvider) {
	logging.Info(context.Background(), "shutting down telemetry")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down telemetry: %v", err)
	}
}
