package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"wizards-server/internal/server"
)

const shutdownTimeout = 10 * time.Second

// waitForShutdown blocks until SIGINT or SIGTERM, then stops the session
// before the listener so clients are closed and the journal is flushed.
func waitForShutdown(app *server.Server, httpServer *http.Server, stopped chan<- struct{}) {
	defer close(stopped)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	<-ctx.Done()
	// A second signal kills the process.
	stop()
	log.Println("Shutting down, signal again to force")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.Shutdown(ctx); err != nil {
		log.Printf("Session shutdown failed: %v", err)
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown failed: %v", err)
	}
}

func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	app, httpServer, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	stopped := make(chan struct{})
	go waitForShutdown(app, httpServer, stopped)

	log.Printf("Listening on %s", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server error: %v", err)
	}

	<-stopped
	log.Println("Shutdown complete")
}
