// Command server starts the Mehr Guard HTTP API.
// Usage: go run ./cmd/server [-addr :8080] [-history scans.db]
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mehrguard/mehrguard/internal/logging"
	"github.com/mehrguard/mehrguard/internal/server"
)

func main() {
	cfg := server.DefaultConfig()
	flag.StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "listen address")
	flag.StringVar(&cfg.HistoryPath, "history", cfg.HistoryPath, "SQLite path for scan history (\":memory:\" = ephemeral)")
	flag.Parse()

	logger := logging.NewStdoutLogger("server")
	cfg.Logger = logger

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("starting server: %v", err)
	}
	defer srv.Close()

	httpServer := srv.HTTPServer()

	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: cfg.ListenAddr})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("shutdown", logging.Field{Key: "error", Value: err.Error()})
	}
}
