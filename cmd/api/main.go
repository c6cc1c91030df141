package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ewilliams-labs/takesort/internal/adapters/backend"
	"github.com/ewilliams-labs/takesort/internal/adapters/rest"
	"github.com/ewilliams-labs/takesort/internal/config"
	"github.com/ewilliams-labs/takesort/internal/core/services"
	"github.com/ewilliams-labs/takesort/internal/worker"
)

func main() {
	logger := log.Default()

	// 1. Configuration: defaults, then TAKESORT_CONFIG, then TAKESORT_* env.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// 2. Storage adapter
	storage, closeStorage, err := backend.Open(context.Background(), cfg.Storage, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize %s storage: %v", cfg.Storage.Driver, err)
	}
	defer func() {
		if err := closeStorage(); err != nil {
			log.Printf("WARN main: closing storage: %v", err)
		}
	}()

	// 3. Core service
	pool := worker.NewPool(storage, cfg.Analysis.Workers, logger)
	svc := services.NewOrchestrator(storage, pool, logger, services.Options{
		Extensions: cfg.Analysis.Extensions,
	})

	// 4. HTTP interface
	handler := rest.NewHandler(svc, logger)

	log.Println("------------------------------------------------")
	log.Printf("takesort API is running on %s (storage: %s)", cfg.ListenAddr, cfg.Storage.Driver)
	log.Println("------------------------------------------------")

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Printf("server error: %v", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}
