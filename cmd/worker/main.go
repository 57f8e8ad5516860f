// Package main is the entry point for the Melodia outbox worker. It drains
// the transactional outbox and hands messages to the broker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"melodia/internal/config"
	"melodia/internal/infrastructure/queue"
	"melodia/internal/infrastructure/storage/postgres"
	"melodia/pkg/logger"
)

const (
	pollInterval = 5 * time.Second
	batchSize    = 50
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting melodia worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.DSN))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	publisher, err := queue.NewPublisher(cfg.Rabbit.URL)
	if err != nil {
		log.Fatalw("failed to connect to message broker", "error", err)
	}
	defer publisher.Close()

	txManager := postgres.NewTxManager(pool)
	relay := postgres.NewOutboxRelay(txManager, batchSize, publisher)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runRelay(ctx, relay, log)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()
	wg.Wait()
	log.Info("worker stopped")
}

// runRelay drains the outbox on a fixed interval. A full batch means more
// work is likely pending, so the next pass starts immediately.
func runRelay(ctx context.Context, relay *postgres.OutboxRelay, log *logger.Logger) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				processed, err := relay.ProcessBatch(ctx)
				if err != nil {
					log.Warnw("outbox batch failed", "error", err)
					break
				}
				if processed > 0 {
					log.Infow("outbox batch delivered", "messages", processed)
				}
				if processed < batchSize {
					break
				}
			}
		}
	}
}
