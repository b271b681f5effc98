package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/illegalcall/reelwriter/internal/config"
	"github.com/illegalcall/reelwriter/internal/worker"
	"github.com/illegalcall/reelwriter/pkg/database"
	"github.com/illegalcall/reelwriter/pkg/kafka"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	if cfg.Server.Environment != "development" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	// Initialize database clients
	db, err := database.NewClients(cfg.Database.URL, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Error("Failed to initialize database clients", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("✅ Connected to databases")

	// Initialize Kafka consumer
	consumer, err := kafka.NewConsumer(cfg.Kafka)
	if err != nil {
		slog.Error("Failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()
	slog.Info("✅ Connected to Kafka")

	// Create and start worker
	worker := worker.NewWorker(cfg, db.Redis, consumer)

	ctx := context.Background()
	if err := worker.Start(ctx); err != nil {
		slog.Error("Worker error", "error", err)
		os.Exit(1)
	}
}
