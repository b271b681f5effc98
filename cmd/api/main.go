package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/illegalcall/reelwriter/internal/api"
	"github.com/illegalcall/reelwriter/internal/config"
	"github.com/illegalcall/reelwriter/internal/llm"
	"github.com/illegalcall/reelwriter/internal/pkg/supabase"
	"github.com/illegalcall/reelwriter/pkg/database"
	"github.com/illegalcall/reelwriter/pkg/kafka"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	setupLogger(cfg.Server.Environment)

	// Initialize database clients
	db, err := database.NewClients(cfg.Database.URL, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Error("Failed to initialize database clients", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("✅ Connected to databases")

	if err := db.CreateTables(); err != nil {
		slog.Error("Failed to create tables", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		slog.Error("Failed to create Kafka producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()
	slog.Info("✅ Connected to Kafka")

	auth, err := supabase.NewAuthenticator(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
	if err != nil {
		slog.Error("Failed to create Supabase client", "error", err)
		os.Exit(1)
	}
	if err := auth.Ping(); err != nil {
		slog.Warn("Supabase auth is not reachable yet", "error", err)
	}

	generator, err := llm.NewGeminiClient(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout)
	if err != nil {
		slog.Error("Failed to create Gemini client", "error", err)
		os.Exit(1)
	}
	defer generator.Close()

	// Create and start server
	server := api.NewServer(cfg, db, producer, auth, generator)
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}

// setupLogger switches to JSON logs outside development.
func setupLogger(environment string) {
	if environment == "development" {
		return
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
}
