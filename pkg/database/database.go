package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

type Clients struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

func NewClients(dbURL, redisAddr, redisPassword string, redisDB int) (*Clients, error) {
	// Connect to PostgreSQL
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Clients{
		DB:    db,
		Redis: redisClient,
	}, nil
}

func (c *Clients) Close() error {
	redisErr := c.Redis.Close()
	if err := c.DB.Close(); err != nil {
		return err
	}
	return redisErr
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS saas_accounts (
		id TEXT PRIMARY KEY,
		daily_credits_limit INTEGER NOT NULL DEFAULT 5,
		credits_used_today INTEGER NOT NULL DEFAULT 0,
		credits_date DATE,
		current_streak INTEGER NOT NULL DEFAULT 0,
		last_activity_date DATE,
		subscription_status TEXT DEFAULT 'trial'
	);`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES saas_accounts(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		niche TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		tone_of_voice INTEGER CHECK (tone_of_voice BETWEEN 0 AND 100),
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS scripts (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		hook_type TEXT NOT NULL DEFAULT '',
		content JSONB NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		is_viral BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE INDEX IF NOT EXISTS scripts_profile_created_idx ON scripts (profile_id, created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS profiles_account_idx ON profiles (account_id);`,
}

// CreateTables creates the accounts, profiles and scripts tables.
func (c *Clients) CreateTables() error {
	for _, stmt := range schema {
		if _, err := c.DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	slog.Info("✅ Tables are ready!")
	return nil
}
