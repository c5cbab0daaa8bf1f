package main

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer pool.Close()

	log.Println("Connected to database, running migrations...")

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			condition_groups JSONB,
			anomaly_config JSONB,
			frequency JSONB NOT NULL DEFAULT '{}',
			quiet_hours JSONB NOT NULL DEFAULT '{}',
			expires_at TIMESTAMPTZ,
			last_triggered_at TIMESTAMPTZ,
			triggered_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_symbol_status ON alerts (symbol, status)`,
		`CREATE TABLE IF NOT EXISTS trigger_history (
			id TEXT PRIMARY KEY,
			alert_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			triggered_at TIMESTAMPTZ NOT NULL,
			reason TEXT NOT NULL,
			conditions_met JSONB,
			price DOUBLE PRECISION,
			volume DOUBLE PRECISION,
			news_count INTEGER,
			news_sentiment DOUBLE PRECISION,
			user_action TEXT NOT NULL DEFAULT 'pending'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trigger_history_alert_day ON trigger_history (alert_id, triggered_at)`,
		`CREATE INDEX IF NOT EXISTS idx_trigger_history_symbol ON trigger_history (symbol, triggered_at)`,
	}

	for _, migration := range migrations {
		_, err := pool.Exec(ctx, migration)
		if err != nil {
			log.Printf("WARNING: Migration failed: %v", err)
		}
	}

	log.Println("All migrations completed")
}
