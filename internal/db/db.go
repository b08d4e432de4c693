package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS ns_bot_discord_messages (
            id VARCHAR PRIMARY KEY,
            channel_id VARCHAR NOT NULL,
            author JSONB NOT NULL,
            content TEXT NOT NULL,
            timestamp TIMESTAMPTZ NOT NULL,
            edited_timestamp TIMESTAMPTZ,
            mentions JSONB,
            attachments JSONB,
            embeds JSONB,
            reactions JSONB,
            pinned BOOLEAN NOT NULL,
            type INT NOT NULL,
            flags INT,
            message_reference JSONB,
            referenced_message JSONB,
            thread JSONB,
            poll JSONB
        );`,
		`CREATE INDEX IF NOT EXISTS idx_ns_bot_discord_messages_timestamp
            ON ns_bot_discord_messages (timestamp, id);`,
		`CREATE INDEX IF NOT EXISTS idx_ns_bot_discord_messages_channel
            ON ns_bot_discord_messages (channel_id);`,
		`CREATE TABLE IF NOT EXISTS ns_bot_discord_messages_raw (
            blob JSONB NOT NULL
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
