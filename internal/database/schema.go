package database

import (
	"context"
	"fmt"
)

// schemaStatements define the application schema. Statements are idempotent
// so startup can apply them unconditionally. The unique indexes on
// users.email, likes(user_id, saying_id), and rate_limits(identifier, action)
// are load-bearing: application code relies on them to resolve concurrent
// writes.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		provider TEXT NOT NULL DEFAULT 'oauth',
		role TEXT NOT NULL DEFAULT 'user',
		last_login TIMESTAMPTZ NOT NULL,
		preferences JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users (email)`,

	`CREATE TABLE IF NOT EXISTS intros (
		id BIGSERIAL PRIMARY KEY,
		intro_text TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS saying_types (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS sayings (
		id BIGSERIAL PRIMARY KEY,
		intro_id BIGINT NOT NULL REFERENCES intros (id),
		type_id BIGINT NOT NULL REFERENCES saying_types (id),
		first_kind TEXT NOT NULL,
		second_kind TEXT NOT NULL,
		user_id BIGINT NOT NULL REFERENCES users (id),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sayings_user_idx ON sayings (user_id)`,
	`CREATE INDEX IF NOT EXISTS sayings_created_idx ON sayings (created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS likes (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users (id),
		saying_id BIGINT NOT NULL REFERENCES sayings (id),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS likes_user_saying_idx ON likes (user_id, saying_id)`,

	`CREATE TABLE IF NOT EXISTS rate_limits (
		id BIGSERIAL PRIMARY KEY,
		identifier TEXT NOT NULL,
		action TEXT NOT NULL,
		count INTEGER NOT NULL,
		window_start TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS rate_limits_key_idx ON rate_limits (identifier, action)`,

	`CREATE TABLE IF NOT EXISTS audit_events (
		id UUID PRIMARY KEY,
		user_id BIGINT,
		action TEXT NOT NULL,
		client_ip TEXT NOT NULL DEFAULT '',
		detail JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS audit_events_created_idx ON audit_events (created_at)`,

	`CREATE TABLE IF NOT EXISTS oidc_config (
		id UUID PRIMARY KEY,
		provider TEXT NOT NULL UNIQUE,
		issuer TEXT NOT NULL,
		domain TEXT,
		client_id TEXT NOT NULL,
		client_secret TEXT,
		redirect_uri TEXT NOT NULL,
		jwks_url TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS cors_config (
		config_key TEXT PRIMARY KEY,
		allowed_origins TEXT NOT NULL DEFAULT '',
		allow_credentials BOOLEAN NOT NULL DEFAULT FALSE,
		max_age INTEGER NOT NULL DEFAULT 300,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS ratelimit_config (
		config_key TEXT PRIMARY KEY,
		rate TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate applies the schema. Safe to run on every startup.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
