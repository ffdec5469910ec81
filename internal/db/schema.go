package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Table DDL is kept per-driver because only the primary-key spelling differs.
// Relationship invariants (question minimums, single correct option) are
// enforced by the ingestion layer, not by constraints, so the schema stays
// portable between postgres and sqlite.
const (
	pgPK     = "BIGSERIAL PRIMARY KEY"
	sqlitePK = "INTEGER PRIMARY KEY AUTOINCREMENT"
)

func schemaStatements(pk string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sessions (
			id %s,
			user_id BIGINT NOT NULL,
			token_hash TEXT NOT NULL UNIQUE,
			expires_at TIMESTAMP NOT NULL,
			revoked_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tests (
			id %s,
			title TEXT NOT NULL,
			description TEXT,
			difficulty TEXT NOT NULL DEFAULT 'Medium',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS questions (
			id %s,
			test_id BIGINT NOT NULL,
			text TEXT NOT NULL,
			difficulty TEXT NOT NULL DEFAULT 'Medium',
			time_limit_sec INTEGER NOT NULL DEFAULT 60,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS options (
			id %s,
			question_id BIGINT NOT NULL,
			text TEXT NOT NULL,
			is_correct BOOLEAN NOT NULL DEFAULT FALSE
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS results (
			id %s,
			user_id BIGINT NOT NULL,
			test_id BIGINT NOT NULL,
			score INTEGER NOT NULL,
			completed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_sessions_token_hash ON sessions(token_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_test_id ON questions(test_id)`,
		`CREATE INDEX IF NOT EXISTS idx_options_question_id ON options(question_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_user_id ON results(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_test_id ON results(test_id)`,
	}
}

// EnsureSchema creates any missing tables. It is safe to call on every start.
func EnsureSchema(ctx context.Context, conn *sql.DB, driver string) error {
	pk := sqlitePK
	if driver == "pgx" {
		pk = pgPK
	}
	for _, stmt := range schemaStatements(pk) {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
