package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements crea las tablas si no existen. habit_logs.completed_on
// respalda en base de datos la regla de un log por habito y dia UTC.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		display_name  TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		goals         TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS habits (
		id                  TEXT PRIMARY KEY,
		user_id             TEXT NOT NULL REFERENCES users(id),
		title               TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		frequency           TEXT NOT NULL DEFAULT 'daily',
		difficulty          INTEGER NOT NULL DEFAULT 1 CHECK (difficulty BETWEEN 1 AND 5),
		current_streak      INTEGER NOT NULL DEFAULT 0 CHECK (current_streak >= 0),
		longest_streak      INTEGER NOT NULL DEFAULT 0,
		success_probability DOUBLE PRECISION NOT NULL DEFAULT 0.5,
		created_at          TIMESTAMPTZ NOT NULL,
		CHECK (longest_streak >= current_streak)
	)`,
	`CREATE INDEX IF NOT EXISTS habits_user_id_idx ON habits (user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS habit_logs (
		id                TEXT PRIMARY KEY,
		habit_id          TEXT NOT NULL REFERENCES habits(id),
		completed_at      TIMESTAMPTZ NOT NULL,
		completed_on      DATE NOT NULL,
		mood_score        INTEGER,
		difficulty_rating INTEGER,
		UNIQUE (habit_id, completed_on)
	)`,
	`CREATE TABLE IF NOT EXISTS prediction_logs (
		id            TEXT PRIMARY KEY,
		habit_id      TEXT NOT NULL REFERENCES habits(id),
		predicted_for TIMESTAMPTZ NOT NULL,
		score         DOUBLE PRECISION NOT NULL,
		risk_level    TEXT NOT NULL,
		explanation   TEXT NOT NULL DEFAULT '',
		model_version TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS prediction_logs_habit_idx ON prediction_logs (habit_id, created_at DESC)`,
}

// EnsureSchema aplica el esquema de forma idempotente.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
