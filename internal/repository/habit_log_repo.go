package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitos/internal/domain"
)

// HabitLogRepository expone el historial de completions por habito.
// Los logs se insertan desde HabitRepository.SaveCompletion.
type HabitLogRepository interface {
	ListByHabitID(ctx context.Context, habitID string, since *time.Time) ([]domain.HabitLog, error)
	ListByUserSince(ctx context.Context, userID string, since time.Time) ([]domain.HabitLog, error)
}

type PgHabitLogRepository struct {
	pool *pgxpool.Pool
}

func NewPgHabitLogRepository(pool *pgxpool.Pool) *PgHabitLogRepository {
	return &PgHabitLogRepository{pool: pool}
}

// ListByHabitID devuelve los logs en orden cronologico; since es opcional.
func (r *PgHabitLogRepository) ListByHabitID(ctx context.Context, habitID string, since *time.Time) ([]domain.HabitLog, error) {
	const query = `
		SELECT id, habit_id, completed_at, mood_score, difficulty_rating
		FROM habit_logs
		WHERE habit_id = $1 AND ($2::timestamptz IS NULL OR completed_at >= $2)
		ORDER BY completed_at ASC
	`
	rows, err := r.pool.Query(ctx, query, habitID, since)
	if err != nil {
		return nil, err
	}
	return collectLogs(rows)
}

// ListByUserSince devuelve los logs de todos los habitos del usuario desde since.
func (r *PgHabitLogRepository) ListByUserSince(ctx context.Context, userID string, since time.Time) ([]domain.HabitLog, error) {
	const query = `
		SELECT l.id, l.habit_id, l.completed_at, l.mood_score, l.difficulty_rating
		FROM habit_logs l
		JOIN habits h ON h.id = l.habit_id
		WHERE h.user_id = $1 AND l.completed_at >= $2
		ORDER BY l.completed_at ASC
	`
	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	return collectLogs(rows)
}

func collectLogs(rows pgx.Rows) ([]domain.HabitLog, error) {
	defer rows.Close()

	var logs []domain.HabitLog
	for rows.Next() {
		var l domain.HabitLog
		if err := rows.Scan(
			&l.ID,
			&l.HabitID,
			&l.CompletedAt,
			&l.MoodScore,
			&l.DifficultyRating,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
