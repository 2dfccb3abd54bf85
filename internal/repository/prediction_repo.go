package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"habitos/internal/domain"
)

// PredictionRepository lee el historial append-only de predicciones.
type PredictionRepository interface {
	ListByHabitID(ctx context.Context, habitID string, limit int) ([]domain.PredictionRecord, error)
}

type PgPredictionRepository struct {
	pool *pgxpool.Pool
}

func NewPgPredictionRepository(pool *pgxpool.Pool) *PgPredictionRepository {
	return &PgPredictionRepository{pool: pool}
}

func (r *PgPredictionRepository) ListByHabitID(ctx context.Context, habitID string, limit int) ([]domain.PredictionRecord, error) {
	const query = `
		SELECT id, habit_id, predicted_for, score, risk_level, explanation, model_version, created_at
		FROM prediction_logs
		WHERE habit_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	if limit <= 0 {
		limit = 30
	}
	rows, err := r.pool.Query(ctx, query, habitID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PredictionRecord
	for rows.Next() {
		var p domain.PredictionRecord
		var level string
		if err := rows.Scan(
			&p.ID,
			&p.HabitID,
			&p.PredictedFor,
			&p.Score,
			&level,
			&p.Explanation,
			&p.ModelVersion,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		p.RiskLevel = domain.RiskLevel(level)
		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
