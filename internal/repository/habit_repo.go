package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitos/internal/domain"
)

// ErrDuplicateCompletion indica que el habito ya tiene un log en ese dia UTC.
var ErrDuplicateCompletion = errors.New("habit already completed on that day")

// HabitRepository define el contrato de persistencia para habitos.
// Las escrituras que tocan racha o probabilidad van en una sola transaccion
// junto con el log o la prediccion que las origina.
type HabitRepository interface {
	Create(ctx context.Context, habit domain.Habit) error
	GetByID(ctx context.Context, id string) (domain.Habit, error)
	ListByUserID(ctx context.Context, userID string, offset, limit int) ([]domain.Habit, error)
	SaveCompletion(ctx context.Context, habit domain.Habit, log domain.HabitLog) error
	RecordInsight(ctx context.Context, habit domain.Habit, prediction domain.PredictionRecord) error
}

// PgHabitRepository implementa HabitRepository usando pgxpool.
type PgHabitRepository struct {
	pool *pgxpool.Pool
}

func NewPgHabitRepository(pool *pgxpool.Pool) *PgHabitRepository {
	return &PgHabitRepository{pool: pool}
}

const habitColumns = `id, user_id, title, description, frequency, difficulty,
	current_streak, longest_streak, success_probability, created_at`

func (r *PgHabitRepository) Create(ctx context.Context, habit domain.Habit) error {
	const query = `
		INSERT INTO habits (id, user_id, title, description, frequency, difficulty,
			current_streak, longest_streak, success_probability, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		habit.ID,
		habit.UserID,
		habit.Title,
		habit.Description,
		string(habit.Frequency),
		habit.Difficulty,
		habit.CurrentStreak,
		habit.LongestStreak,
		habit.SuccessProbability,
		habit.CreatedAt,
	)
	return err
}

func (r *PgHabitRepository) GetByID(ctx context.Context, id string) (domain.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE id = $1`
	return scanHabit(r.pool.QueryRow(ctx, query, id))
}

// ListByUserID lista los habitos del usuario; limit <= 0 significa sin limite.
func (r *PgHabitRepository) ListByUserID(ctx context.Context, userID string, offset, limit int) ([]domain.Habit, error) {
	query := `SELECT ` + habitColumns + `
		FROM habits
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
		OFFSET $2 LIMIT $3
	`
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	rows, err := r.pool.Query(ctx, query, userID, max(offset, 0), limitArg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []domain.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return habits, nil
}

// SaveCompletion inserta el log y actualiza racha y probabilidad del habito.
func (r *PgHabitRepository) SaveCompletion(ctx context.Context, habit domain.Habit, log domain.HabitLog) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertLog = `
		INSERT INTO habit_logs (id, habit_id, completed_at, completed_on, mood_score, difficulty_rating)
		VALUES ($1, $2, $3, $4::date, $5, $6)
		ON CONFLICT (habit_id, completed_on) DO NOTHING
	`
	tag, err := tx.Exec(ctx, insertLog,
		log.ID,
		log.HabitID,
		log.CompletedAt,
		log.CompletedAt.UTC().Format("2006-01-02"),
		log.MoodScore,
		log.DifficultyRating,
	)
	if err != nil {
		return fmt.Errorf("insert habit log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateCompletion
	}

	const updateHabit = `
		UPDATE habits
		SET current_streak = $2, longest_streak = $3, success_probability = $4
		WHERE id = $1
	`
	tag, err = tx.Exec(ctx, updateHabit, habit.ID, habit.CurrentStreak, habit.LongestStreak, habit.SuccessProbability)
	if err != nil {
		return fmt.Errorf("update habit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

// RecordInsight agrega un PredictionRecord y persiste la ultima probabilidad.
func (r *PgHabitRepository) RecordInsight(ctx context.Context, habit domain.Habit, prediction domain.PredictionRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertPrediction = `
		INSERT INTO prediction_logs (id, habit_id, predicted_for, score, risk_level, explanation, model_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := tx.Exec(ctx, insertPrediction,
		prediction.ID,
		prediction.HabitID,
		prediction.PredictedFor,
		prediction.Score,
		string(prediction.RiskLevel),
		prediction.Explanation,
		prediction.ModelVersion,
		prediction.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}

	const updateProbability = `UPDATE habits SET success_probability = $2 WHERE id = $1`
	tag, err := tx.Exec(ctx, updateProbability, habit.ID, habit.SuccessProbability)
	if err != nil {
		return fmt.Errorf("update probability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

func scanHabit(row pgx.Row) (domain.Habit, error) {
	var h domain.Habit
	var frequency string
	err := row.Scan(
		&h.ID,
		&h.UserID,
		&h.Title,
		&h.Description,
		&frequency,
		&h.Difficulty,
		&h.CurrentStreak,
		&h.LongestStreak,
		&h.SuccessProbability,
		&h.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Habit{}, err
	}
	h.Frequency = domain.Frequency(frequency)
	return h, err
}
