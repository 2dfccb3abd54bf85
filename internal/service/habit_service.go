package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"habitos/internal/domain"
	"habitos/internal/intelligence"
	"habitos/internal/repository"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrInvalidHabit  = errors.New("invalid habit")
)

const (
	defaultHabitListLimit = 100
	defaultLockWait       = 3 * time.Second
	dashboardFetchLimit   = 8
	maxHabitTitleLength   = 200
)

// HabitService orquesta repositorios y heuristicas de inteligencia.
type HabitService struct {
	logger       *zap.Logger
	habits       repository.HabitRepository
	logs         repository.HabitLogRepository
	predictions  repository.PredictionRepository
	locker       HabitLocker
	clock        intelligence.Clock
	modelVersion string
	lockWait     time.Duration
}

type HabitServiceOption func(*HabitService)

// WithClock reemplaza el reloj del sistema (tests, herramientas).
func WithClock(c intelligence.Clock) HabitServiceOption {
	return func(s *HabitService) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithModelVersion fija la etiqueta de los PredictionRecord.
func WithModelVersion(v string) HabitServiceOption {
	return func(s *HabitService) {
		if v = strings.TrimSpace(v); v != "" {
			s.modelVersion = v
		}
	}
}

// WithLockWait fija cuanto espera LogCompletion por el lock del habito.
func WithLockWait(d time.Duration) HabitServiceOption {
	return func(s *HabitService) {
		if d > 0 {
			s.lockWait = d
		}
	}
}

func NewHabitService(
	logger *zap.Logger,
	habits repository.HabitRepository,
	logs repository.HabitLogRepository,
	predictions repository.PredictionRepository,
	locker HabitLocker,
	opts ...HabitServiceOption,
) *HabitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewMemoryHabitLocker()
	}
	s := &HabitService{
		logger:       logger,
		habits:       habits,
		logs:         logs,
		predictions:  predictions,
		locker:       locker,
		clock:        intelligence.SystemClock{},
		modelVersion: domain.DefaultModelVersion,
		lockWait:     defaultLockWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateHabitInput struct {
	Title       string
	Description string
	Frequency   string
	Difficulty  int
}

func (s *HabitService) CreateHabit(ctx context.Context, userID string, in CreateHabitInput) (domain.Habit, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || len(title) > maxHabitTitleLength {
		return domain.Habit{}, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidHabit, maxHabitTitleLength)
	}
	freq := domain.Frequency(strings.ToLower(strings.TrimSpace(in.Frequency)))
	if freq == "" {
		freq = domain.FrequencyDaily
	}
	if !freq.IsValid() {
		return domain.Habit{}, fmt.Errorf("%w: unknown frequency %q", ErrInvalidHabit, in.Frequency)
	}
	difficulty := in.Difficulty
	if difficulty == 0 {
		difficulty = domain.MinDifficulty
	}
	if difficulty < domain.MinDifficulty || difficulty > domain.MaxDifficulty {
		return domain.Habit{}, fmt.Errorf("%w: difficulty must be %d-%d", ErrInvalidHabit, domain.MinDifficulty, domain.MaxDifficulty)
	}

	habit := domain.Habit{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Title:              title,
		Description:        strings.TrimSpace(in.Description),
		Frequency:          freq,
		Difficulty:         difficulty,
		SuccessProbability: domain.InitialSuccessProbability,
		CreatedAt:          s.clock.Now(),
	}
	if err := s.habits.Create(ctx, habit); err != nil {
		return domain.Habit{}, fmt.Errorf("create habit: %w", err)
	}
	s.logger.Info("habit created", zap.String("habit_id", habit.ID), zap.String("user_id", userID))
	return habit, nil
}

// ListHabits pagina los habitos del usuario. limit <= 0 usa el default.
func (s *HabitService) ListHabits(ctx context.Context, userID string, skip, limit int) ([]domain.Habit, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultHabitListLimit
	}
	return s.habits.ListByUserID(ctx, userID, skip, limit)
}

// GetHabit devuelve el habito si pertenece al usuario.
func (s *HabitService) GetHabit(ctx context.Context, userID, habitID string) (domain.Habit, error) {
	habit, err := s.habits.GetByID(ctx, habitID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Habit{}, ErrHabitNotFound
		}
		return domain.Habit{}, err
	}
	// Un habito ajeno se reporta igual que uno inexistente.
	if habit.UserID != userID {
		return domain.Habit{}, ErrHabitNotFound
	}
	return habit, nil
}

type LogCompletionInput struct {
	MoodScore        *int
	DifficultyRating *int
}

// CompletionResult indica si la llamada creo un log nuevo o devolvio el de hoy.
type CompletionResult struct {
	Log     domain.HabitLog `json:"log"`
	Habit   domain.Habit    `json:"habit"`
	Created bool            `json:"created"`
}

// LogCompletion registra el cumplimiento de hoy. Es idempotente por dia UTC:
// la segunda llamada devuelve el log existente sin tocar rachas.
func (s *HabitService) LogCompletion(ctx context.Context, userID, habitID string, in LogCompletionInput) (CompletionResult, error) {
	if err := validateRating(in.MoodScore, "mood_score"); err != nil {
		return CompletionResult{}, err
	}
	if err := validateRating(in.DifficultyRating, "difficulty_rating"); err != nil {
		return CompletionResult{}, err
	}

	habit, err := s.GetHabit(ctx, userID, habitID)
	if err != nil {
		return CompletionResult{}, err
	}

	unlock, err := s.lockHabit(ctx, habit.ID)
	if err != nil {
		return CompletionResult{}, err
	}
	defer unlock()

	// Releer bajo lock: otro escritor pudo avanzar la racha.
	habit, err = s.GetHabit(ctx, userID, habitID)
	if err != nil {
		return CompletionResult{}, err
	}
	logs, err := s.logs.ListByHabitID(ctx, habit.ID, nil)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("list habit logs: %w", err)
	}

	now := s.clock.Now()
	update := intelligence.ApplyCompletion(habit, logs, now)
	if !update.Accepted {
		existing, _ := intelligence.LoggedToday(logs, now)
		return CompletionResult{Log: existing, Habit: habit}, nil
	}

	log := domain.HabitLog{
		ID:               uuid.NewString(),
		HabitID:          habit.ID,
		CompletedAt:      now,
		MoodScore:        in.MoodScore,
		DifficultyRating: in.DifficultyRating,
	}
	habit.CurrentStreak = update.CurrentStreak
	habit.LongestStreak = update.LongestStreak
	habit.SuccessProbability = intelligence.SuccessProbability(habit, append(logs, log), now)

	if err := s.habits.SaveCompletion(ctx, habit, log); err != nil {
		if errors.Is(err, repository.ErrDuplicateCompletion) {
			// Otra instancia gano la carrera sin pasar por este lock.
			return s.existingCompletion(ctx, userID, habitID, now)
		}
		return CompletionResult{}, fmt.Errorf("save completion: %w", err)
	}

	s.logger.Info("habit completion logged",
		zap.String("habit_id", habit.ID),
		zap.Int("current_streak", habit.CurrentStreak),
		zap.Float64("success_probability", habit.SuccessProbability),
	)
	return CompletionResult{Log: log, Habit: habit, Created: true}, nil
}

// lockHabit toma el lock del habito esperando como maximo lockWait.
// Toda escritura sobre el registro del habito pasa por aqui.
func (s *HabitService) lockHabit(ctx context.Context, habitID string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()
	return s.locker.Lock(lockCtx, habitID)
}

func (s *HabitService) existingCompletion(ctx context.Context, userID, habitID string, now time.Time) (CompletionResult, error) {
	habit, err := s.GetHabit(ctx, userID, habitID)
	if err != nil {
		return CompletionResult{}, err
	}
	since := intelligence.StartOfDay(now)
	logs, err := s.logs.ListByHabitID(ctx, habitID, &since)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("list habit logs: %w", err)
	}
	existing, ok := intelligence.LoggedToday(logs, now)
	if !ok {
		return CompletionResult{}, repository.ErrDuplicateCompletion
	}
	return CompletionResult{Log: existing, Habit: habit}, nil
}

func validateRating(v *int, field string) error {
	if v == nil {
		return nil
	}
	if *v < 1 || *v > 10 {
		return fmt.Errorf("%w: %s must be 1-10", ErrInvalidHabit, field)
	}
	return nil
}

// Insights evalua probabilidad y riesgo del habito, persiste la probabilidad
// y agrega un PredictionRecord al historial.
func (s *HabitService) Insights(ctx context.Context, userID, habitID string) (domain.HabitInsight, error) {
	habit, err := s.GetHabit(ctx, userID, habitID)
	if err != nil {
		return domain.HabitInsight{}, err
	}
	return s.evaluateLocked(ctx, habit.ID, s.clock.Now())
}

// evaluateLocked relee habito y logs bajo el lock del habito antes de
// persistir, para no pisar la racha escrita por una completion concurrente.
func (s *HabitService) evaluateLocked(ctx context.Context, habitID string, now time.Time) (domain.HabitInsight, error) {
	unlock, err := s.lockHabit(ctx, habitID)
	if err != nil {
		return domain.HabitInsight{}, err
	}
	defer unlock()

	habit, err := s.habits.GetByID(ctx, habitID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.HabitInsight{}, ErrHabitNotFound
		}
		return domain.HabitInsight{}, fmt.Errorf("get habit: %w", err)
	}
	logs, err := s.logs.ListByHabitID(ctx, habit.ID, nil)
	if err != nil {
		return domain.HabitInsight{}, fmt.Errorf("list habit logs: %w", err)
	}
	return s.evaluate(ctx, habit, logs, now)
}

func (s *HabitService) evaluate(ctx context.Context, habit domain.Habit, logs []domain.HabitLog, now time.Time) (domain.HabitInsight, error) {
	prob := intelligence.SuccessProbability(habit, logs, now)
	risk := intelligence.AssessRisk(habit, logs, now)

	habit.SuccessProbability = prob
	prediction := domain.PredictionRecord{
		ID:           uuid.NewString(),
		HabitID:      habit.ID,
		PredictedFor: now.Add(24 * time.Hour),
		Score:        risk.Score,
		RiskLevel:    risk.Level,
		Explanation:  risk.Recommendation,
		ModelVersion: s.modelVersion,
		CreatedAt:    now,
	}
	if err := s.habits.RecordInsight(ctx, habit, prediction); err != nil {
		return domain.HabitInsight{}, fmt.Errorf("record insight: %w", err)
	}

	history := make([]time.Time, 0, len(logs))
	for _, l := range logs {
		history = append(history, l.CompletedAt)
	}
	return domain.HabitInsight{
		HabitID:            habit.ID,
		SuccessProbability: prob,
		RiskScore:          risk.Score,
		RiskLevel:          risk.Level,
		Factors:            risk.Factors,
		Recommendation:     risk.Recommendation,
		ModelVersion:       s.modelVersion,
		AsOf:               now,
		History:            history,
	}, nil
}

// Predictions lista el historial de evaluaciones, mas reciente primero.
func (s *HabitService) Predictions(ctx context.Context, userID, habitID string, limit int) ([]domain.PredictionRecord, error) {
	if _, err := s.GetHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}
	return s.predictions.ListByHabitID(ctx, habitID, limit)
}

// Dashboard carga los logs de cada habito en paralelo y delega el resumen.
func (s *HabitService) Dashboard(ctx context.Context, userID string) (domain.DashboardSummary, error) {
	habits, err := s.habits.ListByUserID(ctx, userID, 0, 0)
	if err != nil {
		return domain.DashboardSummary{}, fmt.Errorf("list habits: %w", err)
	}
	index, err := s.loadLogs(ctx, habits)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	return intelligence.Summarize(habits, index.Lookup, s.clock.Now()), nil
}

func (s *HabitService) loadLogs(ctx context.Context, habits []domain.Habit) (intelligence.LogIndex, error) {
	results := make([][]domain.HabitLog, len(habits))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dashboardFetchLimit)
	for i, h := range habits {
		g.Go(func() error {
			logs, err := s.logs.ListByHabitID(gctx, h.ID, nil)
			if err != nil {
				return fmt.Errorf("list logs for habit %s: %w", h.ID, err)
			}
			results[i] = logs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	index := make(intelligence.LogIndex, len(habits))
	for i, h := range habits {
		index[h.ID] = results[i]
	}
	return index, nil
}

// SnapshotUser recalcula y persiste la evaluacion de cada habito del usuario.
// Devuelve cuantos habitos se evaluaron; los que estan ocupados se saltan.
func (s *HabitService) SnapshotUser(ctx context.Context, userID string) (int, error) {
	habits, err := s.habits.ListByUserID(ctx, userID, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("list habits: %w", err)
	}
	now := s.clock.Now()
	evaluated := 0
	for _, h := range habits {
		if _, err := s.evaluateLocked(ctx, h.ID, now); err != nil {
			if errors.Is(err, ErrHabitBusy) || errors.Is(err, ErrHabitNotFound) {
				s.logger.Warn("snapshot habit skipped", zap.String("habit_id", h.ID), zap.Error(err))
				continue
			}
			return evaluated, fmt.Errorf("snapshot habit %s: %w", h.ID, err)
		}
		evaluated++
	}
	return evaluated, nil
}

// RecentCompletions devuelve los logs del usuario desde now - days.
func (s *HabitService) RecentCompletions(ctx context.Context, userID string, days int) ([]domain.HabitLog, error) {
	if days <= 0 {
		days = 1
	}
	since := s.clock.Now().Add(-time.Duration(days) * 24 * time.Hour)
	return s.logs.ListByUserSince(ctx, userID, since)
}
