package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"habitos/internal/domain"
	"habitos/internal/llm"
)

type assistantHabits interface {
	ListHabits(ctx context.Context, userID string, skip, limit int) ([]domain.Habit, error)
	RecentCompletions(ctx context.Context, userID string, days int) ([]domain.HabitLog, error)
}

type assistantUsers interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
	UpdateGoals(ctx context.Context, id, goals string) (domain.User, error)
}

// AssistantService arma briefing diario y plan del dia con el LLM.
// Si el modelo no respondio al probe de arranque, devuelve textos fijos.
type AssistantService struct {
	logger    *zap.Logger
	llm       llm.LLMClient
	habits    assistantHabits
	users     assistantUsers
	available atomic.Bool
}

func NewAssistantService(logger *zap.Logger, client llm.LLMClient, habits assistantHabits, users assistantUsers) *AssistantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AssistantService{
		logger: logger,
		llm:    client,
		habits: habits,
		users:  users,
	}
	s.available.Store(client != nil)
	return s
}

// Init verifica el modelo una vez. Un fallo deja el asistente en modo degradado.
func (s *AssistantService) Init(ctx context.Context) {
	if s.llm == nil {
		s.available.Store(false)
		return
	}
	prober, ok := s.llm.(llm.Prober)
	if !ok {
		s.available.Store(true)
		return
	}
	if err := prober.Probe(ctx); err != nil {
		s.logger.Warn("llm probe failed, assistant disabled", zap.Error(err))
		s.available.Store(false)
		return
	}
	s.logger.Info("llm probe ok, assistant enabled")
	s.available.Store(true)
}

func (s *AssistantService) Available() bool {
	return s.available.Load()
}

func (s *AssistantService) DailyBriefing(ctx context.Context, userID string) (string, error) {
	habits, err := s.habits.ListHabits(ctx, userID, 0, 0)
	if err != nil {
		return "", fmt.Errorf("list habits: %w", err)
	}
	if len(habits) == 0 {
		return briefingWelcome, nil
	}
	recent, err := s.habits.RecentCompletions(ctx, userID, briefingLookbackDays)
	if err != nil {
		return "", fmt.Errorf("recent completions: %w", err)
	}
	user := s.lookupUser(ctx, userID)

	if !s.Available() {
		return assistantUnavailable, nil
	}

	var summary strings.Builder
	for _, h := range habits {
		fmt.Fprintf(&summary, "- %s (%s, Streak: %d)\n", h.Title, h.Frequency, h.CurrentStreak)
	}
	activity := fmt.Sprintf("Total completions in last %d days: %d", briefingLookbackDays, len(recent))
	prompt := fmt.Sprintf(dailyBriefingPromptTemplate,
		firstNonEmpty(user.DisplayName, defaultBriefingName),
		firstNonEmpty(user.Goals, defaultBriefingGoals),
		strings.TrimRight(summary.String(), "\n"),
		activity,
	)

	out, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("daily briefing generation failed", zap.Error(err), zap.String("user_id", userID))
		return briefingFallback, nil
	}
	if cleaned := cleanLLMText(out); cleaned != "" {
		return cleaned, nil
	}
	return briefingFallback, nil
}

func (s *AssistantService) DayPlan(ctx context.Context, userID string) (string, error) {
	habits, err := s.habits.ListHabits(ctx, userID, 0, 0)
	if err != nil {
		return "", fmt.Errorf("list habits: %w", err)
	}
	if len(habits) == 0 {
		return planNoHabits, nil
	}
	user := s.lookupUser(ctx, userID)

	if !s.Available() {
		return assistantUnavailable, nil
	}

	var summary strings.Builder
	for _, h := range habits {
		fmt.Fprintf(&summary, "- %s (%s, Difficulty: %d/5)\n", h.Title, h.Frequency, h.Difficulty)
	}
	prompt := fmt.Sprintf(dayPlanPromptTemplate,
		firstNonEmpty(user.DisplayName, defaultPlanName),
		firstNonEmpty(user.Goals, defaultPlanGoals),
		strings.TrimRight(summary.String(), "\n"),
	)

	out, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("day plan generation failed", zap.Error(err), zap.String("user_id", userID))
		return planFallback, nil
	}
	if cleaned := cleanLLMText(out); cleaned != "" {
		return cleaned, nil
	}
	return planFallback, nil
}

// SaveGoals guarda los objetivos del onboarding.
func (s *AssistantService) SaveGoals(ctx context.Context, userID, goals string) (domain.User, error) {
	return s.users.UpdateGoals(ctx, userID, goals)
}

// lookupUser no falla: sin usuario se usan los defaults del prompt.
func (s *AssistantService) lookupUser(ctx context.Context, userID string) domain.User {
	if s.users == nil {
		return domain.User{}
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		s.logger.Debug("assistant user lookup failed", zap.Error(err), zap.String("user_id", userID))
		return domain.User{}
	}
	return user
}

func firstNonEmpty(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
