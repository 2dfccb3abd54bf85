package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"habitos/internal/domain"
	"habitos/internal/intelligence"
	"habitos/internal/repository"
)

// memStore respalda los tres repositorios de habitos en memoria.
type memStore struct {
	mu          sync.Mutex
	habits      map[string]domain.Habit
	logs        map[string][]domain.HabitLog
	predictions []domain.PredictionRecord

	listLogsErr   error
	afterListLogs func(habitID string)
	beforeSave    func(habitID string, log domain.HabitLog)
	saveCalls     int
}

func newMemStore() *memStore {
	return &memStore{
		habits: make(map[string]domain.Habit),
		logs:   make(map[string][]domain.HabitLog),
	}
}

type memHabits struct{ *memStore }
type memLogs struct{ *memStore }
type memPredictions struct{ *memStore }

var (
	_ repository.HabitRepository      = memHabits{}
	_ repository.HabitLogRepository   = memLogs{}
	_ repository.PredictionRepository = memPredictions{}
)

func (m memHabits) Create(_ context.Context, habit domain.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.habits[habit.ID] = habit
	return nil
}

func (m memHabits) GetByID(_ context.Context, id string) (domain.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[id]
	if !ok {
		return domain.Habit{}, pgx.ErrNoRows
	}
	return h, nil
}

func (m memHabits) ListByUserID(_ context.Context, userID string, offset, limit int) ([]domain.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Habit
	for _, h := range m.habits {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []domain.Habit{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m memHabits) SaveCompletion(_ context.Context, habit domain.Habit, log domain.HabitLog) error {
	if m.beforeSave != nil {
		m.beforeSave(habit.ID, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	day := intelligence.StartOfDay(log.CompletedAt)
	for _, l := range m.logs[habit.ID] {
		if intelligence.StartOfDay(l.CompletedAt).Equal(day) {
			return repository.ErrDuplicateCompletion
		}
	}
	if _, ok := m.habits[habit.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.logs[habit.ID] = append(m.logs[habit.ID], log)
	m.habits[habit.ID] = habit
	return nil
}

func (m memHabits) RecordInsight(_ context.Context, habit domain.Habit, prediction domain.PredictionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.habits[habit.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.SuccessProbability = habit.SuccessProbability
	m.habits[habit.ID] = stored
	m.predictions = append(m.predictions, prediction)
	return nil
}

func (m memLogs) ListByHabitID(_ context.Context, habitID string, since *time.Time) ([]domain.HabitLog, error) {
	m.mu.Lock()
	if m.listLogsErr != nil {
		m.mu.Unlock()
		return nil, m.listLogsErr
	}
	var out []domain.HabitLog
	for _, l := range m.logs[habitID] {
		if since != nil && l.CompletedAt.Before(*since) {
			continue
		}
		out = append(out, l)
	}
	hook := m.afterListLogs
	m.mu.Unlock()

	if hook != nil {
		hook(habitID)
	}
	return out, nil
}

func (m memLogs) ListByUserSince(_ context.Context, userID string, since time.Time) ([]domain.HabitLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.HabitLog
	for id, logs := range m.logs {
		if m.habits[id].UserID != userID {
			continue
		}
		for _, l := range logs {
			if !l.CompletedAt.Before(since) {
				out = append(out, l)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}

func (m memPredictions) ListByHabitID(_ context.Context, habitID string, limit int) ([]domain.PredictionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PredictionRecord
	for i := len(m.predictions) - 1; i >= 0; i-- {
		if m.predictions[i].HabitID == habitID {
			out = append(out, m.predictions[i])
		}
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) seedLogs(habitID string, times ...time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range times {
		m.logs[habitID] = append(m.logs[habitID], domain.HabitLog{
			ID:          habitID + "-seed-" + t.Format("20060102") + "-" + string(rune('a'+i)),
			HabitID:     habitID,
			CompletedAt: t,
		})
	}
}

// stepClock es un reloj mutable para simular dias consecutivos.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *stepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type busyLocker struct{}

func (busyLocker) Lock(context.Context, string) (func(), error) {
	return nil, ErrHabitBusy
}

var errStoreDown = errors.New("store down")
