package intelligence

import (
	"time"

	"habitos/internal/domain"
)

// StreakUpdate es el resultado de aplicar una completion sobre la racha.
type StreakUpdate struct {
	CurrentStreak int
	LongestStreak int
	// Accepted indica que el llamador debe persistir un nuevo HabitLog.
	Accepted bool
}

// ApplyCompletion calcula la racha tras registrar una completion en now.
// Si ya existe un log del mismo dia UTC la llamada es un no-op (Accepted=false).
func ApplyCompletion(habit domain.Habit, logs []domain.HabitLog, now time.Time) StreakUpdate {
	unchanged := StreakUpdate{
		CurrentStreak: habit.CurrentStreak,
		LongestStreak: habit.LongestStreak,
	}

	todayStart := StartOfDay(now)
	var prior *domain.HabitLog
	for i := range logs {
		if !logs[i].CompletedAt.Before(todayStart) {
			return unchanged
		}
		if prior == nil || logs[i].CompletedAt.After(prior.CompletedAt) {
			prior = &logs[i]
		}
	}

	current := max(habit.CurrentStreak, 0)
	if prior == nil {
		current = 1
	} else {
		yesterday := todayStart.AddDate(0, 0, -1)
		priorDay := StartOfDay(prior.CompletedAt)
		switch {
		case priorDay.Equal(yesterday):
			current++
		case priorDay.Before(yesterday):
			current = 1
		default:
			// Un log previo de hoy ya corto arriba; no se toca la racha.
			return unchanged
		}
	}

	return StreakUpdate{
		CurrentStreak: current,
		LongestStreak: max(habit.LongestStreak, current),
		Accepted:      true,
	}
}

// LoggedToday devuelve el log del dia UTC de now, si existe.
func LoggedToday(logs []domain.HabitLog, now time.Time) (domain.HabitLog, bool) {
	todayStart := StartOfDay(now)
	for _, l := range logs {
		if !l.CompletedAt.Before(todayStart) {
			return l, true
		}
	}
	return domain.HabitLog{}, false
}
