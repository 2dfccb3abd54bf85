package intelligence

import (
	"time"

	"habitos/internal/domain"
)

const (
	probabilityBase          = 0.50
	probabilityStreakStep    = 0.05
	probabilityStreakCap     = 0.30
	probabilityDifficultyPen = 0.05

	MinSuccessProbability = 0.10
	MaxSuccessProbability = 0.95
)

// SuccessProbability estima la probabilidad de que el habito se cumpla manana.
// Combina momentum (racha), consistencia historica y dificultad.
func SuccessProbability(habit domain.Habit, logs []domain.HabitLog, now time.Time) float64 {
	streakBonus := min(float64(max(habit.CurrentStreak, 0))*probabilityStreakStep, probabilityStreakCap)

	days := daysSinceCreation(now, habit.CreatedAt)
	consistency := float64(len(logs)) / float64(days)
	// Acotado para no castigar de mas a los habitos nuevos.
	consistencyFactor := clamp((consistency-0.5)*0.4, -0.10, 0.20)

	difficultyPenalty := float64(normalizeDifficulty(habit.Difficulty)-1) * probabilityDifficultyPen

	p := probabilityBase + streakBonus + consistencyFactor - difficultyPenalty
	return clamp(p, MinSuccessProbability, MaxSuccessProbability)
}
