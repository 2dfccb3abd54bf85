package intelligence

import (
	"fmt"
	"time"

	"habitos/internal/domain"
)

const (
	riskBase = 0.45

	MinRiskScore = 0.05
	MaxRiskScore = 0.95

	highRiskThreshold   = 0.70
	mediumRiskThreshold = 0.50
)

// Nombres de factores en el orden estable en que se emiten.
const (
	FactorDifficulty  = "difficulty"
	FactorInactivity  = "inactivity"
	FactorConsistency = "consistency"
	FactorStreak      = "streak"
)

const (
	RecommendationHigh   = "book a micro-version tomorrow + accountability ping"
	RecommendationMedium = "schedule earlier, cut scope 20%"
	RecommendationLow    = "maintain cadence"
)

// AssessRisk estima el riesgo de fallo del dia siguiente y lo descompone en factores.
//
// Senales:
//   - dificultad: +0.06 por nivel sobre 1 (max +0.24)
//   - inactividad: +0.08 por dia desde la ultima completion (max +0.32)
//   - consistencia: -0.25 * logs/dias (max -0.30)
//   - racha: -0.05 por dia de racha (max -0.35)
//
// Los cuatro factores se devuelven siempre, en ese orden, aunque su impacto sea 0.
func AssessRisk(habit domain.Habit, logs []domain.HabitLog, now time.Time) domain.RiskAssessment {
	days := daysSinceCreation(now, habit.CreatedAt)
	total := len(logs)

	// Un habito sin completions se trata como maximamente inactivo.
	daysSinceLast := days
	if last, ok := latestLog(logs); ok {
		daysSinceLast = daysBetween(now, last.CompletedAt)
	}

	consistency := float64(total) / float64(days)
	difficulty := normalizeDifficulty(habit.Difficulty)
	streak := max(habit.CurrentStreak, 0)

	factors := []domain.RiskFactor{
		{
			Factor: FactorDifficulty,
			Impact: float64(difficulty-1) * 0.06,
			Note:   fmt.Sprintf("difficulty %d/5", difficulty),
		},
		{
			Factor: FactorInactivity,
			Impact: min(float64(daysSinceLast)*0.08, 0.32),
			Note:   fmt.Sprintf("%d days since last completion", daysSinceLast),
		},
		{
			Factor: FactorConsistency,
			Impact: 0 - min(consistency*0.25, 0.30), // 0 - x evita -0 en JSON
			Note:   fmt.Sprintf("%d logs / %d days", total, days),
		},
		{
			Factor: FactorStreak,
			Impact: 0 - min(float64(streak)*0.05, 0.35),
			Note:   fmt.Sprintf("streak %d", streak),
		},
	}

	score := riskBase
	for _, f := range factors {
		score += f.Impact
	}
	score = clamp(score, MinRiskScore, MaxRiskScore)

	level, recommendation := classifyRisk(score)
	return domain.RiskAssessment{
		Score:          score,
		Level:          level,
		Factors:        factors,
		Recommendation: recommendation,
	}
}

func classifyRisk(score float64) (domain.RiskLevel, string) {
	switch {
	case score >= highRiskThreshold:
		return domain.RiskHigh, RecommendationHigh
	case score >= mediumRiskThreshold:
		return domain.RiskMedium, RecommendationMedium
	default:
		return domain.RiskLow, RecommendationLow
	}
}

func latestLog(logs []domain.HabitLog) (domain.HabitLog, bool) {
	if len(logs) == 0 {
		return domain.HabitLog{}, false
	}
	last := logs[0]
	for _, l := range logs[1:] {
		if l.CompletedAt.After(last.CompletedAt) {
			last = l
		}
	}
	return last, true
}
