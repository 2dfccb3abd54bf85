package intelligence

import (
	"sort"
	"time"

	"habitos/internal/domain"
)

// MaxAtRisk limita la lista de habitos en riesgo del dashboard.
const MaxAtRisk = 5

// LogLookup devuelve los logs ya cargados de un habito.
type LogLookup func(habitID string) []domain.HabitLog

// LogIndex es un LogLookup respaldado por un mapa habitID -> logs.
type LogIndex map[string][]domain.HabitLog

func (idx LogIndex) Lookup(habitID string) []domain.HabitLog {
	return idx[habitID]
}

// Summarize evalua probabilidad y riesgo una vez por habito y arma el resumen.
// at_risk se ordena por probabilidad ascendente (peor primero) de forma estable.
func Summarize(habits []domain.Habit, logsFor LogLookup, now time.Time) domain.DashboardSummary {
	summary := domain.DashboardSummary{
		TotalHabits: len(habits),
		AtRisk:      []domain.HabitHealth{},
	}
	if len(habits) == 0 {
		return summary
	}

	var totalProb float64
	for _, h := range habits {
		var logs []domain.HabitLog
		if logsFor != nil {
			logs = logsFor(h.ID)
		}
		prob := SuccessProbability(h, logs, now)
		risk := AssessRisk(h, logs, now)
		totalProb += prob

		if h.CurrentStreak > 0 {
			summary.ActiveStreaks++
		}
		if risk.Level != domain.RiskLow {
			summary.AtRisk = append(summary.AtRisk, domain.HabitHealth{
				ID:                 h.ID,
				Title:              h.Title,
				SuccessProbability: prob,
				RiskLevel:          risk.Level,
				Recommendation:     risk.Recommendation,
			})
		}
	}

	summary.AvgSuccessProbability = totalProb / float64(len(habits))

	sort.SliceStable(summary.AtRisk, func(i, j int) bool {
		return summary.AtRisk[i].SuccessProbability < summary.AtRisk[j].SuccessProbability
	})
	if len(summary.AtRisk) > MaxAtRisk {
		summary.AtRisk = summary.AtRisk[:MaxAtRisk]
	}
	return summary
}
