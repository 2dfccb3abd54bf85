package domain

import "time"

// RiskLevel agrupa el risk score en tres bandas.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskFactor es una contribucion al riesgo. Impact positivo = mas riesgo.
type RiskFactor struct {
	Factor string  `json:"factor"`
	Impact float64 `json:"impact"`
	Note   string  `json:"note,omitempty"`
}

// RiskAssessment es la salida del evaluador de riesgo para el dia siguiente.
type RiskAssessment struct {
	Score          float64      `json:"risk_score"`
	Level          RiskLevel    `json:"risk_level"`
	Factors        []RiskFactor `json:"factors"`
	Recommendation string       `json:"recommendation"`
}

// HabitInsight es la vista de inteligencia de un habito.
type HabitInsight struct {
	HabitID            string       `json:"habit_id"`
	SuccessProbability float64      `json:"success_probability"`
	RiskScore          float64      `json:"risk_score"`
	RiskLevel          RiskLevel    `json:"risk_level"`
	Factors            []RiskFactor `json:"factors"`
	Recommendation     string       `json:"recommendation"`
	ModelVersion       string       `json:"model_version"`
	AsOf               time.Time    `json:"as_of"`
	History            []time.Time  `json:"history"`
}

// HabitHealth es la proyeccion de un habito en riesgo para el dashboard.
type HabitHealth struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	SuccessProbability float64   `json:"success_probability"`
	RiskLevel          RiskLevel `json:"risk_level"`
	Recommendation     string    `json:"recommendation"`
}

// DashboardSummary resume el estado de todos los habitos de un usuario.
type DashboardSummary struct {
	TotalHabits           int           `json:"total_habits"`
	AvgSuccessProbability float64       `json:"avg_success_probability"`
	ActiveStreaks         int           `json:"active_streaks"`
	AtRisk                []HabitHealth `json:"at_risk"`
}
