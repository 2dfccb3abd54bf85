package domain

import "time"

// Frequency es la cadencia objetivo de un habito.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// IsValid indica si la frecuencia es una de las soportadas.
func (f Frequency) IsValid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

const (
	MinDifficulty = 1
	MaxDifficulty = 5

	// InitialSuccessProbability es la estimacion de un habito recien creado.
	InitialSuccessProbability = 0.5

	// DefaultModelVersion etiqueta los PredictionRecord generados por las heuristicas.
	DefaultModelVersion = "heuristic-v1"
)

// Habit es una accion recurrente del usuario. No es duena de sus logs:
// HabitLog y PredictionRecord lo referencian por ID.
type Habit struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	Frequency          Frequency `json:"frequency"`
	Difficulty         int       `json:"difficulty"`          // 1-5
	CurrentStreak      int       `json:"current_streak"`      // >= 0
	LongestStreak      int       `json:"longest_streak"`      // >= CurrentStreak
	SuccessProbability float64   `json:"success_probability"` // [0.10, 0.95]
	CreatedAt          time.Time `json:"created_at"`
}

// HabitLog registra que el habito se cumplio. Inmutable; uno por dia UTC.
type HabitLog struct {
	ID               string    `json:"id"`
	HabitID          string    `json:"habit_id"`
	CompletedAt      time.Time `json:"completed_at"`
	MoodScore        *int      `json:"mood_score,omitempty"`
	DifficultyRating *int      `json:"difficulty_rating,omitempty"`
}

// PredictionRecord es el snapshot persistido de una evaluacion de riesgo.
type PredictionRecord struct {
	ID           string    `json:"id"`
	HabitID      string    `json:"habit_id"`
	PredictedFor time.Time `json:"predicted_for"`
	Score        float64   `json:"score"`
	RiskLevel    RiskLevel `json:"risk_level"`
	Explanation  string    `json:"explanation,omitempty"`
	ModelVersion string    `json:"model_version"`
	CreatedAt    time.Time `json:"created_at"`
}
