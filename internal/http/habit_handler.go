package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habitos/internal/domain"
	"habitos/internal/service"
)

type habitAPI interface {
	CreateHabit(ctx context.Context, userID string, in service.CreateHabitInput) (domain.Habit, error)
	ListHabits(ctx context.Context, userID string, skip, limit int) ([]domain.Habit, error)
	LogCompletion(ctx context.Context, userID, habitID string, in service.LogCompletionInput) (service.CompletionResult, error)
	Insights(ctx context.Context, userID, habitID string) (domain.HabitInsight, error)
	Predictions(ctx context.Context, userID, habitID string, limit int) ([]domain.PredictionRecord, error)
	Dashboard(ctx context.Context, userID string) (domain.DashboardSummary, error)
}

// HabitHandler expone habitos, completions e inteligencia por HTTP.
type HabitHandler struct {
	logger *zap.Logger
	habits habitAPI
}

func NewHabitHandler(logger *zap.Logger, habits habitAPI) *HabitHandler {
	return &HabitHandler{logger: logger, habits: habits}
}

// CreateHabit maneja POST /habits.
func (h *HabitHandler) CreateHabit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		Frequency   string `json:"frequency"`
		Difficulty  int    `json:"difficulty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create habit request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	habit, err := h.habits.CreateHabit(c.Request.Context(), userID, service.CreateHabitInput{
		Title:       req.Title,
		Description: req.Description,
		Frequency:   req.Frequency,
		Difficulty:  req.Difficulty,
	})
	if err != nil {
		h.fail(c, err, "create habit")
		return
	}
	c.JSON(http.StatusCreated, habit)
}

// ListHabits maneja GET /habits?skip=&limit=.
func (h *HabitHandler) ListHabits(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	skip, okSkip := queryInt(c, "skip", 0)
	limit, okLimit := queryInt(c, "limit", 100)
	if !okSkip || !okLimit || skip < 0 || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pagination"})
		return
	}

	habits, err := h.habits.ListHabits(c.Request.Context(), userID, skip, limit)
	if err != nil {
		h.fail(c, err, "list habits")
		return
	}
	if habits == nil {
		habits = []domain.Habit{}
	}
	c.JSON(http.StatusOK, habits)
}

// LogCompletion maneja POST /habits/:id/log. 201 si crea el log del dia,
// 200 si ya existia.
func (h *HabitHandler) LogCompletion(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		MoodScore        *int `json:"mood_score"`
		DifficultyRating *int `json:"difficulty_rating"`
	}
	// El body es opcional.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("invalid log request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res, err := h.habits.LogCompletion(c.Request.Context(), userID, c.Param("id"), service.LogCompletionInput{
		MoodScore:        req.MoodScore,
		DifficultyRating: req.DifficultyRating,
	})
	if err != nil {
		h.fail(c, err, "log completion")
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

// Insights maneja GET /habits/:id/insights.
func (h *HabitHandler) Insights(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	insight, err := h.habits.Insights(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.fail(c, err, "habit insights")
		return
	}
	c.JSON(http.StatusOK, insight)
}

// Predictions maneja GET /habits/:id/predictions?limit=.
func (h *HabitHandler) Predictions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit, okLimit := queryInt(c, "limit", 30)
	if !okLimit || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	preds, err := h.habits.Predictions(c.Request.Context(), userID, c.Param("id"), limit)
	if err != nil {
		h.fail(c, err, "habit predictions")
		return
	}
	if preds == nil {
		preds = []domain.PredictionRecord{}
	}
	c.JSON(http.StatusOK, preds)
}

// DashboardSummary maneja GET /habits/dashboard/summary.
func (h *HabitHandler) DashboardSummary(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	summary, err := h.habits.Dashboard(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err, "dashboard summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *HabitHandler) fail(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, service.ErrHabitNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
	case errors.Is(err, service.ErrInvalidHabit):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrHabitBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "habit is being updated, retry"})
	default:
		h.logger.Error(op+" failed", zap.Error(err), zap.String("habit_id", c.Param("id")))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
