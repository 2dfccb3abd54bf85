package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habitos/internal/domain"
	"habitos/internal/service"
)

type assistantAPI interface {
	DailyBriefing(ctx context.Context, userID string) (string, error)
	DayPlan(ctx context.Context, userID string) (string, error)
	SaveGoals(ctx context.Context, userID, goals string) (domain.User, error)
}

// AssistantHandler expone el briefing, el plan del dia y el onboarding de objetivos.
type AssistantHandler struct {
	logger    *zap.Logger
	assistant assistantAPI
}

func NewAssistantHandler(logger *zap.Logger, assistant assistantAPI) *AssistantHandler {
	return &AssistantHandler{logger: logger, assistant: assistant}
}

// DailyBriefing maneja GET /assistant/daily-briefing.
func (h *AssistantHandler) DailyBriefing(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	briefing, err := h.assistant.DailyBriefing(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("daily briefing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build briefing"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"briefing": briefing})
}

// Onboarding maneja POST /assistant/onboarding. Acepta goals en el body JSON
// o como query param.
func (h *AssistantHandler) Onboarding(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Goals string `json:"goals"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	goals := strings.TrimSpace(req.Goals)
	if goals == "" {
		goals = strings.TrimSpace(c.Query("goals"))
	}
	if goals == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "goals are required"})
		return
	}

	if _, err := h.assistant.SaveGoals(c.Request.Context(), userID, goals); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("save goals failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save goals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Goals updated successfully"})
}

// Plan maneja GET /assistant/plan.
func (h *AssistantHandler) Plan(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	plan, err := h.assistant.DayPlan(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("day plan failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build plan"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan})
}
