package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habitos/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas de la API.
func NewRouter(
	logger *zap.Logger,
	allowedOrigins []string,
	jwtSvc *service.JWTService,
	authH *AuthHandler,
	habitH *HabitHandler,
	assistantH *AssistantHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(
		zapLoggerMiddleware(logger),
		gin.Recovery(),
		corsMiddleware(allowedOrigins),
		jsonContentTypeMiddleware(),
	)

	r.GET("/", Health)

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.RefreshToken)
	auth.POST("/logout", authH.Logout)
	auth.GET("/me", JWTAuthMiddleware(jwtSvc), authH.Me)

	protected := api.Group("", JWTAuthMiddleware(jwtSvc))

	habits := protected.Group("/habits")
	habits.POST("", habitH.CreateHabit)
	habits.GET("", habitH.ListHabits)
	habits.GET("/dashboard/summary", habitH.DashboardSummary)
	habits.POST("/:id/log", habitH.LogCompletion)
	habits.GET("/:id/insights", habitH.Insights)
	habits.GET("/:id/predictions", habitH.Predictions)

	assistant := protected.Group("/assistant")
	assistant.GET("/daily-briefing", assistantH.DailyBriefing)
	assistant.POST("/onboarding", assistantH.Onboarding)
	assistant.GET("/plan", assistantH.Plan)

	return r
}

// Health maneja GET /.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"system":  "HabitOS",
		"status":  "online",
		"message": "Discipline is freedom.",
	})
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
