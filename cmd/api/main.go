package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"habitos/internal/config"
	"habitos/internal/db"
	"habitos/internal/email"
	apihttp "habitos/internal/http"
	"habitos/internal/jobs"
	"habitos/internal/llm"
	"habitos/internal/repository"
	"habitos/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("db schema", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	habitRepo := repository.NewPgHabitRepository(pool)
	logRepo := repository.NewPgHabitLogRepository(pool)
	predictionRepo := repository.NewPgPredictionRepository(pool)

	var (
		locker       service.HabitLocker
		tokenStore   service.RefreshTokenStore
		loginLimiter service.LoginRateLimiter
		redisClient  *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-process fallbacks", zap.Error(err))
		} else {
			locker = service.NewRedisHabitLocker(redisClient, time.Duration(cfg.HabitLockTTLSeconds)*time.Second)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, 5*time.Minute, 10)
		}
		cancel()
		defer redisClient.Close()
	}
	if locker == nil {
		logger.Info("habit locks are in-process; run a single instance")
	}

	jwtSvc := service.NewJWTService(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
	habitSvc := service.NewHabitService(logger, habitRepo, logRepo, predictionRepo, locker,
		service.WithModelVersion(cfg.ModelVersion),
	)
	userSvc := service.NewUserService(logger, userRepo, loginLimiter)
	assistantSvc := service.NewAssistantService(logger, llmClient, habitSvc, userSvc)
	assistantSvc.Init(ctx)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	scheduler := jobs.NewScheduler(logger, userSvc, habitSvc, assistantSvc, emailSender)
	if err := scheduler.Register(cfg.SnapshotCron, cfg.BriefingCron); err != nil {
		logger.Fatal("scheduler", zap.Error(err))
	}
	scheduler.Start()

	router := apihttp.NewRouter(
		logger,
		cfg.CORSAllowedOrigins,
		jwtSvc,
		apihttp.NewAuthHandler(logger, userSvc, jwtSvc),
		apihttp.NewHabitHandler(logger, habitSvc),
		apihttp.NewAssistantHandler(logger, assistantSvc),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	scheduler.Stop(shutdownCtx)
}
