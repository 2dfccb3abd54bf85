package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"habitos/internal/config"
	"habitos/internal/db"
	"habitos/internal/domain"
	"habitos/internal/llm"
	"habitos/internal/repository"
	"habitos/internal/service"
)

const (
	cliEmail    = "cli_habits@example.com"
	cliPassword = "cli-habits-local"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewPgUserRepository(pool)
	habitSvc := service.NewHabitService(logger,
		repository.NewPgHabitRepository(pool),
		repository.NewPgHabitLogRepository(pool),
		repository.NewPgPredictionRepository(pool),
		nil,
		service.WithModelVersion(cfg.ModelVersion),
	)
	userSvc := service.NewUserService(logger, userRepo, nil)
	assistantSvc := service.NewAssistantService(logger,
		llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger),
		habitSvc, userSvc,
	)
	assistantSvc.Init(ctx)

	user, err := ensureUser(ctx, userRepo, userSvc)
	if err != nil {
		log.Fatal(err)
	}

	for {
		fmt.Printf("\n===== HabitOS (%s) =====\n", user.Email)
		fmt.Println("[1] Listar habitos")
		fmt.Println("[2] Crear habito")
		fmt.Println("[3] Registrar completion")
		fmt.Println("[4] Ver insights")
		fmt.Println("[5] Dashboard")
		fmt.Println("[6] Briefing diario")
		fmt.Println("[7] Plan del dia")
		fmt.Println("[8] Definir objetivos")
		fmt.Println("[9] Salir")
		fmt.Print("Selecciona una opcion: ")

		line, _ := reader.ReadString('\n')
		switch strings.TrimSpace(line) {
		case "1":
			if _, err := listHabits(ctx, habitSvc, user.ID); err != nil {
				fmt.Printf("Error listando habitos: %v\n", err)
			}
		case "2":
			if err := createHabitFlow(ctx, reader, habitSvc, user.ID); err != nil {
				fmt.Printf("Error creando habito: %v\n", err)
			}
		case "3":
			if err := logCompletionFlow(ctx, reader, habitSvc, user.ID); err != nil {
				fmt.Printf("Error registrando completion: %v\n", err)
			}
		case "4":
			if err := insightsFlow(ctx, reader, habitSvc, user.ID); err != nil {
				fmt.Printf("Error calculando insights: %v\n", err)
			}
		case "5":
			if err := dashboardFlow(ctx, habitSvc, user.ID); err != nil {
				fmt.Printf("Error en dashboard: %v\n", err)
			}
		case "6":
			text, err := assistantSvc.DailyBriefing(ctx, user.ID)
			if err != nil {
				fmt.Printf("Error en briefing: %v\n", err)
				continue
			}
			fmt.Println(text)
		case "7":
			text, err := assistantSvc.DayPlan(ctx, user.ID)
			if err != nil {
				fmt.Printf("Error en plan: %v\n", err)
				continue
			}
			fmt.Println(text)
		case "8":
			fmt.Print("Objetivos: ")
			goals, _ := reader.ReadString('\n')
			if _, err := assistantSvc.SaveGoals(ctx, user.ID, goals); err != nil {
				fmt.Printf("Error guardando objetivos: %v\n", err)
				continue
			}
			fmt.Println("Objetivos guardados.")
		case "9":
			return
		default:
			fmt.Println("Opcion invalida.")
		}
	}
}

func ensureUser(ctx context.Context, repo repository.UserRepository, userSvc *service.UserService) (domain.User, error) {
	u, err := repo.GetByEmail(ctx, cliEmail)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	return userSvc.Register(ctx, service.RegisterInput{
		Email:       cliEmail,
		Password:    cliPassword,
		DisplayName: "CLI",
	})
}

func listHabits(ctx context.Context, habitSvc *service.HabitService, userID string) ([]domain.Habit, error) {
	habits, err := habitSvc.ListHabits(ctx, userID, 0, 0)
	if err != nil {
		return nil, err
	}
	if len(habits) == 0 {
		fmt.Println("No hay habitos. Crea uno nuevo.")
		return habits, nil
	}
	for i, h := range habits {
		fmt.Printf("[%d] %-30s racha=%-3d max=%-3d p=%.2f\n", i+1, h.Title, h.CurrentStreak, h.LongestStreak, h.SuccessProbability)
	}
	return habits, nil
}

func selectHabit(ctx context.Context, reader *bufio.Reader, habitSvc *service.HabitService, userID string) (domain.Habit, error) {
	habits, err := listHabits(ctx, habitSvc, userID)
	if err != nil {
		return domain.Habit{}, err
	}
	if len(habits) == 0 {
		return domain.Habit{}, errors.New("sin habitos")
	}
	fmt.Print("Selecciona un habito: ")
	choice, _ := reader.ReadString('\n')
	idx, err := strconv.Atoi(strings.TrimSpace(choice))
	if err != nil || idx < 1 || idx > len(habits) {
		return domain.Habit{}, errors.New("seleccion invalida")
	}
	return habits[idx-1], nil
}

func createHabitFlow(ctx context.Context, reader *bufio.Reader, habitSvc *service.HabitService, userID string) error {
	fmt.Print("Titulo: ")
	title, _ := reader.ReadString('\n')
	fmt.Print("Descripcion: ")
	desc, _ := reader.ReadString('\n')
	fmt.Print("Frecuencia (daily/weekly, default daily): ")
	freq, _ := reader.ReadString('\n')
	difficulty := readIntDefault(reader, "Dificultad (1-5, default 1): ", 1)

	habit, err := habitSvc.CreateHabit(ctx, userID, service.CreateHabitInput{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(desc),
		Frequency:   strings.TrimSpace(freq),
		Difficulty:  difficulty,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Habito creado (ID: %s, p=%.2f)\n", habit.ID, habit.SuccessProbability)
	return nil
}

func logCompletionFlow(ctx context.Context, reader *bufio.Reader, habitSvc *service.HabitService, userID string) error {
	habit, err := selectHabit(ctx, reader, habitSvc, userID)
	if err != nil {
		return err
	}
	var in service.LogCompletionInput
	if mood := readIntDefault(reader, "Animo (1-10, vacio para omitir): ", 0); mood != 0 {
		in.MoodScore = &mood
	}
	if rating := readIntDefault(reader, "Dificultad percibida (1-10, vacio para omitir): ", 0); rating != 0 {
		in.DifficultyRating = &rating
	}
	res, err := habitSvc.LogCompletion(ctx, userID, habit.ID, in)
	if err != nil {
		return err
	}
	if !res.Created {
		fmt.Println("Ya estaba registrado hoy.")
	}
	fmt.Printf("Racha actual: %d (max %d), p=%.2f\n", res.Habit.CurrentStreak, res.Habit.LongestStreak, res.Habit.SuccessProbability)
	return nil
}

func insightsFlow(ctx context.Context, reader *bufio.Reader, habitSvc *service.HabitService, userID string) error {
	habit, err := selectHabit(ctx, reader, habitSvc, userID)
	if err != nil {
		return err
	}
	insight, err := habitSvc.Insights(ctx, userID, habit.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Probabilidad: %.2f | Riesgo: %.2f (%s)\n", insight.SuccessProbability, insight.RiskScore, insight.RiskLevel)
	for _, f := range insight.Factors {
		fmt.Printf("  %-12s %+.2f  %s\n", f.Factor, f.Impact, f.Note)
	}
	fmt.Printf("Recomendacion: %s\n", insight.Recommendation)
	return nil
}

func dashboardFlow(ctx context.Context, habitSvc *service.HabitService, userID string) error {
	summary, err := habitSvc.Dashboard(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Printf("Habitos: %d | Prob. media: %.2f | Rachas activas: %d\n", summary.TotalHabits, summary.AvgSuccessProbability, summary.ActiveStreaks)
	for _, h := range summary.AtRisk {
		fmt.Printf("  [%s] %s p=%.2f -> %s\n", h.RiskLevel, h.Title, h.SuccessProbability, h.Recommendation)
	}
	return nil
}

func readIntDefault(reader *bufio.Reader, prompt string, def int) int {
	fmt.Print(prompt)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	if v, err := strconv.Atoi(line); err == nil {
		return v
	}
	return def
}
