package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort           string   `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL        string   `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns         int32    `env:"DB_MAX_CONNS" envDefault:"10"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	DBMinConns               int32 `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetimeMinutes int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"30"`
	DBConnectTimeoutSeconds  int   `env:"DB_CONNECT_TIMEOUT_SECONDS" envDefault:"5"`

	LLMAPIKey  string `env:"LLM_API_KEY"`
	LLMBaseURL string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel   string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"HabitOS"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	SnapshotCron        string `env:"SNAPSHOT_CRON" envDefault:"0 3 * * *"`
	BriefingCron        string `env:"BRIEFING_CRON"`
	HabitLockTTLSeconds int    `env:"HABIT_LOCK_TTL_SECONDS" envDefault:"5"`
	ModelVersion        string `env:"MODEL_VERSION" envDefault:"heuristic-v1"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
