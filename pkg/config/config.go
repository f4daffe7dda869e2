package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Evaluation EvaluationConfig
	Assistant  AssistantConfig
	Reconcile  ReconcileConfig
	MCP        MCPConfig
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EvaluationConfig holds grading defaults applied to new enrollments.
type EvaluationConfig struct {
	DefaultMinAverage    float64
	DefaultMinAttendance int
	ActiveTerm           string
	StandingCacheTTL     time.Duration
}

// AssistantConfig configures the conversational agent and its completion backend.
type AssistantConfig struct {
	Enabled       bool
	Token         string
	Model         string
	BaseURL       string
	MaxToolRounds int
	HistoryWindow int
}

// ReconcileConfig toggles the periodic outcome reconciliation sweep.
type ReconcileConfig struct {
	Enabled  bool
	Schedule string
	Workers  int
	Retries  int
}

// MCPConfig identifies the student served by the stdio MCP server.
type MCPConfig struct {
	StudentID string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	minAttendance := v.GetInt("EVAL_DEFAULT_MIN_ATTENDANCE")
	if minAttendance < 0 || minAttendance > 100 {
		minAttendance = 75
	}
	cfg.Evaluation = EvaluationConfig{
		DefaultMinAverage:    v.GetFloat64("EVAL_DEFAULT_MIN_AVERAGE"),
		DefaultMinAttendance: minAttendance,
		ActiveTerm:           v.GetString("EVAL_ACTIVE_TERM"),
		StandingCacheTTL:     parseDuration(v.GetString("STANDING_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Assistant = AssistantConfig{
		Enabled:       v.GetBool("ENABLE_ASSISTANT"),
		Token:         v.GetString("LLM_API_KEY"),
		Model:         v.GetString("LLM_MODEL"),
		BaseURL:       v.GetString("LLM_BASE_URL"),
		MaxToolRounds: positiveOr(v.GetInt("ASSISTANT_MAX_TOOL_ROUNDS"), 5),
		HistoryWindow: positiveOr(v.GetInt("ASSISTANT_HISTORY_WINDOW"), 10),
	}

	cfg.Reconcile = ReconcileConfig{
		Enabled:  v.GetBool("ENABLE_RECONCILE"),
		Schedule: v.GetString("RECONCILE_SCHEDULE"),
		Workers:  positiveOr(v.GetInt("RECONCILE_WORKERS"), 1),
		Retries:  positiveOr(v.GetInt("RECONCILE_RETRIES"), 3),
	}

	cfg.MCP = MCPConfig{StudentID: v.GetString("MCP_STUDENT_ID")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academic_hub")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("EVAL_DEFAULT_MIN_AVERAGE", 5.0)
	v.SetDefault("EVAL_DEFAULT_MIN_ATTENDANCE", 75)
	v.SetDefault("EVAL_ACTIVE_TERM", "")
	v.SetDefault("STANDING_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_ASSISTANT", false)
	v.SetDefault("LLM_API_KEY", "")
	v.SetDefault("LLM_MODEL", "gpt-4o-mini")
	v.SetDefault("LLM_BASE_URL", "")
	v.SetDefault("ASSISTANT_MAX_TOOL_ROUNDS", 5)
	v.SetDefault("ASSISTANT_HISTORY_WINDOW", 10)

	v.SetDefault("ENABLE_RECONCILE", false)
	v.SetDefault("RECONCILE_SCHEDULE", "0 3 * * *")
	v.SetDefault("RECONCILE_WORKERS", 1)
	v.SetDefault("RECONCILE_RETRIES", 3)

	v.SetDefault("MCP_STUDENT_ID", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
