package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Providers accepted by KAIROS_MODEL_PROVIDER. "none" runs every capability
// on its fallback.
var Providers = []string{"anthropic", "gemini", "none", "openai"} //nolint:gochecknoglobals // fixed provider list

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Log       LogConfig
	Server    ServerConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Model     ModelConfig
	Session   SessionConfig
	Stream    StreamConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// JWTConfig holds the optional bearer auth for session connections.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// RedisConfig holds Redis connection settings. An empty Addr disables the
// event mirror and the observer endpoint.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// DatabaseConfig holds PostgreSQL settings. An empty DSN disables session
// record persistence.
type DatabaseConfig struct {
	DSN      string //nolint:gosec // G117: DB connection config
	MaxConns int
	Migrate  bool
}

// ModelConfig selects the language model provider behind the capabilities.
type ModelConfig struct {
	Provider string
	APIKey   string //nolint:gosec // G117: provider credential config
	BaseURL  string
	Fast     string
	Quality  string
	Timeout  time.Duration
}

// SessionConfig tunes the per-connection orchestrator.
type SessionConfig struct {
	EmotionRetention    int
	AdaptationRetention int
	StreakLength        int
	Cooldown            time.Duration
	TerminationPhrases  []string
	QuestionWindow      int
	InboundQueue        int
}

type StreamConfig struct {
	PacingScale float64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	readTimeout, err := getEnvDuration("KAIROS_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("KAIROS_SERVER_WRITE_TIMEOUT", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rps, err := getEnvFloat("KAIROS_RATE_LIMIT_RPS", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	burst, err := getEnvInt("KAIROS_RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("KAIROS_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("KAIROS_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMigrate, err := getEnvBool("KAIROS_DB_MIGRATE", true)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	capTimeout, err := getEnvDuration("KAIROS_CAPABILITY_TIMEOUT", 20*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	emotionRetention, err := getEnvInt("KAIROS_EMOTION_RETENTION", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	adaptationRetention, err := getEnvInt("KAIROS_ADAPTATION_RETENTION", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	streak, err := getEnvInt("KAIROS_STREAK_LENGTH", 3)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cooldown, err := getEnvDuration("KAIROS_COOLDOWN", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	questionWindow, err := getEnvInt("KAIROS_QUESTION_WINDOW", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	inboundQueue, err := getEnvInt("KAIROS_INBOUND_QUEUE", 16)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	pacing, err := getEnvFloat("KAIROS_PACING_SCALE", 1.0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		Log: LogConfig{
			Level:  getEnv("KAIROS_LOG_LEVEL", "info"),
			Format: getEnv("KAIROS_LOG_FORMAT", "json"),
		},
		Server: ServerConfig{
			Addr:         getEnv("KAIROS_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  getEnvList("KAIROS_CORS_ORIGINS", []string{"*"}),
		},
		JWT: JWTConfig{
			Secret: getEnv("KAIROS_JWT_SECRET", ""),
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
		Redis: RedisConfig{
			Addr:     getEnv("KAIROS_REDIS_ADDR", ""),
			Password: getEnv("KAIROS_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Database: DatabaseConfig{
			DSN:      getEnv("KAIROS_DB_DSN", ""),
			MaxConns: dbMaxConns,
			Migrate:  dbMigrate,
		},
		Model: ModelConfig{
			Provider: strings.ToLower(getEnv("KAIROS_MODEL_PROVIDER", "gemini")),
			APIKey:   getEnv("KAIROS_MODEL_API_KEY", ""),
			BaseURL:  getEnv("KAIROS_MODEL_BASE_URL", ""),
			Fast:     getEnv("KAIROS_MODEL_FAST", ""),
			Quality:  getEnv("KAIROS_MODEL_QUALITY", ""),
			Timeout:  capTimeout,
		},
		Session: SessionConfig{
			EmotionRetention:    emotionRetention,
			AdaptationRetention: adaptationRetention,
			StreakLength:        streak,
			Cooldown:            cooldown,
			TerminationPhrases:  getEnvList("KAIROS_TERMINATION_PHRASES", []string{"terminar", "finish"}),
			QuestionWindow:      questionWindow,
			InboundQueue:        inboundQueue,
		},
		Stream: StreamConfig{
			PacingScale: pacing,
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT is optional, but a short secret is never accepted.
	if c.JWT.Secret != "" && len(c.JWT.Secret) < 32 {
		return errors.New("KAIROS_JWT_SECRET must be at least 32 characters")
	}

	if !slices.Contains(Providers, c.Model.Provider) {
		return fmt.Errorf("KAIROS_MODEL_PROVIDER must be one of %s, got %q", strings.Join(Providers, ", "), c.Model.Provider)
	}
	if c.Model.Provider != "none" && c.Model.APIKey == "" {
		return fmt.Errorf("KAIROS_MODEL_API_KEY is required for provider %q", c.Model.Provider)
	}
	if c.Model.Provider == "none" {
		log.Warn().Msg("KAIROS_MODEL_PROVIDER=none: every capability answers with its fallback")
	}

	// Bounds checks.
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("KAIROS_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("KAIROS_SERVER_WRITE_TIMEOUT must not be negative, got %s", c.Server.WriteTimeout)
	}
	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("KAIROS_RATE_LIMIT_RPS must be positive, got %g", c.RateLimit.RPS)
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("KAIROS_RATE_LIMIT_BURST must be >= 1, got %d", c.RateLimit.Burst)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("KAIROS_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Model.Timeout <= 0 {
		return fmt.Errorf("KAIROS_CAPABILITY_TIMEOUT must be positive, got %s", c.Model.Timeout)
	}
	if c.Session.EmotionRetention < 1 {
		return fmt.Errorf("KAIROS_EMOTION_RETENTION must be >= 1, got %d", c.Session.EmotionRetention)
	}
	if c.Session.AdaptationRetention < 1 {
		return fmt.Errorf("KAIROS_ADAPTATION_RETENTION must be >= 1, got %d", c.Session.AdaptationRetention)
	}
	if c.Session.StreakLength < 1 || c.Session.StreakLength > c.Session.EmotionRetention {
		return fmt.Errorf("KAIROS_STREAK_LENGTH must be 1-%d, got %d", c.Session.EmotionRetention, c.Session.StreakLength)
	}
	if c.Session.Cooldown < 0 {
		return fmt.Errorf("KAIROS_COOLDOWN must not be negative, got %s", c.Session.Cooldown)
	}
	if c.Session.QuestionWindow < 0 {
		return fmt.Errorf("KAIROS_QUESTION_WINDOW must not be negative, got %d", c.Session.QuestionWindow)
	}
	if c.Session.InboundQueue < 1 {
		return fmt.Errorf("KAIROS_INBOUND_QUEUE must be >= 1, got %d", c.Session.InboundQueue)
	}
	if c.Stream.PacingScale < 0 {
		return fmt.Errorf("KAIROS_PACING_SCALE must not be negative, got %g", c.Stream.PacingScale)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
