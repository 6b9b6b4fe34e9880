// Package config reads service settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr string

	StoreDriver     string
	StoreDSN        string
	StoreQuotaBytes int
	RedisPrefix     string

	QuestionCount   int
	QuizDuration    time.Duration
	RevealDelay     time.Duration
	LeaderboardSize int
	SessionMaxAge   time.Duration

	AdminUser     string
	AdminPassHash string
	JWTSecret     string
	CORSOrigins   []string

	AMQPURL      string
	AMQPExchange string

	BackupSchedule string
	BackupDir      string

	OpenTDBURL      string
	OpenTDBCategory int

	LogLevel slog.Level
}

// Load reads .env (a missing file is fine) and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	var errs []error

	cfg := Config{
		Addr:           envOr("ADDR", ":8080"),
		StoreDriver:    envOr("STORE_DRIVER", "sqlite"),
		StoreDSN:       envOr("STORE_DSN", ""),
		RedisPrefix:    envOr("REDIS_PREFIX", "quiz:"),
		AdminUser:      envOr("ADMIN_USER", "admin"),
		AdminPassHash:  envOr("ADMIN_PASS_HASH", ""),
		JWTSecret:      envOr("JWT_SECRET", ""),
		CORSOrigins:    envList("CORS_ORIGINS", []string{"*"}),
		AMQPURL:        envOr("AMQP_URL", ""),
		AMQPExchange:   envOr("AMQP_EXCHANGE", "quiz.events"),
		BackupSchedule: envOr("BACKUP_SCHEDULE", ""),
		BackupDir:      envOr("BACKUP_DIR", "backups"),
		OpenTDBURL:     envOr("OPENTDB_URL", "https://opentdb.com/api.php"),
	}

	cfg.StoreQuotaBytes = envInt("STORE_QUOTA_BYTES", 0, &errs)
	cfg.QuestionCount = envInt("QUESTION_COUNT", 8, &errs)
	cfg.LeaderboardSize = envInt("LEADERBOARD_SIZE", 5, &errs)
	cfg.QuizDuration = envDuration("QUIZ_DURATION", 10*time.Minute, &errs)
	cfg.RevealDelay = envDuration("REVEAL_DELAY", 2*time.Second, &errs)
	cfg.SessionMaxAge = envDuration("SESSION_MAX_AGE", 30*time.Minute, &errs)
	cfg.OpenTDBCategory = envInt("OPENTDB_CATEGORY", 18, &errs)

	level, err := parseLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.LogLevel = level

	if cfg.QuestionCount <= 0 {
		errs = append(errs, fmt.Errorf("QUESTION_COUNT must be positive, got %d", cfg.QuestionCount))
	}
	if cfg.QuizDuration <= 0 {
		errs = append(errs, fmt.Errorf("QUIZ_DURATION must be positive, got %s", cfg.QuizDuration))
	}
	if cfg.RevealDelay < 0 {
		errs = append(errs, fmt.Errorf("REVEAL_DELAY must not be negative, got %s", cfg.RevealDelay))
	}

	return cfg, errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func envInt(key string, fallback int, errs *[]error) int {
	raw := envOr(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not an integer", key, raw))
		return fallback
	}
	return value
}

func envDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := envOr(key, "")
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a duration", key, raw))
		return fallback
	}
	return value
}

func envList(key string, fallback []string) []string {
	raw := envOr(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
