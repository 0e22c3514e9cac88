package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/AdamBeresnev/op-bracket-engine/internal/bracket"
	"github.com/joho/godotenv"
)

const (
	defaultDatabaseURL = "op_bracket.db?_journal_mode=WAL&_busy_timeout=5000"
	defaultServerPort  = 8080

	// MemoryDatabase selects the in-process store instead of a SQL database.
	MemoryDatabase = "memory"
)

type Config struct {
	DatabaseURL         string
	ServerPort          int
	LogLevel            slog.Level
	AllowedOrigins      []string
	DefaultPointsPerWin int
}

// Load reads the configuration from the environment. A .env file is loaded
// first when present; variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DatabaseURL:         getenv("DATABASE_URL"),
		ServerPort:          defaultServerPort,
		LogLevel:            slog.LevelInfo,
		AllowedOrigins:      []string{"*"},
		DefaultPointsPerWin: bracket.DefaultPointsPerWin,
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}

	if portStr := getenv("SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
		}
		if port <= 0 || port > 65535 {
			return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
		}
		cfg.ServerPort = port
	}

	if level := getenv("LOG_LEVEL"); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
		}
	}

	if origins := getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if pointsStr := getenv("DEFAULT_POINTS_PER_WIN"); pointsStr != "" {
		points, err := strconv.Atoi(pointsStr)
		if err != nil {
			return nil, fmt.Errorf("invalid DEFAULT_POINTS_PER_WIN environment variable: %w", err)
		}
		if points <= 0 {
			return nil, fmt.Errorf("DEFAULT_POINTS_PER_WIN must be positive, got %d", points)
		}
		cfg.DefaultPointsPerWin = points
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
