package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Server
	Port        string
	FrontendURL string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Match settings
	MatchExpiryMinutes int
	SnapshotTTLMinutes int
	DefaultScoringMode string
	DefaultTargetScore int

	// Rule toggles (defaults for new matches)
	ThreeFoulRule    bool
	BallInHandOnFoul bool
	EightOnBreak     bool
	NineOnBreak      bool
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/cueroom?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Match settings
		MatchExpiryMinutes: getEnvInt("MATCH_EXPIRY_MINUTES", 60),
		SnapshotTTLMinutes: getEnvInt("SNAPSHOT_TTL_MINUTES", 60),
		DefaultScoringMode: getEnv("DEFAULT_SCORING_MODE", "points"),
		DefaultTargetScore: getEnvInt("DEFAULT_TARGET_SCORE", 0),

		// Rule toggles
		ThreeFoulRule:    getEnvBool("RULE_THREE_CONSECUTIVE_FOULS", true),
		BallInHandOnFoul: getEnvBool("RULE_BALL_IN_HAND_FOUL", true),
		EightOnBreak:     getEnvBool("RULE_EIGHT_ON_BREAK", true),
		NineOnBreak:      getEnvBool("RULE_NINE_ON_BREAK", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
