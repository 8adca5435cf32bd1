package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config carries everything tunable at startup. The core engine never
// reads ambient globals: presentation settings are passed into the
// client explicitly.
type Config struct {
	Environment string
	LogLevel    slog.Level

	// Dungeon parameters.
	GridWidth  int
	GridHeight int
	Seed       int64 // 0 means pick one at startup
	HeroClass  string

	// Persistence.
	RedisURL string // empty disables the Redis autosave
	SaveDir  string

	// Narrative collaborator.
	NarratorBaseURL string
	NarratorAPIKey  string
	NarratorModel   string

	// Presentation toggles, plumbed to the client only.
	SpeechEnabled   bool
	NarrationVolume int // percent
}

func Load() *Config {
	return &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        parseLogLevel(getEnv("LOG_LEVEL", "info")),
		GridWidth:       getEnvInt("GRID_WIDTH", 6),
		GridHeight:      getEnvInt("GRID_HEIGHT", 6),
		Seed:            int64(getEnvInt("DUNGEON_SEED", 0)),
		HeroClass:       getEnv("HERO_CLASS", "fighter"),
		RedisURL:        getEnv("REDIS_URL", ""),
		SaveDir:         getEnv("SAVE_DIR", "./saves"),
		NarratorBaseURL: getEnv("NARRATOR_BASE_URL", "https://api.openai.com/v1"),
		NarratorAPIKey:  getEnv("NARRATOR_API_KEY", ""),
		NarratorModel:   getEnv("NARRATOR_MODEL", "gpt-4o-mini"),
		SpeechEnabled:   getEnvBool("SPEECH_ENABLED", false),
		NarrationVolume: getEnvInt("NARRATION_VOLUME", 80),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
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
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
