package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
}

type Config struct {
	// Required for the remote parser; when empty the interpreter runs
	// local-only.
	AnthropicAPIKey string

	// Google Calendar credentials; only needed when executing commands
	// against a real calendar.
	GoogleCredentialsFile string
	GoogleTokenFile       string

	// Optional with defaults
	HTTPPort             int
	ClaudeModel          string
	ClaudeTemperature    float64
	RemoteTimeoutSeconds int
	CalendarID           string
	Timezone             string
	DevMode              bool
}

func LoadFromEnv() *Config {
	cfg := &Config{
		AnthropicAPIKey:       os.Getenv("ANTHROPIC_API_KEY"),
		GoogleCredentialsFile: getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", "./credentials.json"),
		GoogleTokenFile:       getEnvOrDefault("GOOGLE_TOKEN_FILE", "./token.json"),

		// Optional with defaults
		HTTPPort:             getEnvAsIntOrDefault("CLARA_HTTP_PORT", 8080),
		ClaudeModel:          getEnvOrDefault("CLARA_CLAUDE_MODEL", "claude-sonnet-4-20250514"),
		ClaudeTemperature:    getEnvAsFloatOrDefault("CLARA_CLAUDE_TEMPERATURE", 0.1),
		RemoteTimeoutSeconds: getEnvAsIntOrDefault("CLARA_REMOTE_TIMEOUT_SECONDS", 30),
		CalendarID:           getEnvOrDefault("CLARA_CALENDAR_ID", "primary"),
		Timezone:             getEnvOrDefault("CLARA_TIMEZONE", ""),
		DevMode:              getEnvAsBoolOrDefault("CLARA_DEV_MODE", false),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
