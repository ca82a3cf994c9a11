package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	DatabaseURL     string
	HTTPPort        string
	LogLevel        string
	CORSOrigins     []string
	AIProvider      string
	OpenAIAPIKey    string
	OpenAIModel     string
	GeminiAPIKey    string
	GeminiModel     string
	AIRatePerMinute int
	APIBaseURL      string
}

var AppConfig Config

// LoadConfig reads .env (when present) and the process environment into
// AppConfig. A missing AI key is not an error: the AI routes report it per
// request instead.
func LoadConfig() error {
	// A missing .env is the normal case in containers.
	_ = godotenv.Load()

	cfg := Config{
		DatabaseURL:     getEnv("DATABASE_URL", "aps_helper.db"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		CORSOrigins:     splitOrigins(getEnv("CORS_ORIGINS", "*")),
		AIProvider:      strings.ToLower(getEnv("AI_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash-latest"),
		AIRatePerMinute: getEnvAsInt("AI_RATE_PER_MINUTE", 60),
		APIBaseURL:      strings.TrimRight(getEnv("APS_API_URL", "http://localhost:8080/api"), "/"),
	}

	if cfg.AIProvider != ProviderOpenAI && cfg.AIProvider != ProviderGemini {
		return fmt.Errorf("unsupported AI_PROVIDER %q (want %q or %q)", cfg.AIProvider, ProviderOpenAI, ProviderGemini)
	}
	if cfg.AIRatePerMinute <= 0 {
		return fmt.Errorf("AI_RATE_PER_MINUTE must be positive, got %d", cfg.AIRatePerMinute)
	}

	AppConfig = cfg
	return nil
}

// APIKey returns the key for the configured provider.
func (c Config) APIKey() string {
	if c.AIProvider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// APIKeyEnv names the variable an operator has to set for the configured provider.
func (c Config) APIKeyEnv() string {
	if c.AIProvider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
