package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ModelProvider    string
	GeminiAPIKey     string
	GeminiModel      string
	OpenAIAPIKey     string
	OpenAIModel      string
	TelegramBotToken string
	JWTSecret        string
	Port             string
	DBPath           string
	MaxUploadSize    int64
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		ModelProvider:    getEnv("MODEL_PROVIDER", "gemini"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-pro"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret-change-me"),
		Port:             getEnv("PORT", "8080"),
		DBPath:           getEnv("DB_PATH", "./storage/sensei.db"),
		MaxUploadSize:    getEnvInt64("MAX_UPLOAD_SIZE", 52428800), // 50MB default
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
