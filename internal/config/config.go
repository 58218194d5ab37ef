// config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - структура конфигурации приложения
type Config struct {
	// Telegram
	BotToken         string
	TelegramEnabled  bool
	TelegramTestMode bool

	// HTTP Server
	HttpPort    string
	CorsOrigins []string
	JobsSecret  string

	// Database
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	DBSSLMode        string
	DBMigrationsPath string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Open-Meteo
	OpenMeteoURL     string
	ForecastCacheTTL time.Duration
	RequestTimeout   time.Duration

	// Hazards
	HazardMissingAsZero bool

	// Tick
	TickInternalEnabled bool
	TickInterval        time.Duration

	// Logging
	LogLevel string
	LogFile  string
}

// LoadConfig загружает конфигурацию из .env файла
func LoadConfig(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
	}

	config := &Config{
		// Telegram
		BotToken:         getEnvString("BOT_TOKEN", ""),
		TelegramEnabled:  getEnvBool("TELEGRAM_ENABLED", true),
		TelegramTestMode: getEnvBool("TELEGRAM_TEST_MODE", false),

		// HTTP Server
		HttpPort:    getEnvString("HTTP_PORT", "8080"),
		CorsOrigins: parseOrigins(getEnvString("CORS_ORIGINS", "")),
		JobsSecret:  getEnvString("JOBS_SECRET", ""),

		// Database
		DBHost:           getEnvString("DB_HOST", "localhost"),
		DBPort:           getEnvString("DB_PORT", "5432"),
		DBUser:           getEnvString("DB_USER", "meteovip"),
		DBPassword:       getEnvString("DB_PASSWORD", ""),
		DBName:           getEnvString("DB_NAME", "meteovip_db"),
		DBSSLMode:        getEnvString("DB_SSLMODE", "disable"),
		DBMigrationsPath: getEnvString("DB_MIGRATIONS_PATH", "internal/infrastructure/persistence/postgres/migrations"),

		// Redis
		RedisAddr:     getEnvString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		// Open-Meteo
		OpenMeteoURL:     getEnvString("OPEN_METEO_URL", "https://api.open-meteo.com/v1/forecast"),
		ForecastCacheTTL: time.Duration(getEnvInt("FORECAST_CACHE_TTL_MIN", 10)) * time.Minute,
		RequestTimeout:   time.Duration(getEnvInt("REQUEST_TIMEOUT", 30)) * time.Second,

		// Hazards
		HazardMissingAsZero: getEnvBool("HAZARD_MISSING_AS_ZERO", true),

		// Tick
		TickInternalEnabled: getEnvBool("TICK_INTERNAL_ENABLED", true),
		TickInterval:        time.Duration(getEnvInt("TICK_INTERVAL_MIN", 30)) * time.Minute,

		// Logging
		LogLevel: getEnvString("LOG_LEVEL", "info"),
		LogFile:  getEnvString("LOG_FILE", "logs/server.log"),
	}

	return config, nil
}

// Вспомогательные функции для парсинга переменных окружения
func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// parseOrigins разбирает список CORS origin'ов.
// Пустая строка означает "разрешить всем".
func parseOrigins(originsStr string) []string {
	if originsStr == "" {
		return []string{}
	}

	parts := strings.Split(originsStr, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.TelegramEnabled && !c.TelegramTestMode && c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required when Telegram is enabled")
	}

	if c.HttpPort == "" {
		return fmt.Errorf("HTTP_PORT must not be empty")
	}

	if c.TickInterval < time.Minute {
		return fmt.Errorf("tick interval must be at least 1 minute")
	}

	if c.ForecastCacheTTL <= 0 {
		return fmt.Errorf("forecast cache TTL must be positive")
	}

	return nil
}
