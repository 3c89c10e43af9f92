package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full application configuration
type Config struct {
	Port      string
	AuthToken string // bearer token for the API; empty disables auth
	LogLevel  string

	DatabaseURL string

	RentCast  ProviderConfig
	Attom     ProviderConfig
	Estimator EstimatorConfig

	CacheTTL        time.Duration
	FetchTimeout    time.Duration
	SafetyThreshold float64
}

// ProviderConfig configures one comparable data provider
type ProviderConfig struct {
	BaseURL      string
	APIKey       string
	MonthlyLimit int // 0 means unlimited
}

// EstimatorConfig configures the AI-estimation fallback
type EstimatorConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	DailyLimit int
}

// Load reads configuration from environment variables. A .env file is
// loaded first when present; real environment variables win over it.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		AuthToken: getEnv("API_AUTH_TOKEN", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL",
			"host=localhost port=5432 user=postgres password=postgres dbname=dealscout sslmode=disable"),

		RentCast: ProviderConfig{
			BaseURL:      getEnv("RENTCAST_BASE_URL", "https://api.rentcast.io/v1"),
			APIKey:       getEnv("RENTCAST_API_KEY", ""),
			MonthlyLimit: getEnvAsInt("RENTCAST_MONTHLY_LIMIT", 50),
		},
		Attom: ProviderConfig{
			BaseURL:      getEnv("ATTOM_BASE_URL", "https://api.gateway.attomdata.com"),
			APIKey:       getEnv("ATTOM_API_KEY", ""),
			MonthlyLimit: getEnvAsInt("ATTOM_MONTHLY_LIMIT", 30),
		},
		Estimator: EstimatorConfig{
			BaseURL:    getEnv("ESTIMATOR_BASE_URL", "https://api.openai.com"),
			APIKey:     getEnv("ESTIMATOR_API_KEY", ""),
			Model:      getEnv("ESTIMATOR_MODEL", "gpt-4o-mini"),
			DailyLimit: getEnvAsInt("ESTIMATOR_DAILY_LIMIT", 100),
		},

		CacheTTL:        time.Duration(getEnvAsInt("CACHE_TTL_HOURS", 24)) * time.Hour,
		FetchTimeout:    time.Duration(getEnvAsInt("FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
		SafetyThreshold: getEnvAsFloat("QUOTA_SAFETY_THRESHOLD", 0.90),
	}
}

// getEnv reads an environment variable with a default value
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: environment variable %s (value: %s) could not be parsed as int, using default %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return valueInt
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueFloat, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: environment variable %s (value: %s) could not be parsed as float, using default %g", key, valueStr, defaultValue)
		return defaultValue
	}
	return valueFloat
}
