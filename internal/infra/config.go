package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	AllowedOrigins    []string
	AudioDir          string
	GeoIPDBPath       string
	FirebaseProjectID string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	QuotaFree    int
	QuotaBasic   int
	QuotaPremium int

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	GoogleAPIKey   string
	SearchEngineID string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceBasic    string
	StripePricePremium  string

	PollyVoice string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		AllowedOrigins:    []string{getEnv("FRONTEND_ORIGIN", "http://localhost:3000")},
		AudioDir:          getEnv("AUDIO_DIR", "audio"),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		FirebaseProjectID: os.Getenv("FIREBASE_PROJECT_ID"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		QuotaFree:    getEnvInt("RATE_LIMIT_FREE", 50),
		QuotaBasic:   getEnvInt("RATE_LIMIT_BASIC", 200),
		QuotaPremium: getEnvInt("RATE_LIMIT_PREMIUM", 1000),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		GoogleAPIKey:   os.Getenv("GOOGLE_API_KEY"),
		SearchEngineID: os.Getenv("SEARCH_ENGINE_ID"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePriceBasic:    os.Getenv("STRIPE_PRICE_BASIC"),
		StripePricePremium:  os.Getenv("STRIPE_PRICE_PREMIUM"),

		PollyVoice: getEnv("POLLY_VOICE", "Brian"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.FirebaseProjectID == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required")
	}

	return cfg, nil
}

// RedisAddr returns the host:port address of the counter store.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
