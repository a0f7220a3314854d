package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	PublicBaseURL  string
	LogLevel       string
	DatabaseURL    string
	UseMemoryStore bool
	UseMemoryQueue bool

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SettingsKey   string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	DialQueueURL        string
	ArchiveBucket       string

	WorkerCount        int
	DialReceiveWait    int
	FollowUpInterval   time.Duration
	FollowUpBatchSize  int
	RetryFollowUpAfter time.Duration

	APIJWTSecret       string
	APIKey             string
	CORSAllowedOrigins []string
	CallRateLimit      float64
	CallRateBurst      int

	// Booking notification email
	EmailProvider     string
	NotifyEmail       string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string

	GeminiModelID  string
	BedrockModelID string

	// Outbound provider endpoints, overridable for sandboxes and tests
	TwilioAPIBaseURL     string
	ElevenLabsBaseURL    string
	ZohoAccountsURL      string
	ZohoAPIURL           string
	ScraperSidecarURL    string
	ScraperSidecarSecret string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real environment values win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "5001"),
		Env:            getEnv("ENV", "development"),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:5001"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		UseMemoryStore: getEnvAsBool("USE_MEMORY_STORE", false),
		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SettingsKey:   getEnv("SETTINGS_REDIS_KEY", "outreach:settings"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		DialQueueURL:        getEnv("DIAL_QUEUE_URL", ""),
		ArchiveBucket:       getEnv("CALL_ARCHIVE_BUCKET", ""),

		WorkerCount:        getEnvAsInt("WORKER_COUNT", 2),
		DialReceiveWait:    getEnvAsInt("DIAL_RECEIVE_WAIT_SECONDS", 10),
		FollowUpInterval:   getEnvAsDuration("FOLLOW_UP_INTERVAL", 5*time.Minute),
		FollowUpBatchSize:  getEnvAsInt("FOLLOW_UP_BATCH_SIZE", 10),
		RetryFollowUpAfter: getEnvAsDuration("RETRY_FOLLOW_UP_AFTER", 24*time.Hour),

		APIJWTSecret:       getEnv("API_JWT_SECRET", ""),
		APIKey:             getEnv("API_KEY", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CallRateLimit:      getEnvAsFloat("CALL_RATE_LIMIT", 2),
		CallRateBurst:      getEnvAsInt("CALL_RATE_BURST", 10),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ""))),
		NotifyEmail:       getEnv("NOTIFY_EMAIL", ""),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", ""),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),

		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),

		TwilioAPIBaseURL:     getEnv("TWILIO_API_BASE_URL", "https://api.twilio.com"),
		ElevenLabsBaseURL:    getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		ZohoAccountsURL:      getEnv("ZOHO_ACCOUNTS_URL", "https://accounts.zoho.com"),
		ZohoAPIURL:           getEnv("ZOHO_API_URL", "https://www.zohoapis.com"),
		ScraperSidecarURL:    getEnv("SCRAPER_SIDECAR_URL", ""),
		ScraperSidecarSecret: getEnv("SCRAPER_SIDECAR_SECRET", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
