package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration read from the environment.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Storage
	DatabaseURL    string
	UseMemoryStore bool
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool

	// Anti-abuse
	RecaptchaSecret    string
	RecaptchaVerifyURL string
	RateLimitMax       int
	RateLimitWindow    time.Duration

	// Transport-level throttle (requests/sec per IP, 0 disables)
	ThrottleRate  float64
	ThrottleBurst int

	// Notifications
	CRMWebhookURL     string
	CRMWebhookTimeout time.Duration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	NotifyEmails      []string
	NotifyBuffer      int

	// Available units counter
	UnitsInitial int

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:    getEnv("DATABASE_URL", ""),
		UseMemoryStore: getEnvAsBool("USE_MEMORY_STORE", false),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),

		RecaptchaSecret:    getEnv("RECAPTCHA_SECRET_KEY", ""),
		RecaptchaVerifyURL: getEnv("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),
		RateLimitMax:       getEnvAsInt("RATE_LIMIT_MAX_SUBMISSIONS", 5),
		RateLimitWindow:    getEnvAsDuration("RATE_LIMIT_WINDOW", 10*time.Minute),

		ThrottleRate:  getEnvAsFloat("THROTTLE_RATE", 5),
		ThrottleBurst: getEnvAsInt("THROTTLE_BURST", 20),

		CRMWebhookURL:     getEnv("CRM_WEBHOOK_URL", ""),
		CRMWebhookTimeout: getEnvAsDuration("CRM_WEBHOOK_TIMEOUT", 10*time.Second),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Park 63 Sales"),
		NotifyEmails:      getEnvAsList("NOTIFY_EMAILS", nil),
		NotifyBuffer:      getEnvAsInt("NOTIFY_BUFFER", 64),

		UnitsInitial: getEnvAsInt("UNITS_INITIAL", 40),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
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

// getEnvAsList splits a comma-separated environment variable, dropping empty entries.
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
