package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	DatabaseURL        string
	CORSAllowedOrigins []string

	// LLM provider selection: openai, gemini or bedrock. The primary
	// provider is wrapped with a fallback when a second one is configured.
	LLMProvider      string
	LLMTimeout       time.Duration
	OpenAIAPIKey     string
	OpenAIChatModel  string
	GeminiAPIKey     string
	GeminiModel      string
	BedrockModelID   string
	AWSRegion        string
	FallbackProvider string

	// Email delivery: sendgrid, ses or stub.
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESFromName       string

	// Digest scheduler.
	SchedulerEnabled   bool
	SchedulerInterval  time.Duration
	SchedulerWindow    time.Duration
	SchedulerSendDelay time.Duration

	// Widget sessions.
	WidgetJWTSecret  string
	WidgetSessionTTL time.Duration
	RedisAddr        string
	RedisPassword    string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		LLMProvider:      strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "openai"))),
		LLMTimeout:       getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIChatModel:  getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		BedrockModelID:   getEnv("BEDROCK_MODEL_ID", ""),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		FallbackProvider: strings.ToLower(strings.TrimSpace(getEnv("LLM_FALLBACK_PROVIDER", ""))),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "LeadGate"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "LeadGate"),

		SchedulerEnabled:   getEnvAsBool("SCHEDULER_ENABLED", true),
		SchedulerInterval:  getEnvAsDuration("SCHEDULER_INTERVAL", 4*time.Minute),
		SchedulerWindow:    getEnvAsDuration("SCHEDULER_WINDOW", 4*time.Minute),
		SchedulerSendDelay: getEnvAsDuration("SCHEDULER_SEND_DELAY", time.Second),

		WidgetJWTSecret:  getEnv("WIDGET_JWT_SECRET", ""),
		WidgetSessionTTL: getEnvAsDuration("WIDGET_SESSION_TTL", 24*time.Hour),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
	}
}

// IsDevelopment reports whether the process runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
