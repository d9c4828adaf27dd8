package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Gemini agent
	GoogleAPIKey         string
	GeminiModel          string
	AgentInstruction     string
	AgentTimeout         time.Duration
	AgentMaxTokens       int
	AgentSearchGrounding bool

	// WhatsApp Cloud API
	WhatsAppToken     string
	PhoneNumberID     string
	VerifyToken       string
	WhatsAppAppSecret string
	GraphAPIBaseURL   string

	// Trigger filter
	TriggerWord string

	// Conversation sessions
	SessionMaxTurns int
	SessionTTL      time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool

	// Webhook hardening
	WebhookRateLimit float64
	WebhookRateBurst int
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		GoogleAPIKey:         getEnv("GOOGLE_API_KEY", ""),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-2.0-flash-exp"),
		AgentInstruction:     getEnv("AGENT_INSTRUCTION", "Respond concisely and helpfully."),
		AgentTimeout:         getEnvAsDuration("AGENT_TIMEOUT", 30*time.Second),
		AgentMaxTokens:       getEnvAsInt("AGENT_MAX_TOKENS", 0),
		AgentSearchGrounding: getEnvAsBool("AGENT_SEARCH_GROUNDING", true),

		WhatsAppToken:     getEnv("WHATSAPP_TOKEN", ""),
		PhoneNumberID:     getEnv("PHONE_NUMBER_ID", ""),
		VerifyToken:       getEnv("VERIFY_TOKEN", ""),
		WhatsAppAppSecret: getEnv("WHATSAPP_APP_SECRET", ""),
		GraphAPIBaseURL:   getEnv("GRAPH_API_BASE_URL", ""),

		TriggerWord: getEnv("TRIGGER_WORD", "bot"),

		SessionMaxTurns: getEnvAsInt("SESSION_MAX_TURNS", 20),
		SessionTTL:      getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),

		WebhookRateLimit: getEnvAsFloat("WEBHOOK_RATE_LIMIT", 0),
		WebhookRateBurst: getEnvAsInt("WEBHOOK_RATE_BURST", 5),
	}
}

// Validate reports the environment variables the bridge cannot run without.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.GoogleAPIKey) == "" {
		missing = append(missing, "GOOGLE_API_KEY")
	}
	if strings.TrimSpace(c.WhatsAppToken) == "" {
		missing = append(missing, "WHATSAPP_TOKEN")
	}
	if strings.TrimSpace(c.PhoneNumberID) == "" {
		missing = append(missing, "PHONE_NUMBER_ID")
	}
	if strings.TrimSpace(c.VerifyToken) == "" {
		missing = append(missing, "VERIFY_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
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

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
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
