package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Slot hold tuning. HoldBaseDuration is only the fallback when no
	// hold-duration rule is configured; the rule source wins otherwise.
	HoldBaseDuration     time.Duration
	HoldSweepInterval    time.Duration
	HoldSweepBatchSize   int
	HoldCreateMaxRetries int
	HoldCreateRetryDelay time.Duration

	// Rule cache staleness bound. Stale rules only affect pricing and hold
	// duration, never overlap safety, so a short TTL is acceptable.
	RuleCacheTTL time.Duration

	PaymentIntentTTL time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "climbup_rules"),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		HoldBaseDuration:     getEnvAsDuration("HOLD_BASE_DURATION", 10*time.Minute),
		HoldSweepInterval:    getEnvAsDuration("HOLD_SWEEP_INTERVAL", 30*time.Second),
		HoldSweepBatchSize:   getEnvAsInt("HOLD_SWEEP_BATCH_SIZE", 100),
		HoldCreateMaxRetries: getEnvAsInt("HOLD_CREATE_MAX_RETRIES", 3),
		HoldCreateRetryDelay: getEnvAsDuration("HOLD_CREATE_RETRY_DELAY", 50*time.Millisecond),

		RuleCacheTTL: getEnvAsDuration("RULE_CACHE_TTL", 60*time.Second),

		PaymentIntentTTL: getEnvAsDuration("PAYMENT_INTENT_TTL", 15*time.Minute),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 20),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
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

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
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

// getEnvAsSlice splits a comma-separated environment variable.
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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
