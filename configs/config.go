package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Config struct {
	PostgresURI string
	RedisURI    string
	FrontendURL string
	R2          R2
	SecretKey   string
	CookieName  string

	PostCycleInterval    time.Duration
	ActionCycleInterval  time.Duration
	MetricsCycleInterval time.Duration
	LeaseSeconds         int64
	IdempotencyTTL       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI: getEnv("POSTGRES_URI", ""),
		RedisURI:    getEnv("REDIS_URI", ""),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", "postpilot_session"),

		PostCycleInterval:    getEnvDuration("POST_CYCLE_INTERVAL", time.Minute),
		ActionCycleInterval:  getEnvDuration("ACTION_CYCLE_INTERVAL", time.Minute),
		MetricsCycleInterval: getEnvDuration("METRICS_CYCLE_INTERVAL", 15*time.Minute),
		LeaseSeconds:         getEnvInt64("SCHEDULER_LEASE_SECONDS", 60),
		IdempotencyTTL:       getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
	}
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
