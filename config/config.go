package config

import (
	"os"
	"strconv"
	"time"
)

// Strategy names accepted by STOCK_GUARD_STRATEGY.
const (
	StrategyOptimistic  = "optimistic"
	StrategyPessimistic = "pessimistic"
	StrategyDistributed = "distributed"
	StrategyInProcess   = "in-process"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Stock database (dbx)
	DatabaseDriver string
	DatabaseDSN    string

	// PubNub configuration (optional event mirroring)
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubUserID       string

	// Admission gate configuration
	MaxProcessingCount int
	EntryTimeout       time.Duration
	WaitingTimeout     time.Duration

	// Distributed lock configuration
	LockWaitTime  time.Duration
	LockLeaseTime time.Duration

	// Notification channels
	ChannelTimeout time.Duration

	// Stock guard strategy: optimistic, pessimistic, distributed, in-process
	StockGuardStrategy string

	// Background jobs
	PositionBroadcastSpec string

	// Admin / security
	AdminTokenHash    string
	RateLimitPerMin   int64
	EnableRateLimiter bool

	// Monitoring
	EnableMetrics bool
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Stock database
		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "file:ticket-gate.db?_pragma=busy_timeout(10000)"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubUserID:       getEnv("PUBNUB_USER_ID", "ticket-gate"),

		// Admission gate
		MaxProcessingCount: getEnvAsInt("MAX_PROCESSING_COUNT", 100),
		EntryTimeout:       getEnvAsSeconds("ENTRY_TIMEOUT_SECONDS", 300),
		WaitingTimeout:     getEnvAsSeconds("WAITING_TIMEOUT_SECONDS", 1800),

		// Locks
		LockWaitTime:  getEnvAsSeconds("LOCK_WAIT_TIME_SECONDS", 3),
		LockLeaseTime: getEnvAsSeconds("LOCK_LEASE_TIME_SECONDS", 3),

		// Channels
		ChannelTimeout: getEnvAsMilliseconds("CHANNEL_TIMEOUT_MILLISECONDS", 600000),

		// Stock guard
		StockGuardStrategy: getEnv("STOCK_GUARD_STRATEGY", StrategyOptimistic),

		// Background jobs
		PositionBroadcastSpec: getEnv("POSITION_BROADCAST_SPEC", "@every 15s"),

		// Admin / security
		AdminTokenHash:    getEnv("ADMIN_TOKEN_HASH", ""),
		RateLimitPerMin:   int64(getEnvAsInt("RATE_LIMIT_PER_MIN", 30)),
		EnableRateLimiter: getEnvAsBool("ENABLE_RATE_LIMITER", true),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Second
}

func getEnvAsMilliseconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Millisecond
}
