package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "localhost:6379", cfg.RedisURL)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 100, cfg.MaxProcessingCount)
	assert.Equal(t, 5*time.Minute, cfg.EntryTimeout)
	assert.Equal(t, 30*time.Minute, cfg.WaitingTimeout)
	assert.Equal(t, 3*time.Second, cfg.LockWaitTime)
	assert.Equal(t, 3*time.Second, cfg.LockLeaseTime)
	assert.Equal(t, 10*time.Minute, cfg.ChannelTimeout)
	assert.Equal(t, StrategyOptimistic, cfg.StockGuardStrategy)
	assert.Equal(t, "@every 15s", cfg.PositionBroadcastSpec)
	assert.Equal(t, int64(30), cfg.RateLimitPerMin)
	assert.True(t, cfg.EnableRateLimiter)
	assert.True(t, cfg.EnableMetrics)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("MAX_PROCESSING_COUNT", "5")
	t.Setenv("STOCK_GUARD_STRATEGY", StrategyPessimistic)
	t.Setenv("CHANNEL_TIMEOUT_MILLISECONDS", "1500")
	t.Setenv("ENABLE_RATE_LIMITER", "false")
	t.Setenv("LOCK_WAIT_TIME_SECONDS", "7")

	cfg := LoadConfig()

	assert.Equal(t, 5, cfg.MaxProcessingCount)
	assert.Equal(t, StrategyPessimistic, cfg.StockGuardStrategy)
	assert.Equal(t, 1500*time.Millisecond, cfg.ChannelTimeout)
	assert.False(t, cfg.EnableRateLimiter)
	assert.Equal(t, 7*time.Second, cfg.LockWaitTime)
}

func TestLoadConfig_BadNumbersFallBack(t *testing.T) {
	t.Setenv("MAX_PROCESSING_COUNT", "lots")
	t.Setenv("ENABLE_METRICS", "sure")

	cfg := LoadConfig()

	assert.Equal(t, 100, cfg.MaxProcessingCount)
	assert.True(t, cfg.EnableMetrics)
}
