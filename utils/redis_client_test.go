package utils

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient_PlainAddress(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { client.Close() })

	assert.NoError(t, RedisHealthCheck(client))
}

func TestNewRedisClient_URL(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewRedisClient("redis://"+mr.Addr()+"/0", "", 0)
	t.Cleanup(func() { client.Close() })

	assert.NoError(t, RedisHealthCheck(client))
}

func TestRedisHealthCheck_FailsWhenDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { client.Close() })

	mr.Close()

	err := RedisHealthCheck(client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health check failed")
}
