package queue

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessingSet_Add(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewProcessingSet(db, 5*time.Minute, 100)

	mock.ExpectSAdd("queue:processing:concert", "u1").SetVal(1)
	mock.ExpectExpire("queue:processing:concert", 5*time.Minute).SetVal(true)

	err := p.Add(context.Background(), "concert", "u1")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessingSet_AddAll(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewProcessingSet(db, 5*time.Minute, 100)

	mock.ExpectSAdd("queue:processing:concert", "u1", "u2", "u3").SetVal(3)
	mock.ExpectExpire("queue:processing:concert", 5*time.Minute).SetVal(true)

	err := p.AddAll(context.Background(), "concert", []string{"u1", "u2", "u3"})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessingSet_AddAll_EmptyIsNoop(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewProcessingSet(db, 5*time.Minute, 100)

	err := p.AddAll(context.Background(), "concert", nil)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessingSet_Contains(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewProcessingSet(db, 5*time.Minute, 100)

	mock.ExpectSIsMember("queue:processing:concert", "u1").SetVal(true)
	mock.ExpectSIsMember("queue:processing:concert", "u2").SetVal(false)

	found, err := p.Contains(context.Background(), "concert", "u1")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = p.Contains(context.Background(), "concert", "u2")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessingSet_Remove(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewProcessingSet(db, 5*time.Minute, 100)

	mock.ExpectSRem("queue:processing:concert", "u1").SetVal(1)

	err := p.Remove(context.Background(), "concert", "u1")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessingSet_CapacityMath(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewProcessingSet(db, 5*time.Minute, 3)

	mock.ExpectSCard("queue:processing:concert").SetVal(2)
	mock.ExpectSCard("queue:processing:concert").SetVal(3)
	mock.ExpectSCard("queue:processing:concert").SetVal(1)

	hasCapacity, err := p.HasCapacity(context.Background(), "concert")
	require.NoError(t, err)
	assert.True(t, hasCapacity)

	hasCapacity, err = p.HasCapacity(context.Background(), "concert")
	require.NoError(t, err)
	assert.False(t, hasCapacity)

	remaining, err := p.RemainingCapacity(context.Background(), "concert")
	require.NoError(t, err)
	assert.Equal(t, int64(2), remaining)

	assert.NoError(t, mock.ExpectationsWereMet())
}
