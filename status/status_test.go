package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsUnwrapThroughWrapping(t *testing.T) {
	err := fmt.Errorf("purchase failed: %w", &InsufficientStockError{Remaining: 2, Requested: 5})

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Remaining)
	assert.Equal(t, 5, insufficient.Requested)

	wrapped := fmt.Errorf("decrement: %w", ErrTooManyRetries)
	assert.ErrorIs(t, wrapped, ErrTooManyRetries)
	assert.False(t, errors.Is(wrapped, ErrStockNotFound))
}

func TestErrorMessagesCarryContext(t *testing.T) {
	assert.Contains(t, (&AlreadyInQueueError{ResourceID: "concert", UserID: "u1"}).Error(), "u1")
	assert.Contains(t, (&QueueAccessDeniedError{ResourceID: "concert", UserID: "u1"}).Error(), "concert")
	assert.Contains(t, (&NotInQueueError{ResourceID: "concert", UserID: "u1"}).Error(), "not found")
	assert.Contains(t, (&LockAcquisitionError{Key: "lock:promote:concert"}).Error(), "lock:promote:concert")
}
