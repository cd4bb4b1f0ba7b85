package handlers

import (
	"errors"
	"net/http"

	"ticket-gate/status"

	"github.com/labstack/echo/v5"
)

// writeError maps the core error taxonomy onto HTTP statuses: conflicts for
// expected contention, forbidden for gate violations, not-found for missing
// records, 500 for everything else.
func writeError(c echo.Context, err error) error {
	var alreadyInQueue *status.AlreadyInQueueError
	if errors.As(err, &alreadyInQueue) {
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}

	var accessDenied *status.QueueAccessDeniedError
	if errors.As(err, &accessDenied) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
	}

	var notInQueue *status.NotInQueueError
	if errors.As(err, &notInQueue) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}

	var lockFailed *status.LockAcquisitionError
	if errors.As(err, &lockFailed) {
		// Retryable by the caller; the guarded action never ran.
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}

	var insufficient *status.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.JSON(http.StatusConflict, map[string]any{
			"error":     err.Error(),
			"remaining": insufficient.Remaining,
			"requested": insufficient.Requested,
		})
	}

	if errors.Is(err, status.ErrStockNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
