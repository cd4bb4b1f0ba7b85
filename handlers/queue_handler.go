package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ticket-gate/notify"
	"ticket-gate/services"

	"github.com/labstack/echo/v5"
)

type QueueHandler struct {
	orchestrator *services.Orchestrator
}

func NewQueueHandler(orchestrator *services.Orchestrator) *QueueHandler {
	return &QueueHandler{orchestrator: orchestrator}
}

// Enter registers the caller into the waiting queue and streams its queue
// events as SSE until the channel completes.
func (h *QueueHandler) Enter(c echo.Context) error {
	resourceID := c.PathParam("resourceId")

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id is required"})
	}

	ch, err := h.orchestrator.RegisterAndSubscribe(c.Request().Context(), resourceID, req.UserID)
	if err != nil {
		return writeError(c, err)
	}

	return h.streamEvents(c, ch)
}

// Status returns the polling snapshot: position, can-enter hint, derived
// status.
func (h *QueueHandler) Status(c echo.Context) error {
	resourceID := c.PathParam("resourceId")
	userID := c.QueryParam("user_id")

	info, err := h.orchestrator.Info(c.Request().Context(), resourceID, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

// Cancel removes the caller from the queue and releases its slot.
func (h *QueueHandler) Cancel(c echo.Context) error {
	resourceID := c.PathParam("resourceId")
	userID := c.QueryParam("user_id")

	if err := h.orchestrator.OnCancel(c.Request().Context(), resourceID, userID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "cancelled"})
}

func (h *QueueHandler) streamEvents(c echo.Context, ch *notify.Channel) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	for {
		select {
		case ev := <-ch.Events():
			if err := writeSSE(w, ev); err != nil {
				ch.Complete()
				return nil
			}
			w.Flush()
		case <-ch.Done():
			// Drain events buffered before completion, the ENTER event in
			// particular, which is sent right before the channel closes.
			for {
				select {
				case ev := <-ch.Events():
					if err := writeSSE(w, ev); err != nil {
						return nil
					}
					w.Flush()
				default:
					return nil
				}
			}
		case <-c.Request().Context().Done():
			ch.Complete()
			return nil
		}
	}
}

func writeSSE(w *echo.Response, ev notify.Event) error {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}
