package handlers

import (
	"net/http"

	"ticket-gate/queue"
	"ticket-gate/services"

	"github.com/labstack/echo/v5"
	"github.com/redis/go-redis/v9"
)

type AdminHandler struct {
	orchestrator *services.Orchestrator
	redis        *redis.Client
}

func NewAdminHandler(orchestrator *services.Orchestrator, redisClient *redis.Client) *AdminHandler {
	return &AdminHandler{
		orchestrator: orchestrator,
		redis:        redisClient,
	}
}

// GetQueueDashboard - Get waiting/processing counts for all active resources
func (h *AdminHandler) GetQueueDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	waitingKeys, err := h.redis.Keys(ctx, "queue:waiting:*").Result()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list queues"})
	}
	processingKeys, _ := h.redis.Keys(ctx, "queue:processing:*").Result()

	resources := map[string]map[string]int64{}
	entry := func(resourceID string) map[string]int64 {
		if _, ok := resources[resourceID]; !ok {
			resources[resourceID] = map[string]int64{"waiting": 0, "processing": 0}
		}
		return resources[resourceID]
	}

	for _, key := range waitingKeys {
		resourceID := key[len("queue:waiting:"):]
		count, _ := h.redis.ZCard(ctx, key).Result()
		entry(resourceID)["waiting"] = count
	}
	for _, key := range processingKeys {
		resourceID := key[len("queue:processing:"):]
		count, _ := h.redis.SCard(ctx, key).Result()
		entry(resourceID)["processing"] = count
	}

	return c.JSON(http.StatusOK, resources)
}

// GetQueueDetails - Full waiting line for one resource, in arrival order
func (h *AdminHandler) GetQueueDetails(c echo.Context) error {
	ctx := c.Request().Context()
	resourceID := c.PathParam("resourceId")

	waiting, err := h.redis.ZRange(ctx, queue.WaitingKey(resourceID), 0, -1).Result()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to read queue"})
	}
	processing, _ := h.redis.SMembers(ctx, queue.ProcessingKey(resourceID)).Result()

	return c.JSON(http.StatusOK, map[string]any{
		"resource_id": resourceID,
		"waiting":     waiting,
		"processing":  processing,
	})
}

// ForcePromote - Trigger a promotion round manually
func (h *AdminHandler) ForcePromote(c echo.Context) error {
	resourceID := c.PathParam("resourceId")

	if err := h.orchestrator.Promote(c.Request().Context(), resourceID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "promotion triggered"})
}

// RemoveFromQueue - Evict a user from both structures
func (h *AdminHandler) RemoveFromQueue(c echo.Context) error {
	var req struct {
		ResourceID string `json:"resource_id"`
		UserID     string `json:"user_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if err := h.orchestrator.OnCancel(c.Request().Context(), req.ResourceID, req.UserID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "removed"})
}
