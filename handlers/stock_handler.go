package handlers

import (
	"net/http"

	"ticket-gate/models"
	"ticket-gate/services"
	"ticket-gate/stock"

	"github.com/labstack/echo/v5"
	"github.com/shopspring/decimal"
)

type StockHandler struct {
	purchase *services.PurchaseService
	store    *stock.SQLStore
}

func NewStockHandler(purchaseService *services.PurchaseService, store *stock.SQLStore) *StockHandler {
	return &StockHandler{
		purchase: purchaseService,
		store:    store,
	}
}

// Purchase decrements the stock for a processing-set member and releases the
// slot afterwards.
func (h *StockHandler) Purchase(c echo.Context) error {
	resourceID := c.PathParam("resourceId")

	var req struct {
		UserID   string `json:"user_id"`
		Quantity int    `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.UserID == "" || req.Quantity <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id and a positive quantity are required"})
	}

	if err := h.purchase.Purchase(c.Request().Context(), resourceID, req.UserID, req.Quantity); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "success"})
}

// GetStock returns the current counter, mainly for dashboards and tests.
func (h *StockHandler) GetStock(c echo.Context) error {
	rec, err := h.store.Get(c.Request().Context(), c.PathParam("resourceId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// CreateStock seeds a stock record (admin only).
func (h *StockHandler) CreateStock(c echo.Context) error {
	var req struct {
		ResourceID    string          `json:"resource_id"`
		TotalQuantity int             `json:"total_quantity"`
		UnitPrice     decimal.Decimal `json:"unit_price"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.ResourceID == "" || req.TotalQuantity <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "resource_id and a positive total_quantity are required"})
	}

	rec := &models.StockRecord{
		ResourceID:        req.ResourceID,
		TotalQuantity:     req.TotalQuantity,
		RemainingQuantity: req.TotalQuantity,
		UnitPrice:         req.UnitPrice,
	}
	if err := h.store.Create(c.Request().Context(), rec); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, rec)
}
