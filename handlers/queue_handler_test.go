package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ticket-gate/lock"
	"ticket-gate/models"
	"ticket-gate/notify"
	"ticket-gate/queue"
	"ticket-gate/services"
	"ticket-gate/stock"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v5"
	"github.com/pocketbase/dbx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

type testServer struct {
	echo         *echo.Echo
	orchestrator *services.Orchestrator
	store        *stock.SQLStore
}

func setupServer(t *testing.T, maxProcessing int) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db, err := dbx.Open("sqlite", filepath.Join(t.TempDir(), "handlers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := stock.NewSQLStore(db, "sqlite")
	require.NoError(t, store.EnsureSchema(context.Background()))

	locker := lock.NewLocker(client, 10*time.Second, time.Minute)
	waiting := queue.NewWaitingQueue(client, 30*time.Minute)
	processing := queue.NewProcessingSet(client, 5*time.Minute, maxProcessing)
	queueService := queue.NewService(waiting, processing, locker)
	registry := notify.NewRegistry(time.Minute)
	t.Cleanup(registry.CloseAll)

	orchestrator := services.NewOrchestrator(queueService, registry, nil, nil)
	guard := stock.NewMutexGuard(store)
	purchase := services.NewPurchaseService(orchestrator, guard, store, nil, "in-process")

	queueHandler := NewQueueHandler(orchestrator)
	stockHandler := NewStockHandler(purchase, store)

	e := echo.New()
	e.POST("/api/queue/:resourceId/enter", queueHandler.Enter)
	e.GET("/api/queue/:resourceId/status", queueHandler.Status)
	e.DELETE("/api/queue/:resourceId", queueHandler.Cancel)
	e.POST("/api/stocks/:resourceId/purchase", stockHandler.Purchase)
	e.GET("/api/stocks/:resourceId", stockHandler.GetStock)

	return &testServer{echo: e, orchestrator: orchestrator, store: store}
}

func (s *testServer) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seedStock(t *testing.T, resourceID string, quantity int) {
	t.Helper()

	require.NoError(t, s.store.Create(context.Background(), &models.StockRecord{
		ResourceID:        resourceID,
		TotalQuantity:     quantity,
		RemainingQuantity: quantity,
		UnitPrice:         decimal.RequireFromString("10.00"),
	}))
}

func TestQueueHandler_Enter_StreamsEnterEvent(t *testing.T) {
	s := setupServer(t, 2)

	// With a free slot the user is promoted immediately and the stream
	// carries the enter event before closing.
	rec := s.request(t, http.MethodPost, "/api/queue/concert/enter", `{"user_id":"u1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), "event: enter")
	assert.Contains(t, rec.Body.String(), `"status":"PROCESSING"`)
}

func TestQueueHandler_Enter_RequiresUserID(t *testing.T) {
	s := setupServer(t, 2)

	rec := s.request(t, http.MethodPost, "/api/queue/concert/enter", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueueHandler_Enter_Duplicate(t *testing.T) {
	s := setupServer(t, 2)

	rec := s.request(t, http.MethodPost, "/api/queue/concert/enter", `{"user_id":"u1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.request(t, http.MethodPost, "/api/queue/concert/enter", `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestQueueHandler_Status(t *testing.T) {
	s := setupServer(t, 1)

	rec := s.request(t, http.MethodGet, "/api/queue/concert/status?user_id=ghost", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"NOT_IN_QUEUE"`)

	// Fill the slot, then a waiting user reports WAITING with a position.
	s.request(t, http.MethodPost, "/api/queue/concert/enter", `{"user_id":"u1"}`)
	_, err := s.orchestrator.RegisterAndSubscribe(context.Background(), "concert", "u2")
	require.NoError(t, err)

	rec = s.request(t, http.MethodGet, "/api/queue/concert/status?user_id=u2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"WAITING"`)
	assert.Contains(t, rec.Body.String(), `"position":0`)
}

func TestQueueHandler_Cancel(t *testing.T) {
	s := setupServer(t, 1)

	s.request(t, http.MethodPost, "/api/queue/concert/enter", `{"user_id":"u1"}`)

	rec := s.request(t, http.MethodDelete, "/api/queue/concert?user_id=u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.request(t, http.MethodDelete, "/api/queue/concert?user_id=u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStockHandler_Purchase(t *testing.T) {
	s := setupServer(t, 2)
	s.seedStock(t, "concert", 5)

	// Not admitted yet: the purchase gate refuses.
	rec := s.request(t, http.MethodPost, "/api/stocks/concert/purchase", `{"user_id":"u1","quantity":1}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	s.request(t, http.MethodPost, "/api/queue/concert/enter", `{"user_id":"u1"}`)

	rec = s.request(t, http.MethodPost, "/api/stocks/concert/purchase", `{"user_id":"u1","quantity":2}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.request(t, http.MethodGet, "/api/stocks/concert", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"remaining_quantity":3`)
}

func TestStockHandler_Purchase_InsufficientStock(t *testing.T) {
	s := setupServer(t, 2)
	s.seedStock(t, "concert", 1)

	s.request(t, http.MethodPost, "/api/queue/concert/enter", `{"user_id":"u1"}`)

	rec := s.request(t, http.MethodPost, "/api/stocks/concert/purchase", `{"user_id":"u1","quantity":3}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"remaining":1`)
	assert.Contains(t, rec.Body.String(), `"requested":3`)
}

func TestStockHandler_GetStock_NotFound(t *testing.T) {
	s := setupServer(t, 1)

	rec := s.request(t, http.MethodGet, "/api/stocks/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStockHandler_Purchase_ValidatesBody(t *testing.T) {
	s := setupServer(t, 1)

	rec := s.request(t, http.MethodPost, "/api/stocks/concert/purchase", `{"user_id":"u1","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.request(t, http.MethodPost, "/api/stocks/concert/purchase", `{"quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
