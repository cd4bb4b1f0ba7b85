package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticket-gate/config"
	"ticket-gate/handlers"
	"ticket-gate/lock"
	"ticket-gate/monitoring"
	"ticket-gate/notify"
	"ticket-gate/queue"
	"ticket-gate/security"
	"ticket-gate/services"
	"ticket-gate/stock"
	"ticket-gate/utils"

	"github.com/labstack/echo/v5"
	"github.com/pocketbase/dbx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	_ "modernc.org/sqlite"
)

func Start() error {
	cfg := config.LoadConfig()

	// Redis holds the queue structures and the distributed locks.
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// The stock counter lives in SQL.
	db, err := dbx.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	store := stock.NewSQLStore(db, cfg.DatabaseDriver)
	if err := store.EnsureSchema(context.Background()); err != nil {
		return err
	}

	// Core services.
	locker := lock.NewLocker(redisClient, cfg.LockWaitTime, cfg.LockLeaseTime)
	waiting := queue.NewWaitingQueue(redisClient, cfg.WaitingTimeout)
	processing := queue.NewProcessingSet(redisClient, cfg.EntryTimeout, cfg.MaxProcessingCount)
	queueService := queue.NewService(waiting, processing, locker)

	registry := notify.NewRegistry(cfg.ChannelTimeout)
	broadcaster := notify.NewBroadcaster(cfg.PubNubPublishKey, cfg.PubNubSubscribeKey, cfg.PubNubUserID)

	var monitor *monitoring.Monitor
	if cfg.EnableMetrics {
		monitor = monitoring.NewMonitor(redisClient, registry.Live)
		defer monitor.Stop()
	}

	guard, err := stock.NewGuard(cfg.StockGuardStrategy, store, locker)
	if err != nil {
		return err
	}
	log.Printf("Using stock guard strategy: %s", cfg.StockGuardStrategy)

	orchestrator := services.NewOrchestrator(queueService, registry, broadcaster, monitor)
	purchaseService := services.NewPurchaseService(orchestrator, guard, store, monitor, cfg.StockGuardStrategy)

	// Handlers and routes.
	queueHandler := handlers.NewQueueHandler(orchestrator)
	stockHandler := handlers.NewStockHandler(purchaseService, store)
	adminHandler := handlers.NewAdminHandler(orchestrator, redisClient)

	e := echo.New()

	var enterMiddleware []echo.MiddlewareFunc
	if cfg.EnableRateLimiter {
		rateLimiter := security.NewRateLimiter(redisClient, cfg.RateLimitPerMin)
		enterMiddleware = append(enterMiddleware, rateLimiter.QueueRateLimit())
	}

	e.POST("/api/queue/:resourceId/enter", queueHandler.Enter, enterMiddleware...)
	e.GET("/api/queue/:resourceId/status", queueHandler.Status)
	e.DELETE("/api/queue/:resourceId", queueHandler.Cancel)

	e.POST("/api/stocks/:resourceId/purchase", stockHandler.Purchase)
	e.GET("/api/stocks/:resourceId", stockHandler.GetStock)

	admin := e.Group("/api/admin", security.AdminTokenAuth(cfg.AdminTokenHash))
	admin.GET("/queue-dashboard", adminHandler.GetQueueDashboard)
	admin.GET("/queue-details/:resourceId", adminHandler.GetQueueDetails)
	admin.POST("/promote/:resourceId", adminHandler.ForcePromote)
	admin.POST("/remove-from-queue", adminHandler.RemoveFromQueue)
	admin.POST("/stocks", stockHandler.CreateStock)

	if cfg.EnableMetrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	e.GET("/health", func(c echo.Context) error {
		if err := utils.RedisHealthCheck(redisClient); err != nil {
			return c.JSON(503, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(200, map[string]string{"status": "healthy"})
	})

	// Periodic position re-broadcast so clients that missed an event
	// converge on the current ordering.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.PositionBroadcastSpec, func() {
		refreshAllPositions(redisClient, orchestrator)
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: e,
	}

	go func() {
		log.Printf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	orchestrator.Shutdown()

	return nil
}

func refreshAllPositions(redisClient *redis.Client, orchestrator *services.Orchestrator) {
	ctx := context.Background()

	keys, err := redisClient.Keys(ctx, "queue:waiting:*").Result()
	if err != nil {
		log.Printf("Error listing waiting queues: %v", err)
		return
	}

	for _, key := range keys {
		resourceID := key[len("queue:waiting:"):]
		orchestrator.RefreshPositions(ctx, resourceID)
	}
}
