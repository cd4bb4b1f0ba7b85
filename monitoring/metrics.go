package monitoring

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	waitingLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_waiting_length",
			Help: "Current waiting queue length per resource",
		},
		[]string{"resource_id"},
	)

	processingSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_processing_size",
			Help: "Current processing set size per resource",
		},
		[]string{"resource_id"},
	)

	queueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_operations_total",
			Help: "Total queue operations",
		},
		[]string{"operation", "resource_id", "status"},
	)

	promotedUsers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_promoted_users_total",
			Help: "Users promoted from waiting to processing",
		},
		[]string{"resource_id"},
	)

	stockDecrements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_decrements_total",
			Help: "Stock decrement attempts by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	liveChannels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notify_live_channels",
			Help: "Open notification channels on this instance",
		},
	)
)

// Monitor samples queue structures from Redis on a fixed interval and
// exposes per-operation counters for the services to tick.
type Monitor struct {
	redis        *redis.Client
	liveChannels func() int64
	stopChan     chan struct{}
}

func NewMonitor(redisClient *redis.Client, liveChannelCount func() int64) *Monitor {
	monitor := &Monitor{
		redis:        redisClient,
		liveChannels: liveChannelCount,
		stopChan:     make(chan struct{}),
	}

	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.collectQueueMetrics(context.Background())
			if m.liveChannels != nil {
				liveChannels.Set(float64(m.liveChannels()))
			}
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) collectQueueMetrics(ctx context.Context) {
	waitingKeys, err := m.redis.Keys(ctx, "queue:waiting:*").Result()
	if err != nil {
		log.Printf("monitoring: error listing waiting keys: %v", err)
		return
	}
	for _, key := range waitingKeys {
		resourceID := key[len("queue:waiting:"):]
		length, _ := m.redis.ZCard(ctx, key).Result()
		waitingLength.WithLabelValues(resourceID).Set(float64(length))
	}

	processingKeys, _ := m.redis.Keys(ctx, "queue:processing:*").Result()
	for _, key := range processingKeys {
		resourceID := key[len("queue:processing:"):]
		size, _ := m.redis.SCard(ctx, key).Result()
		processingSize.WithLabelValues(resourceID).Set(float64(size))
	}
}

// TrackQueueOperation counts a queue operation outcome.
func (m *Monitor) TrackQueueOperation(operation, resourceID, outcome string) {
	if m == nil {
		return
	}
	queueOperations.WithLabelValues(operation, resourceID, outcome).Inc()
}

// TrackPromotion counts users promoted in one permitProcessing batch.
func (m *Monitor) TrackPromotion(resourceID string, count int) {
	if m == nil {
		return
	}
	promotedUsers.WithLabelValues(resourceID).Add(float64(count))
}

// TrackStockDecrement counts a decrement attempt per strategy.
func (m *Monitor) TrackStockDecrement(strategy, outcome string) {
	if m == nil {
		return
	}
	stockDecrements.WithLabelValues(strategy, outcome).Inc()
}

func (m *Monitor) Stop() {
	close(m.stopChan)
}
