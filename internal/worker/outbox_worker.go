package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/repository"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/kafka"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/logger"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/retry"
)

// OutboxWorkerConfig contains configuration for the outbox worker
type OutboxWorkerConfig struct {
	// PollInterval is the interval between polling for publishable messages
	PollInterval time.Duration
	// BatchSize is the number of messages locked per poll
	BatchSize int
	// CleanupInterval is the interval between cleanup of old published messages
	CleanupInterval time.Duration
	// RetentionPeriod is how long published messages are kept
	RetentionPeriod time.Duration
	// PublishRetry bounds the in-poll retries of one message. Keep it short:
	// the batch transaction stays open while it runs.
	PublishRetry *retry.Config
}

// DefaultOutboxWorkerConfig returns default configuration
func DefaultOutboxWorkerConfig() *OutboxWorkerConfig {
	return &OutboxWorkerConfig{
		PollInterval:    500 * time.Millisecond,
		BatchSize:       100,
		CleanupInterval: 1 * time.Hour,
		RetentionPeriod: 7 * 24 * time.Hour,
		PublishRetry: &retry.Config{
			MaxRetries:      2,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     1 * time.Second,
			Multiplier:      2.0,
			JitterFactor:    0.1,
		},
	}
}

// Publisher sends one record to the broker
type Publisher interface {
	Produce(ctx context.Context, msg *kafka.Message) error
}

// OutboxWorker relays outbox rows to Kafka
type OutboxWorker struct {
	outboxRepo repository.OutboxRepository
	producer   Publisher
	retrier    *retry.Retrier
	config     *OutboxWorkerConfig
	log        *logger.Logger
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
}

// NewOutboxWorker creates a new outbox worker
func NewOutboxWorker(outboxRepo repository.OutboxRepository, producer Publisher, config *OutboxWorkerConfig) *OutboxWorker {
	defaults := DefaultOutboxWorkerConfig()
	if config == nil {
		config = defaults
	}
	cfg := *config
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaults.CleanupInterval
	}
	if cfg.RetentionPeriod <= 0 {
		cfg.RetentionPeriod = defaults.RetentionPeriod
	}
	if cfg.PublishRetry == nil {
		cfg.PublishRetry = defaults.PublishRetry
	}

	return &OutboxWorker{
		outboxRepo: outboxRepo,
		producer:   producer,
		retrier:    retry.New(cfg.PublishRetry),
		config:     &cfg,
		log:        logger.Get(),
		stopCh:     make(chan struct{}),
	}
}

// Start starts the poll and cleanup loops
func (w *OutboxWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting outbox worker",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize),
	)

	w.wg.Add(2)
	go w.loop(ctx, w.config.PollInterval, w.processBatch)
	go w.loop(ctx, w.config.CleanupInterval, w.cleanup)

	return nil
}

// Stop stops the worker and waits for in-flight batches
func (w *OutboxWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping outbox worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Outbox worker stopped")
}

func (w *OutboxWorker) loop(ctx context.Context, interval time.Duration, tick func(ctx context.Context)) {
	defer w.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

// processBatch publishes one batch of pending and retryable messages
func (w *OutboxWorker) processBatch(ctx context.Context) {
	published, failed, err := w.outboxRepo.ProcessBatch(ctx, w.config.BatchSize, w.publishMessage)
	if err != nil {
		w.log.Error("Failed to process outbox batch", zap.Error(err))
		return
	}
	if failed > 0 {
		w.log.Warn("Outbox messages failed to publish",
			zap.Int("published", published),
			zap.Int("failed", failed),
		)
	} else if published > 0 {
		w.log.Debug("Outbox messages published", zap.Int("published", published))
	}
}

func (w *OutboxWorker) cleanup(ctx context.Context) {
	deleted, err := w.outboxRepo.DeletePublished(ctx, w.config.RetentionPeriod)
	if err != nil {
		w.log.Error("Failed to cleanup old outbox messages", zap.Error(err))
		return
	}
	if deleted > 0 {
		w.log.Info("Cleaned up old published outbox messages", zap.Int64("deleted", deleted))
	}
}

// publishMessage publishes a message to Kafka with a short backoff
func (w *OutboxWorker) publishMessage(ctx context.Context, msg *domain.OutboxMessage) error {
	kafkaMsg := &kafka.Message{
		Topic: msg.Topic,
		Key:   []byte(msg.PartitionKey),
		Value: msg.Payload,
		Headers: map[string]string{
			"event_type":     msg.EventType,
			"aggregate_type": msg.AggregateType,
			"aggregate_id":   msg.AggregateID,
			"message_id":     msg.ID,
			"content_type":   "application/json",
			"source":         "outbox-worker",
		},
	}

	result := w.retrier.DoWithCallback(ctx, func(ctx context.Context) error {
		return w.producer.Produce(ctx, kafkaMsg)
	}, func(attempt int, err error, next time.Duration) {
		w.log.Warn("Retrying outbox publish",
			zap.String("message_id", msg.ID),
			zap.Int("attempt", attempt),
			zap.Duration("next", next),
			zap.Error(err),
		)
	})
	if result.Err != nil {
		w.log.Error("Failed to publish outbox message",
			zap.String("message_id", msg.ID),
			zap.String("event_type", msg.EventType),
			zap.Int("retry_count", msg.RetryCount+1),
			zap.Int("max_retries", msg.MaxRetries),
			zap.Error(result.Cause()),
		)
		return result.Cause()
	}
	return nil
}

// GetStats returns worker statistics
func (w *OutboxWorker) GetStats(ctx context.Context) (*OutboxWorkerStats, error) {
	counts, err := w.outboxRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	running := w.running
	w.mu.Unlock()

	return &OutboxWorkerStats{
		IsRunning:         running,
		PendingMessages:   counts[domain.OutboxStatusPending],
		PublishedMessages: counts[domain.OutboxStatusPublished],
		FailedMessages:    counts[domain.OutboxStatusFailed],
	}, nil
}

// OutboxWorkerStats contains worker statistics
type OutboxWorkerStats struct {
	IsRunning         bool `json:"is_running"`
	PendingMessages   int  `json:"pending_messages"`
	PublishedMessages int  `json:"published_messages"`
	FailedMessages    int  `json:"failed_messages"`
}
