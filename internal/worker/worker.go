package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"

	"github.com/illegalcall/reelwriter/internal/activity"
	"github.com/illegalcall/reelwriter/internal/config"
	"github.com/illegalcall/reelwriter/internal/events"
	"github.com/illegalcall/reelwriter/internal/metrics"
	"github.com/illegalcall/reelwriter/internal/rag"
)

// Worker consumes script events and keeps the example cache and the
// activity counters in step with the library.
type Worker struct {
	cfg      *config.Config
	redis    *redis.Client
	activity *activity.Counter
	consumer sarama.ConsumerGroup

	// ready is closed by Setup and replaced before every new session.
	mu    sync.Mutex
	ready chan bool
}

func NewWorker(cfg *config.Config, redisClient *redis.Client, consumer sarama.ConsumerGroup) *Worker {
	slog.Info("Initializing new Worker")
	return &Worker{
		cfg:      cfg,
		redis:    redisClient,
		activity: activity.NewCounter(redisClient),
		consumer: consumer,
		ready:    make(chan bool),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	topics := []string{w.cfg.Kafka.Topic}
	slog.Info("Starting worker", "topics", topics, "group", w.cfg.Kafka.Group)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errs := w.consumer.Errors()
	go func() {
		for err := range errs {
			slog.Error("Kafka consumer error received", "error", err)
		}
	}()

	ready := w.readyChan()
	go func() {
		for {
			if err := w.consumer.Consume(ctx, topics, w); err != nil {
				slog.Error("Error from consumer.Consume", "error", err)
			}
			if ctx.Err() != nil {
				slog.Info("Context done, exiting consumer loop", "error", ctx.Err())
				return
			}
			w.resetReady()
		}
	}()

	select {
	case <-ready:
		slog.Info("Worker setup complete; consumer ready")
	case <-ctx.Done():
		slog.Info("Context cancelled before consumer was ready")
		return nil
	}

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("Context cancelled; shutting down worker")
	}

	slog.Info("Worker shutting down gracefully")
	return nil
}

func (w *Worker) readyChan() chan bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ready
}

func (w *Worker) resetReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ready = make(chan bool)
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (w *Worker) Setup(sarama.ConsumerGroupSession) error {
	slog.Info("Consumer group session setup complete")
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (w *Worker) Cleanup(sarama.ConsumerGroupSession) error {
	slog.Info("Consumer group session cleanup complete")
	return nil
}

// ConsumeClaim must start a consumer loop of ConsumerGroupClaim's Messages().
func (w *Worker) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := w.processEvent(session.Context(), message); err != nil {
			slog.Error("Failed to process event", "offset", message.Offset, "partition", message.Partition, "error", err)
		}
		session.MarkMessage(message, "")
	}
	return nil
}

func (w *Worker) processEvent(ctx context.Context, msg *sarama.ConsumerMessage) error {
	event, err := events.Decode(msg.Value)
	if err != nil {
		metrics.EventsConsumedTotal.WithLabelValues("invalid", metrics.OutcomeFailure).Inc()
		slog.Error("Dropping malformed event", "error", err, "raw", string(msg.Value))
		return err
	}

	for attempt := 1; attempt <= max(w.cfg.Kafka.RetryMax, 1); attempt++ {
		err = w.apply(ctx, event)
		if err == nil {
			break
		}
		slog.Warn("Event processing failed", "type", event.Type, "profile_id", event.ProfileID, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.Kafka.RetryBackoff):
		}
	}

	if err != nil {
		metrics.EventsConsumedTotal.WithLabelValues(string(event.Type), metrics.OutcomeFailure).Inc()
		return fmt.Errorf("event %s ultimately failed: %w", event.ID, err)
	}
	metrics.EventsConsumedTotal.WithLabelValues(string(event.Type), metrics.OutcomeSuccess).Inc()
	slog.Info("Event processed", "type", event.Type, "profile_id", event.ProfileID, "script_id", event.ScriptID)
	return nil
}

func (w *Worker) apply(ctx context.Context, event events.ScriptEvent) error {
	if event.AffectsExamples() {
		if err := rag.Invalidate(ctx, w.redis, event.ProfileID); err != nil {
			return fmt.Errorf("failed to invalidate examples: %w", err)
		}
	}
	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	return w.activity.Incr(ctx, event.ProfileID, string(event.Type), at)
}
