package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/events"
	"github.com/37vikanshu-dot/Mini-Drop/middleware"
	"github.com/37vikanshu-dot/Mini-Drop/models"
)

func InitConsumer(cfg Config, logger *zap.Logger) (sarama.Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Return.Errors = true
	config.Consumer.Retry.Backoff = 1 * time.Second

	consumer, err := sarama.NewConsumer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	logger.Info("Kafka consumer initialized")
	return consumer, nil
}

// Consumer reads order events from every partition of the topic, sends
// customer notifications and forwards each event to sink.
type Consumer struct {
	consumer   sarama.Consumer
	topic      string
	sink       events.Publisher
	logger     *zap.Logger
	maxRetries int
	backoff    time.Duration
}

func NewConsumer(consumer sarama.Consumer, topic string, sink events.Publisher, logger *zap.Logger) *Consumer {
	return &Consumer{
		consumer:   consumer,
		topic:      topic,
		sink:       sink,
		logger:     logger,
		maxRetries: 3,
		backoff:    time.Second,
	}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	partitions, err := c.consumer.Partitions(c.topic)
	if err != nil {
		return fmt.Errorf("failed to list partitions: %w", err)
	}

	var wg sync.WaitGroup
	for _, partition := range partitions {
		pc, err := c.consumer.ConsumePartition(c.topic, partition, sarama.OffsetNewest)
		if err != nil {
			return fmt.Errorf("failed to consume partition %d: %w", partition, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer pc.Close()
			c.consume(ctx, pc)
		}()
	}

	c.logger.Info("Kafka consumer started", zap.String("topic", c.topic), zap.Int("partitions", len(partitions)))
	wg.Wait()
	return nil
}

func (c *Consumer) consume(ctx context.Context, pc sarama.PartitionConsumer) {
	for {
		select {
		case <-ctx.Done():
			return
		case message, ok := <-pc.Messages():
			if !ok {
				return
			}
			if err := c.handleMessageWithRetry(ctx, message); err != nil {
				c.logger.Error("Failed to handle message after retries", zap.Error(err))
			}
		case err, ok := <-pc.Errors():
			if !ok {
				return
			}
			c.logger.Error("Kafka consumer error", zap.Error(err))
		}
	}
}

func (c *Consumer) handleMessageWithRetry(ctx context.Context, message *sarama.ConsumerMessage) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err := c.handleMessage(message)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < c.maxRetries {
			backoff := time.Duration(attempt) * c.backoff
			c.logger.Warn("Retrying message handling",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Consumer) handleMessage(message *sarama.ConsumerMessage) error {
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), saramaHeaderCarrierConsumer(message.Headers))
	ctx, span := otel.Tracer("minidrop").Start(ctx, "ProcessOrderEvent")
	defer span.End()

	var event models.OrderEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		// a malformed payload will not improve on retry
		span.RecordError(err)
		c.logger.Error("Dropping malformed event", zap.Error(err), zap.Int64("offset", message.Offset))
		return nil
	}

	span.SetAttributes(
		attribute.String("event.type", event.EventType),
		attribute.String("order.id", event.OrderID),
	)

	Notify(ctx, event, c.logger)

	if err := c.sink.Publish(ctx, event); err != nil {
		span.RecordError(err)
		return fmt.Errorf("forward event %s: %w", event.EventID, err)
	}
	return nil
}

// Notify writes the customer-facing message for an event to the log.
func Notify(ctx context.Context, event models.OrderEvent, logger *zap.Logger) {
	var message string
	switch event.EventType {
	case models.EventOrderCreated:
		message = fmt.Sprintf("Your order %s has been placed. We'll let you know when the shop accepts it.", event.OrderID)
	case models.EventOrderStatusChanged:
		message = statusMessage(event)
	default:
		logger.Debug("Unknown event type", zap.String("event_type", event.EventType))
		return
	}

	middleware.RecordNotificationSent(event.EventType)
	logger.Info("Customer notification sent",
		zap.String("trace_id", middleware.GetTraceID(ctx)),
		zap.String("order_id", event.OrderID),
		zap.String("user_id", event.UserID),
		zap.String("status", string(event.Status)),
		zap.String("message", message),
	)
}

func statusMessage(event models.OrderEvent) string {
	switch event.Status {
	case models.OrderStatusConfirmed:
		return fmt.Sprintf("Order %s is confirmed and being packed.", event.OrderID)
	case models.OrderStatusRejected:
		return fmt.Sprintf("Sorry, the shop could not accept order %s.", event.OrderID)
	case models.OrderStatusReady:
		return fmt.Sprintf("Order %s is packed and waiting for a rider.", event.OrderID)
	case models.OrderStatusOutForDelivery:
		return fmt.Sprintf("Order %s is on its way.", event.OrderID)
	case models.OrderStatusDelivered, models.OrderStatusCompleted:
		return fmt.Sprintf("Order %s has been delivered. Enjoy!", event.OrderID)
	}
	return fmt.Sprintf("Order %s is now %s.", event.OrderID, event.Status)
}

// saramaHeaderCarrierConsumer adapts consumer headers for extraction only.
type saramaHeaderCarrierConsumer []*sarama.RecordHeader

func (c saramaHeaderCarrierConsumer) Get(key string) string {
	for _, h := range c {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c saramaHeaderCarrierConsumer) Set(key, value string) {}

func (c saramaHeaderCarrierConsumer) Keys() []string {
	keys := make([]string, len(c))
	for i, h := range c {
		keys[i] = string(h.Key)
	}
	return keys
}
