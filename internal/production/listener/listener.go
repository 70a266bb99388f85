package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type DeliveryListener struct {
	consumer MessageReader
	uc       production.UseCase
	logger   logger.ZapLogger
}

func NewDeliveryListener(consumer MessageReader, uc production.UseCase, logger logger.ZapLogger) *DeliveryListener {
	return &DeliveryListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *DeliveryListener) Start(ctx context.Context) {
	l.logger.Info("Starting Delivery Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Delivery Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type DeliveryEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   DeliveryPayload `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type DeliveryPayload struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

// reconcileTriggers are the event types that can move a batch forward.
var reconcileTriggers = map[string]bool{
	"DeliveryCompleted":     true,
	"DeliveryStatusChanged": true,
	"OrderConfirmed":        true,
}

func (l *DeliveryListener) processMessage(ctx context.Context, value []byte) {
	var event DeliveryEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if !reconcileTriggers[event.EventType] {
		return
	}

	l.logger.Info("Reconciling production on event",
		zap.String("event_type", event.EventType),
		zap.Int64("order_id", event.Payload.OrderID),
	)

	if err := l.uc.Reconcile(ctx); err != nil {
		l.logger.Error("Failed to reconcile production",
			zap.String("event_id", event.EventID),
			zap.Int64("order_id", event.Payload.OrderID),
			zap.Error(err),
		)
	}
}
