package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/google/uuid"
)

// MessageWriter is satisfied by broker.KafkaProducer.
type MessageWriter interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type BatchEvent struct {
	EventID   string                `json:"event_id"`
	EventType string                `json:"event_type"`
	Payload   model.ProductionBatch `json:"payload"`
	Timestamp time.Time             `json:"timestamp"`
}

type KafkaBatchPublisher struct {
	writer MessageWriter
}

func NewKafkaBatchPublisher(writer MessageWriter) *KafkaBatchPublisher {
	return &KafkaBatchPublisher{writer: writer}
}

var _ production.EventPublisher = (*KafkaBatchPublisher)(nil)

// PublishBatchEvent keys messages by batch id so one batch's events stay ordered.
func (p *KafkaBatchPublisher) PublishBatchEvent(ctx context.Context, eventType string, batch *model.ProductionBatch) error {
	value, err := json.Marshal(BatchEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Payload:   *batch,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.writer.Publish(ctx, batch.ID, value)
}
