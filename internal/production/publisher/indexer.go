package publisher

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/shopspring/decimal"
)

const BatchIndex = "production_batches"

const batchIndexMapping = `{
  "mappings": {
    "properties": {
      "id":               { "type": "keyword" },
      "status":           { "type": "keyword" },
      "trigger_source":   { "type": "keyword" },
      "requested_by":     { "type": "keyword" },
      "linked_order_ids": { "type": "long" },
      "planned_broas":    { "type": "double" },
      "oven_capacity":    { "type": "integer" },
      "started_at":       { "type": "date" },
      "ready_at":         { "type": "date" },
      "dispatched_at":    { "type": "date" },
      "delivered_at":     { "type": "date" },
      "updated_at":       { "type": "date" }
    }
  }
}`

// DocumentStore is satisfied by search.Client.
type DocumentStore interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc interface{}) error
}

type batchDocument struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	TriggerSource  string          `json:"trigger_source"`
	RequestedBy    string          `json:"requested_by,omitempty"`
	LinkedOrderIDs []int64         `json:"linked_order_ids"`
	PlannedBroas   decimal.Decimal `json:"planned_broas"`
	OvenCapacity   int             `json:"oven_capacity"`
	StartedAt      time.Time       `json:"started_at"`
	ReadyAt        time.Time       `json:"ready_at"`
	DispatchedAt   *time.Time      `json:"dispatched_at,omitempty"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type ElasticBatchIndexer struct {
	store DocumentStore
}

func NewElasticBatchIndexer(store DocumentStore) *ElasticBatchIndexer {
	return &ElasticBatchIndexer{store: store}
}

var _ production.BatchIndexer = (*ElasticBatchIndexer)(nil)

func (i *ElasticBatchIndexer) EnsureIndex(ctx context.Context) error {
	return i.store.CreateIndex(ctx, BatchIndex, batchIndexMapping)
}

func (i *ElasticBatchIndexer) IndexBatch(ctx context.Context, batch *model.ProductionBatch) error {
	doc := batchDocument{
		ID:             batch.ID,
		Status:         string(batch.Status),
		TriggerSource:  batch.Trigger.Source,
		RequestedBy:    batch.Trigger.RequestedBy,
		LinkedOrderIDs: batch.LinkedOrderIDs,
		PlannedBroas:   batch.PlannedBroas(),
		OvenCapacity:   batch.OvenCapacityBroas,
		StartedAt:      batch.StartedAt,
		ReadyAt:        batch.ReadyAt,
		DispatchedAt:   batch.DispatchedAt,
		DeliveredAt:    batch.DeliveredAt,
		UpdatedAt:      batch.UpdatedAt,
	}
	return i.store.Index(ctx, BatchIndex, batch.ID, doc)
}
