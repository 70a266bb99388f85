package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BatchStatus string

const (
	BatchStatusBaking     BatchStatus = "BAKING"
	BatchStatusReady      BatchStatus = "READY"
	BatchStatusDispatched BatchStatus = "DISPATCHED"
	BatchStatusDelivered  BatchStatus = "DELIVERED"
)

// Rank orders statuses along the forward-only lifecycle.
func (s BatchStatus) Rank() int {
	switch s {
	case BatchStatusBaking:
		return 0
	case BatchStatusReady:
		return 1
	case BatchStatusDispatched:
		return 2
	case BatchStatusDelivered:
		return 3
	}
	return -1
}

type BatchTrigger struct {
	Source      string `json:"source"` // manual, auto
	RequestedBy string `json:"requested_by,omitempty"`
	Note        string `json:"note,omitempty"`
}

type BatchAllocation struct {
	OrderID         int64           `json:"order_id"`
	OrderItemID     int64           `json:"order_item_id"`
	ProductID       int64           `json:"product_id"`
	BroasPlanned    decimal.Decimal `json:"broas_planned"`
	SaleUnitsApprox decimal.Decimal `json:"sale_units_approx"`
}

type ProductionBatch struct {
	ID                string            `json:"id"`
	Trigger           BatchTrigger      `json:"trigger"`
	BakeTimerMinutes  int               `json:"bake_timer_minutes"`
	OvenCapacityBroas int               `json:"oven_capacity_broas"`
	StartedAt         time.Time         `json:"started_at"`
	ReadyAt           time.Time         `json:"ready_at"`
	Status            BatchStatus       `json:"status"`
	LinkedOrderIDs    []int64           `json:"linked_order_ids"`
	Allocations       []BatchAllocation `json:"allocations"`
	DispatchedAt      *time.Time        `json:"dispatched_at,omitempty"`
	DeliveredAt       *time.Time        `json:"delivered_at,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// PlannedBroas sums BroasPlanned over the batch allocations.
func (b *ProductionBatch) PlannedBroas() decimal.Decimal {
	total := decimal.Zero
	for _, a := range b.Allocations {
		total = total.Add(a.BroasPlanned)
	}
	return total
}

// RuntimeState is the whole scheduler state, persisted as one blob. Batches are most recent first.
type RuntimeState struct {
	Version   int               `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
	Batches   []ProductionBatch `json:"batches"`
}

const RuntimeStateVersion = 1

func (s *RuntimeState) ActiveBatch() *ProductionBatch {
	for i := range s.Batches {
		if s.Batches[i].Status == BatchStatusBaking {
			return &s.Batches[i]
		}
	}
	return nil
}

func (s *RuntimeState) FindBatch(id string) *ProductionBatch {
	for i := range s.Batches {
		if s.Batches[i].ID == id {
			return &s.Batches[i]
		}
	}
	return nil
}

// ProducedByItem sums BroasPlanned per order item across every batch in the state.
func (s *RuntimeState) ProducedByItem() map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal)
	for _, b := range s.Batches {
		for _, a := range b.Allocations {
			out[a.OrderItemID] = out[a.OrderItemID].Add(a.BroasPlanned)
		}
	}
	return out
}
