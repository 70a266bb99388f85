package dto

import (
	"time"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/shopspring/decimal"
)

// Requirement basis values.
const (
	BasisDeliveryDate   = "deliveryDate"
	BasisCreatedAtPlus1 = "createdAtPlus1"
)

// Requirement warning codes.
const (
	WarningBOMMissing        = "BOM_MISSING"
	WarningBOMItemMissingQty = "BOM_ITEM_MISSING_QTY"
)

type RequirementsResult struct {
	Date        string           `json:"date"`
	Basis       string           `json:"basis"`
	Rows        []RequirementRow `json:"rows"`
	Warnings    []Warning        `json:"warnings"`
	GeneratedAt time.Time        `json:"generated_at"`
}

type RequirementRow struct {
	IngredientID int64                  `json:"ingredient_id"`
	Name         string                 `json:"name"`
	Unit         string                 `json:"unit"`
	RequiredQty  decimal.Decimal        `json:"required_qty"`
	AvailableQty decimal.Decimal        `json:"available_qty"`
	ShortageQty  decimal.Decimal        `json:"shortage_qty"`
	Breakdown    []RequirementBreakdown `json:"breakdown"`
}

type RequirementBreakdown struct {
	OrderID     int64           `json:"order_id"`
	OrderItemID int64           `json:"order_item_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	RequiredQty decimal.Decimal `json:"required_qty"`
	Method      string          `json:"method"`
}

type Warning struct {
	Code         string `json:"code"`
	OrderID      int64  `json:"order_id"`
	OrderItemID  int64  `json:"order_item_id"`
	ProductID    int64  `json:"product_id"`
	IngredientID *int64 `json:"ingredient_id,omitempty"`
	Message      string `json:"message"`
}

type QueueItem struct {
	OrderItemID      int64           `json:"order_item_id"`
	ProductID        int64           `json:"product_id"`
	ProductName      string          `json:"product_name"`
	SaleUnits        decimal.Decimal `json:"sale_units"`
	UnitsPerSaleUnit decimal.Decimal `json:"units_per_sale_unit"`
	TotalBroas       decimal.Decimal `json:"total_broas"`
	ProducedBroas    decimal.Decimal `json:"produced_broas"`
	RemainingBroas   decimal.Decimal `json:"remaining_broas"`
}

type QueueRow struct {
	OrderID        int64             `json:"order_id"`
	CustomerName   string            `json:"customer_name"`
	Status         model.OrderStatus `json:"status"`
	ScheduledAt    *time.Time        `json:"scheduled_at,omitempty"`
	TotalBroas     decimal.Decimal   `json:"total_broas"`
	ProducedBroas  decimal.Decimal   `json:"produced_broas"`
	RemainingBroas decimal.Decimal   `json:"remaining_broas"`
	Items          []QueueItem       `json:"items"`
}

type QueueSnapshot struct {
	OvenCapacityBroas int                     `json:"oven_capacity_broas"`
	BakeTimerMinutes  int                     `json:"bake_timer_minutes"`
	DispatchPolicy    string                  `json:"dispatch_policy"`
	ActiveBatch       *model.ProductionBatch  `json:"active_batch,omitempty"`
	RecentBatches     []model.ProductionBatch `json:"recent_batches"`
	Rows              []QueueRow              `json:"rows"`
	GeneratedAt       time.Time               `json:"generated_at"`
}

type StartBatchInput struct {
	Source      string `json:"source"`
	RequestedBy string `json:"requested_by"`
	Note        string `json:"note"`
}

type StartBatchResult struct {
	BatchID     string                  `json:"batch_id"`
	ReadyAt     time.Time               `json:"ready_at"`
	Allocations []model.BatchAllocation `json:"allocations"`
	Queue       *QueueSnapshot          `json:"queue"`
}

type CompleteBatchResult struct {
	Batch *model.ProductionBatch `json:"batch"`
	Queue *QueueSnapshot         `json:"queue"`
}
