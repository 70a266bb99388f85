package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementIn     MovementType = "IN"
	MovementOut    MovementType = "OUT"
	MovementAdjust MovementType = "ADJUST"
)

// Movement sources used to tag engine-generated ledger entries.
const (
	SourceProductionBatch = "PRODUCTION_BATCH"
	SourceFlowRealign     = "FLOW_REALIGN"
)

type InventoryItem struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Unit string `db:"unit" json:"unit"`
}

// InventoryMovement is an immutable ledger entry.
type InventoryMovement struct {
	ID          int64           `db:"id" json:"id"`
	ItemID      int64           `db:"item_id" json:"item_id"`
	OrderID     *int64          `db:"order_id" json:"order_id"`
	Type        MovementType    `db:"type" json:"type"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	Reason      string          `db:"reason" json:"reason"`
	Source      *string         `db:"source" json:"source"`
	SourceLabel *string         `db:"source_label" json:"source_label"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
