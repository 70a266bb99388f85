package inventory

import (
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/shopspring/decimal"
)

// NetAvailable folds movements in the given order: IN adds, OUT subtracts, ADJUST
// replaces the running total. Callers must pass movements sorted by (created_at, id).
func NetAvailable(movements []model.InventoryMovement) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal)
	for _, m := range movements {
		current := out[m.ItemID]
		switch m.Type {
		case model.MovementIn:
			current = current.Add(m.Quantity)
		case model.MovementOut:
			current = current.Sub(m.Quantity)
		case model.MovementAdjust:
			current = m.Quantity
		default:
			continue
		}
		out[m.ItemID] = current.Round(4)
	}
	return out
}
