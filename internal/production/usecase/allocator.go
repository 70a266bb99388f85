package usecase

import (
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production/dto"
	"github.com/shopspring/decimal"
)

// allocateBatch packs remaining broas first-fit: rows in queue order, items in order
// order, each taking min(remaining, capacity left) until the oven is full.
func allocateBatch(rows []dto.QueueRow, capacity decimal.Decimal) []model.BatchAllocation {
	allocations := []model.BatchAllocation{}
	left := capacity

	for _, row := range rows {
		if !left.IsPositive() {
			break
		}
		for _, item := range row.Items {
			if !left.IsPositive() {
				break
			}
			if !item.RemainingBroas.IsPositive() {
				continue
			}

			take := decimal.Min(item.RemainingBroas, left).Round(4)
			units := item.UnitsPerSaleUnit
			if !units.IsPositive() {
				units = decimal.NewFromInt(1)
			}

			allocations = append(allocations, model.BatchAllocation{
				OrderID:         row.OrderID,
				OrderItemID:     item.OrderItemID,
				ProductID:       item.ProductID,
				BroasPlanned:    take,
				SaleUnitsApprox: take.Div(units).Round(4),
			})
			left = left.Sub(take)
		}
	}
	return allocations
}

// candidateRows are queue rows the scheduler may still bake for.
func candidateRows(rows []dto.QueueRow) []dto.QueueRow {
	out := make([]dto.QueueRow, 0, len(rows))
	for _, r := range rows {
		if !r.RemainingBroas.IsPositive() {
			continue
		}
		if r.Status == model.OrderStatusConfirmed || r.Status == model.OrderStatusPreparing {
			out = append(out, r)
		}
	}
	return out
}
