package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production/dto"
	"github.com/shopspring/decimal"
)

func isQueueStatus(s model.OrderStatus) bool {
	switch s {
	case model.OrderStatusConfirmed, model.OrderStatusPreparing, model.OrderStatusReady, model.OrderStatusDelivered:
		return true
	}
	return false
}

// buildQueueRows returns every queue-eligible order with broas to bake, in production order.
func buildQueueRows(data *planningData, state *model.RuntimeState) []dto.QueueRow {
	produced := state.ProducedByItem()
	rows := []dto.QueueRow{}

	for i := range data.orders {
		o := &data.orders[i]
		if !isQueueStatus(o.Status) {
			continue
		}

		row := dto.QueueRow{
			OrderID:        o.ID,
			CustomerName:   o.CustomerName,
			Status:         o.Status,
			ScheduledAt:    o.ScheduledAt,
			TotalBroas:     decimal.Zero,
			ProducedBroas:  decimal.Zero,
			RemainingBroas: decimal.Zero,
			Items:          make([]dto.QueueItem, 0, len(o.Items)),
		}
		for _, it := range o.Items {
			total := data.totalBroas(it)
			done := data.producedBroas(it, produced)
			remaining := decimal.Max(decimal.Zero, total.Sub(done))

			row.Items = append(row.Items, dto.QueueItem{
				OrderItemID:      it.ID,
				ProductID:        it.ProductID,
				ProductName:      data.products[it.ProductID].Name,
				SaleUnits:        it.Quantity,
				UnitsPerSaleUnit: data.unitsPerSaleUnit(it.ProductID),
				TotalBroas:       total,
				ProducedBroas:    done,
				RemainingBroas:   remaining,
			})
			row.TotalBroas = row.TotalBroas.Add(total).Round(4)
			row.ProducedBroas = row.ProducedBroas.Add(done).Round(4)
			row.RemainingBroas = row.RemainingBroas.Add(remaining).Round(4)
		}

		if !row.TotalBroas.IsPositive() {
			continue
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].ScheduledAt, rows[j].ScheduledAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return rows[i].OrderID < rows[j].OrderID
	})
	return rows
}

// visibleRows keeps rows still to bake plus ready and delivered orders.
func visibleRows(rows []dto.QueueRow) []dto.QueueRow {
	out := make([]dto.QueueRow, 0, len(rows))
	for _, r := range rows {
		if r.RemainingBroas.IsPositive() || r.Status == model.OrderStatusReady || r.Status == model.OrderStatusDelivered {
			out = append(out, r)
		}
	}
	return out
}

func (uc *productionUseCase) snapshot(state *model.RuntimeState, data *planningData, now time.Time) *dto.QueueSnapshot {
	snap := &dto.QueueSnapshot{
		OvenCapacityBroas: uc.cfg.OvenCapacityBroas,
		BakeTimerMinutes:  uc.cfg.BakeTimerMinutes,
		DispatchPolicy:    string(uc.cfg.DispatchPolicy),
		Rows:              visibleRows(buildQueueRows(data, state)),
		GeneratedAt:       now,
	}
	if active := state.ActiveBatch(); active != nil {
		b := *active
		snap.ActiveBatch = &b
	}

	limit := uc.cfg.RecentBatchLimit
	if limit > len(state.Batches) {
		limit = len(state.Batches)
	}
	snap.RecentBatches = append([]model.ProductionBatch{}, state.Batches[:limit]...)
	return snap
}

func (uc *productionUseCase) Queue(ctx context.Context) (*dto.QueueSnapshot, error) {
	var snap *dto.QueueSnapshot
	err := uc.withLock(ctx, func() error {
		view, err := uc.loadAndReconcile(ctx)
		if err != nil {
			return err
		}
		snap = uc.snapshot(view.state, view.data, view.now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
