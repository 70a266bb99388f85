package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/kvstore"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/fekuna/omnipos-production-service/internal/production/dto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const consumptionReason = "Consumo de fornada"

func (uc *productionUseCase) StartNextBatch(ctx context.Context, input *dto.StartBatchInput) (*dto.StartBatchResult, error) {
	if input == nil {
		input = &dto.StartBatchInput{}
	}

	var result *dto.StartBatchResult
	err := uc.withLock(ctx, func() error {
		view, err := uc.loadAndReconcile(ctx)
		if err != nil {
			return err
		}
		if active := view.state.ActiveBatch(); active != nil {
			return apperror.Conflict(production.CodeOvenBusy,
				fmt.Sprintf("oven is busy with batch %s until %s", active.ID, active.ReadyAt.In(uc.cfg.Location).Format("15:04")))
		}

		candidates := candidateRows(buildQueueRows(view.data, view.state))
		if len(candidates) == 0 {
			return apperror.Conflict(production.CodeNothingToProduce, "no confirmed order has broas left to bake")
		}

		allocations := allocateBatch(candidates, decimal.NewFromInt(int64(uc.cfg.OvenCapacityBroas)))
		if len(allocations) == 0 {
			return apperror.Conflict(production.CodeBatchNotAssembled, "could not assemble a batch from the queue")
		}

		now := view.now
		source := input.Source
		if source == "" {
			source = "manual"
		}
		batch := model.ProductionBatch{
			ID: uc.newID(),
			Trigger: model.BatchTrigger{
				Source:      source,
				RequestedBy: input.RequestedBy,
				Note:        input.Note,
			},
			BakeTimerMinutes:  uc.cfg.BakeTimerMinutes,
			OvenCapacityBroas: uc.cfg.OvenCapacityBroas,
			StartedAt:         now,
			ReadyAt:           now.Add(time.Duration(uc.cfg.BakeTimerMinutes) * time.Minute),
			Status:            model.BatchStatusBaking,
			LinkedOrderIDs:    linkedOrderIDs(allocations),
			Allocations:       allocations,
			UpdatedAt:         now,
		}
		movements := consumptionMovements(batch.ID, allocations, view.data, now)

		next := &model.RuntimeState{
			Version:   model.RuntimeStateVersion,
			UpdatedAt: now,
			Batches:   append([]model.ProductionBatch{batch}, view.state.Batches...),
		}

		err = uc.scope.Execute(ctx, func(ctx context.Context, repos production.TransactionalRepositories) error {
			if len(movements) > 0 {
				if err := repos.Movements.AppendMovements(ctx, movements); err != nil {
					return err
				}
			}
			for _, orderID := range batch.LinkedOrderIDs {
				if err := repos.Orders.UpdateStatus(ctx, orderID, model.OrderStatusPreparing); err != nil {
					return err
				}
			}
			_, err := repos.State.Save(ctx, next, view.version)
			return err
		})
		if errors.Is(err, kvstore.ErrVersionConflict) {
			return apperror.Conflict(production.CodeStatePersistConflict, "runtime state changed while starting the batch, try again")
		}
		if err != nil {
			return apperror.Internal("failed to commit batch", err)
		}

		for _, orderID := range batch.LinkedOrderIDs {
			view.data.setStatus(orderID, model.OrderStatusPreparing)
		}

		uc.logger.Info("batch started",
			zap.String("batch_id", batch.ID),
			zap.String("planned_broas", batch.PlannedBroas().String()),
			zap.Int("orders", len(batch.LinkedOrderIDs)),
			zap.Int("movements", len(movements)),
		)
		uc.emit(ctx, []batchEvent{{eventType: production.EventBatchStarted, batch: batch}})

		result = &dto.StartBatchResult{
			BatchID:     batch.ID,
			ReadyAt:     batch.ReadyAt,
			Allocations: batch.Allocations,
			Queue:       uc.snapshot(next, view.data, now),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *productionUseCase) CompleteBatch(ctx context.Context, batchID string) (*dto.CompleteBatchResult, error) {
	var result *dto.CompleteBatchResult
	err := uc.withLock(ctx, func() error {
		view, err := uc.loadView(ctx)
		if err != nil {
			return err
		}
		b := view.state.FindBatch(batchID)
		if b == nil {
			return apperror.NotFound(production.CodeBatchNotFound, fmt.Sprintf("batch %s not found", batchID))
		}

		switch b.Status {
		case model.BatchStatusDelivered:
			result = &dto.CompleteBatchResult{Batch: copyBatch(b), Queue: uc.snapshot(view.state, view.data, view.now)}
			return nil

		case model.BatchStatusBaking:
			b.ReadyAt = view.now
			advance(b, model.BatchStatusReady, view.now)
			view.state.UpdatedAt = view.now

			version, err := uc.repos.State.Save(ctx, view.state, view.version)
			if errors.Is(err, kvstore.ErrVersionConflict) {
				return apperror.Conflict(production.CodeStatePersistConflict, "runtime state changed while completing the batch, try again")
			}
			if err != nil {
				return apperror.Internal("failed to persist runtime state", err)
			}
			view.version = version

			uc.logger.Info("batch completed manually", zap.String("batch_id", b.ID))
			uc.emit(ctx, []batchEvent{{eventType: production.EventBatchReady, batch: *b}})
		}

		err = uc.reconcileAndPersist(ctx, view)
		if errors.Is(err, kvstore.ErrVersionConflict) {
			view, err = uc.loadAndReconcile(ctx)
		}
		if err != nil {
			return err
		}

		result = &dto.CompleteBatchResult{
			Batch: copyBatch(view.state.FindBatch(batchID)),
			Queue: uc.snapshot(view.state, view.data, view.now),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// consumptionMovements explodes each allocation through its BOM per broa into OUT movements.
func consumptionMovements(batchID string, allocations []model.BatchAllocation, data *planningData, now time.Time) []model.InventoryMovement {
	source := model.SourceProductionBatch
	var movements []model.InventoryMovement

	for _, a := range allocations {
		bom := data.boms[a.ProductID]
		if bom == nil {
			continue
		}
		units := bom.UnitsPerSaleUnit()

		for _, line := range bom.Items {
			res := ResolveQty(line, bom)
			if !res.Resolved() {
				continue
			}
			qty := res.PerSaleUnit.Div(units).Mul(a.BroasPlanned).Round(4)
			if !qty.IsPositive() {
				continue
			}

			orderID := a.OrderID
			label := batchID
			movements = append(movements, model.InventoryMovement{
				ItemID:      line.IngredientID,
				OrderID:     &orderID,
				Type:        model.MovementOut,
				Quantity:    qty,
				Reason:      consumptionReason,
				Source:      &source,
				SourceLabel: &label,
				CreatedAt:   now,
			})
		}
	}
	return movements
}

func linkedOrderIDs(allocations []model.BatchAllocation) []int64 {
	seen := make(map[int64]struct{})
	ids := []int64{}
	for _, a := range allocations {
		if _, ok := seen[a.OrderID]; ok {
			continue
		}
		seen[a.OrderID] = struct{}{}
		ids = append(ids, a.OrderID)
	}
	return ids
}

func copyBatch(b *model.ProductionBatch) *model.ProductionBatch {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}
