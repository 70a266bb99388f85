package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/inventory"
	"github.com/fekuna/omnipos-production-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/order"
	"go.uber.org/zap"
)

// inFlightStatuses are the order statuses whose legacy consumption gets compensated.
var inFlightStatuses = []model.OrderStatus{
	model.OrderStatusOpen,
	model.OrderStatusConfirmed,
	model.OrderStatusPreparing,
	model.OrderStatusReady,
}

type inventoryUseCase struct {
	repo      inventory.Repository
	orderRepo order.Repository
	logger    logger.ZapLogger
	now       func() time.Time
}

func NewInventoryUseCase(repo inventory.Repository, orderRepo order.Repository, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:      repo,
		orderRepo: orderRepo,
		logger:    log,
		now:       time.Now,
	}
}

func LegacySourceLabel(movementID int64) string {
	return fmt.Sprintf("legacy-order-movement-%d", movementID)
}

func (uc *inventoryUseCase) RebalanceLegacyOrderConsumption(ctx context.Context) (int, error) {
	legacy, err := uc.repo.ListMovements(ctx, &dto.MovementFilters{
		Type:      model.MovementOut,
		Reason:    inventory.LegacyOrderConsumptionReason,
		Unsourced: true,
	})
	if err != nil {
		return 0, err
	}
	if len(legacy) == 0 {
		return 0, nil
	}

	orders, err := uc.orderRepo.ListByStatuses(ctx, inFlightStatuses)
	if err != nil {
		return 0, err
	}
	inFlight := make(map[int64]struct{}, len(orders))
	for _, o := range orders {
		inFlight[o.ID] = struct{}{}
	}

	source := model.SourceFlowRealign
	compensated := 0
	for _, m := range legacy {
		if m.OrderID == nil {
			continue
		}
		if _, ok := inFlight[*m.OrderID]; !ok {
			continue
		}

		label := LegacySourceLabel(m.ID)
		exists, err := uc.repo.SourceLabelExists(ctx, source, label)
		if err != nil {
			return compensated, err
		}
		if exists {
			continue
		}

		orderID := *m.OrderID
		compensation := model.InventoryMovement{
			ItemID:      m.ItemID,
			OrderID:     &orderID,
			Type:        model.MovementIn,
			Quantity:    m.Quantity,
			Reason:      inventory.CompensationReason,
			Source:      &source,
			SourceLabel: &label,
			CreatedAt:   uc.now(),
		}
		if err := uc.repo.AppendMovements(ctx, []model.InventoryMovement{compensation}); err != nil {
			return compensated, err
		}
		compensated++

		uc.logger.Info("compensated legacy order consumption",
			zap.Int64("movement_id", m.ID),
			zap.Int64("order_id", orderID),
			zap.Int64("item_id", m.ItemID),
			zap.String("quantity", m.Quantity.String()),
		)
	}

	return compensated, nil
}
