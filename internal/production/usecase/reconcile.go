package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/kvstore"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxStateWriteAttempts = 3

// runtimeView is the reconciled state together with the data it was reconciled against.
type runtimeView struct {
	state   *model.RuntimeState
	version int64
	data    *planningData
	now     time.Time
}

func (uc *productionUseCase) Reconcile(ctx context.Context) error {
	return uc.withLock(ctx, func() error {
		_, err := uc.loadAndReconcile(ctx)
		return err
	})
}

// loadAndReconcile loads the runtime state, runs one lifecycle pass and persists it when
// something changed. A concurrent write makes it reload and try again.
func (uc *productionUseCase) loadAndReconcile(ctx context.Context) (*runtimeView, error) {
	for attempt := 1; attempt <= maxStateWriteAttempts; attempt++ {
		view, err := uc.loadView(ctx)
		if err != nil {
			return nil, err
		}

		err = uc.reconcileAndPersist(ctx, view)
		if errors.Is(err, kvstore.ErrVersionConflict) {
			uc.logger.Warn("runtime state changed during reconciliation, retrying", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}
		return view, nil
	}
	return nil, apperror.Conflict(production.CodeStatePersistConflict, "runtime state kept changing, try again")
}

// reconcileAndPersist returns kvstore.ErrVersionConflict unwrapped so callers can reload.
func (uc *productionUseCase) reconcileAndPersist(ctx context.Context, view *runtimeView) error {
	events := uc.reconcilePass(ctx, view)
	if len(events) == 0 {
		return nil
	}

	view.state.UpdatedAt = view.now
	version, err := uc.repos.State.Save(ctx, view.state, view.version)
	if errors.Is(err, kvstore.ErrVersionConflict) {
		return err
	}
	if err != nil {
		return apperror.Internal("failed to persist runtime state", err)
	}
	view.version = version

	uc.emit(ctx, events)
	return nil
}

func (uc *productionUseCase) loadView(ctx context.Context) (*runtimeView, error) {
	state, version, err := uc.repos.State.Load(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to load runtime state", err)
	}
	data, err := uc.loadPlanningData(ctx)
	if err != nil {
		return nil, err
	}
	return &runtimeView{state: state, version: version, data: data, now: uc.now()}, nil
}

// reconcilePass advances every batch as far as time, production and delivery allow and
// returns one event per transition. An empty result means nothing changed.
func (uc *productionUseCase) reconcilePass(ctx context.Context, view *runtimeView) []batchEvent {
	var events []batchEvent
	produced := view.state.ProducedByItem()
	now := view.now

	for i := range view.state.Batches {
		b := &view.state.Batches[i]

		if !now.Before(b.ReadyAt) && advance(b, model.BatchStatusReady, now) {
			events = append(events, batchEvent{eventType: production.EventBatchReady, batch: *b})
			uc.logger.Info("batch ready", zap.String("batch_id", b.ID))
		}

		if b.Status == model.BatchStatusReady && uc.dispatchBatch(ctx, b, view.data, produced) &&
			advance(b, model.BatchStatusDispatched, now) {
			b.DispatchedAt = timePtr(now)
			events = append(events, batchEvent{eventType: production.EventBatchDispatched, batch: *b})
			uc.logger.Info("batch dispatched", zap.String("batch_id", b.ID))
		}

		if b.Status == model.BatchStatusDispatched && uc.batchDelivered(ctx, b) &&
			advance(b, model.BatchStatusDelivered, now) {
			b.DeliveredAt = timePtr(now)
			events = append(events, batchEvent{eventType: production.EventBatchDelivered, batch: *b})
			uc.logger.Info("batch delivered", zap.String("batch_id", b.ID))
		}
	}
	return events
}

// dispatchBatch marks fully produced linked orders PRONTO and hands them to delivery.
// It reports whether the batch may move to DISPATCHED.
func (uc *productionUseCase) dispatchBatch(ctx context.Context, b *model.ProductionBatch, data *planningData, produced map[int64]decimal.Decimal) bool {
	ok := true
	for _, orderID := range b.LinkedOrderIDs {
		o := data.byID[orderID]
		if o == nil {
			continue
		}
		if !data.fullyProduced(o, produced) {
			if uc.cfg.DispatchPolicy == DispatchPolicyComplete {
				ok = false
			}
			continue
		}
		if o.Status == model.OrderStatusDelivered {
			continue
		}

		if o.Status != model.OrderStatusReady {
			if err := uc.repos.Orders.UpdateStatus(ctx, o.ID, model.OrderStatusReady); err != nil {
				uc.logger.Error("failed to mark order ready",
					zap.String("batch_id", b.ID),
					zap.Int64("order_id", o.ID),
					zap.Error(err),
				)
				ok = false
				continue
			}
			data.setStatus(o.ID, model.OrderStatusReady)
		}

		callCtx, cancel := context.WithTimeout(ctx, uc.cfg.DeliveryTimeout)
		err := uc.delivery.Dispatch(callCtx, o.ID)
		cancel()
		if err != nil {
			uc.logger.Warn("delivery dispatch failed, batch stays ready",
				zap.String("batch_id", b.ID),
				zap.Int64("order_id", o.ID),
				zap.Error(apperror.Upstream(production.CodeDeliveryUnavailable, "dispatch failed", err)),
			)
			ok = false
		}
	}
	return ok
}

// batchDelivered reports whether every linked order has been delivered.
func (uc *productionUseCase) batchDelivered(ctx context.Context, b *model.ProductionBatch) bool {
	if len(b.LinkedOrderIDs) == 0 {
		return false
	}
	for _, orderID := range b.LinkedOrderIDs {
		callCtx, cancel := context.WithTimeout(ctx, uc.cfg.DeliveryTimeout)
		status, err := uc.delivery.TrackingStatus(callCtx, orderID)
		cancel()
		if err != nil {
			uc.logger.Warn("delivery tracking failed",
				zap.String("batch_id", b.ID),
				zap.Int64("order_id", orderID),
				zap.Error(apperror.Upstream(production.CodeDeliveryUnavailable, "tracking failed", err)),
			)
			return false
		}
		if !status.Exists || !status.Delivered {
			return false
		}
	}
	return true
}

// advance moves b exactly one step forward along the lifecycle and refuses anything else.
func advance(b *model.ProductionBatch, to model.BatchStatus, now time.Time) bool {
	if to.Rank() != b.Status.Rank()+1 {
		return false
	}
	b.Status = to
	b.UpdatedAt = now
	return true
}

func timePtr(t time.Time) *time.Time {
	return &t
}
