package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/kvstore"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyState struct {
	production.StateRepository
	conflicts int
}

func (f *flakyState) Save(ctx context.Context, state *model.RuntimeState, expectedVersion int64) (int64, error) {
	if f.conflicts > 0 {
		f.conflicts--
		return 0, kvstore.ErrVersionConflict
	}
	return f.StateRepository.Save(ctx, state, expectedVersion)
}

func startFirstBatch(t *testing.T, h *harness) {
	t.Helper()
	h.orders.orders = schedulerOrders(h.clock.now())
	_, err := h.uc.StartNextBatch(context.Background(), nil)
	require.NoError(t, err)
}

func TestReconcile_Lifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	startFirstBatch(t, h)

	h.clock.advance(39 * time.Minute)
	snap, err := h.uc.Queue(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.ActiveBatch)
	assert.Equal(t, model.BatchStatusBaking, snap.ActiveBatch.Status)

	// timer elapsed but the courier is down: the batch is READY and waits.
	h.delivery.dispatchErr = errUpstream
	h.clock.advance(2 * time.Minute)
	snap, err = h.uc.Queue(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.ActiveBatch)
	require.Len(t, snap.RecentBatches, 1)
	assert.Equal(t, model.BatchStatusReady, snap.RecentBatches[0].Status)
	assert.Equal(t, model.OrderStatusReady, h.orders.status(1))
	assert.Empty(t, h.delivery.dispatched)

	h.delivery.dispatchErr = nil
	require.NoError(t, h.uc.Reconcile(ctx))
	state := h.loadState(t)
	assert.Equal(t, model.BatchStatusDispatched, state.Batches[0].Status)
	require.NotNil(t, state.Batches[0].DispatchedAt)
	assert.Equal(t, []int64{1}, h.delivery.dispatched)

	// tracking unavailable keeps the batch dispatched
	h.delivery.trackingErr = errUpstream
	require.NoError(t, h.uc.Reconcile(ctx))
	assert.Equal(t, model.BatchStatusDispatched, h.loadState(t).Batches[0].Status)

	h.delivery.trackingErr = nil
	h.delivery.delivered[1] = true
	require.NoError(t, h.uc.Reconcile(ctx))
	state = h.loadState(t)
	assert.Equal(t, model.BatchStatusDelivered, state.Batches[0].Status)
	require.NotNil(t, state.Batches[0].DeliveredAt)

	assert.Equal(t, []string{
		production.EventBatchStarted,
		production.EventBatchReady,
		production.EventBatchDispatched,
		production.EventBatchDelivered,
	}, h.publisher.events)

	// delivered orders stay visible in the queue
	snap, err = h.uc.Queue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Rows[0].OrderID)
	assert.True(t, snap.Rows[0].RemainingBroas.IsZero())
}

func TestReconcile_UpstreamFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.orders.orders = schedulerOrders(h.clock.now())

	now := h.clock.now()
	readyAt := now.Add(-time.Minute)
	seed := &model.RuntimeState{
		Version:   model.RuntimeStateVersion,
		UpdatedAt: now,
		Batches: []model.ProductionBatch{
			{
				ID: "batch-new", Status: model.BatchStatusReady, StartedAt: now.Add(-time.Hour), ReadyAt: readyAt,
				LinkedOrderIDs: []int64{4, 2},
				Allocations: []model.BatchAllocation{
					{OrderID: 4, OrderItemID: 41, ProductID: 1, BroasPlanned: dec("12"), SaleUnitsApprox: dec("1")},
					{OrderID: 2, OrderItemID: 21, ProductID: 2, BroasPlanned: dec("30"), SaleUnitsApprox: dec("30")},
				},
			},
			{
				ID: "batch-old", Status: model.BatchStatusReady, StartedAt: now.Add(-2 * time.Hour), ReadyAt: readyAt,
				LinkedOrderIDs: []int64{1},
				Allocations: []model.BatchAllocation{
					{OrderID: 1, OrderItemID: 11, ProductID: 1, BroasPlanned: dec("60"), SaleUnitsApprox: dec("5")},
				},
			},
		},
	}
	_, err := h.state.Save(ctx, seed, 0)
	require.NoError(t, err)

	h.delivery.failOrders = map[int64]bool{4: true}
	require.NoError(t, h.uc.Reconcile(ctx))

	state := h.loadState(t)
	assert.Equal(t, model.BatchStatusReady, state.FindBatch("batch-new").Status)
	assert.Equal(t, model.BatchStatusDispatched, state.FindBatch("batch-old").Status)
	assert.ElementsMatch(t, []int64{2, 1}, h.delivery.dispatched)
	assert.Equal(t, model.OrderStatusReady, h.orders.status(4))
	assert.Equal(t, model.OrderStatusReady, h.orders.status(2))
	assert.Equal(t, model.OrderStatusReady, h.orders.status(1))

	// the failed order is retried on the next pass and the batch catches up
	h.delivery.failOrders = nil
	require.NoError(t, h.uc.Reconcile(ctx))
	assert.Equal(t, model.BatchStatusDispatched, h.loadState(t).FindBatch("batch-new").Status)
	assert.Contains(t, h.delivery.dispatched, int64(4))
}

func TestReconcile_DispatchPolicy(t *testing.T) {
	ctx := context.Background()
	smallOven := func(c *Config) { c.OvenCapacityBroas = 40 }

	t.Run("unit ships a partially produced batch", func(t *testing.T) {
		h := newHarness(t, nil, smallOven)
		startFirstBatch(t, h)
		h.clock.advance(time.Hour)

		require.NoError(t, h.uc.Reconcile(ctx))

		assert.Equal(t, model.BatchStatusDispatched, h.loadState(t).Batches[0].Status)
		assert.Empty(t, h.delivery.dispatched)
		assert.Equal(t, model.OrderStatusPreparing, h.orders.status(1))
	})

	t.Run("complete holds the batch until its orders are fully produced", func(t *testing.T) {
		h := newHarness(t, nil, smallOven, func(c *Config) { c.DispatchPolicy = DispatchPolicyComplete })
		startFirstBatch(t, h)
		h.clock.advance(time.Hour)

		require.NoError(t, h.uc.Reconcile(ctx))
		assert.Equal(t, model.BatchStatusReady, h.loadState(t).Batches[0].Status)

		// the second batch finishes orders 1 and 4 but only part of order 2
		_, err := h.uc.StartNextBatch(ctx, nil)
		require.NoError(t, err)
		h.clock.advance(time.Hour)
		require.NoError(t, h.uc.Reconcile(ctx))

		state := h.loadState(t)
		assert.Equal(t, []int64{1, 4, 2}, state.Batches[0].LinkedOrderIDs)
		assert.Equal(t, model.BatchStatusReady, state.Batches[0].Status)
		assert.Equal(t, model.BatchStatusDispatched, state.Batches[1].Status)
		assert.Equal(t, model.OrderStatusReady, h.orders.status(4))
		assert.Contains(t, h.delivery.dispatched, int64(4))
		assert.Contains(t, h.delivery.dispatched, int64(1))
	})
}

func TestReconcile_VersionConflict(t *testing.T) {
	ctx := context.Background()

	t.Run("retries after a concurrent write", func(t *testing.T) {
		h := newHarness(t, nil)
		startFirstBatch(t, h)
		h.uc.repos.State = &flakyState{StateRepository: h.state, conflicts: 1}
		h.clock.advance(time.Hour)

		require.NoError(t, h.uc.Reconcile(ctx))

		assert.Equal(t, model.BatchStatusDispatched, h.loadState(t).Batches[0].Status)
		assert.Equal(t, []int64{1, 1}, h.delivery.dispatched)
	})

	t.Run("gives up after repeated conflicts", func(t *testing.T) {
		h := newHarness(t, nil)
		startFirstBatch(t, h)
		h.uc.repos.State = &flakyState{StateRepository: h.state, conflicts: 10}
		h.clock.advance(time.Hour)

		err := h.uc.Reconcile(ctx)

		assert.ErrorIs(t, err, apperror.Conflict(production.CodeStatePersistConflict, ""))
		assert.Equal(t, model.BatchStatusBaking, h.loadState(t).Batches[0].Status)
	})
}

func TestAdvance(t *testing.T) {
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		from model.BatchStatus
		to   model.BatchStatus
		want bool
	}{
		{name: "baking to ready", from: model.BatchStatusBaking, to: model.BatchStatusReady, want: true},
		{name: "ready to dispatched", from: model.BatchStatusReady, to: model.BatchStatusDispatched, want: true},
		{name: "dispatched to delivered", from: model.BatchStatusDispatched, to: model.BatchStatusDelivered, want: true},
		{name: "no skipping ahead", from: model.BatchStatusBaking, to: model.BatchStatusDispatched},
		{name: "no going back", from: model.BatchStatusDelivered, to: model.BatchStatusReady},
		{name: "no staying put", from: model.BatchStatusReady, to: model.BatchStatusReady},
		{name: "unknown status", from: model.BatchStatus("LOST"), to: model.BatchStatusBaking},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &model.ProductionBatch{Status: tt.from}

			assert.Equal(t, tt.want, advance(b, tt.to, now))
			if tt.want {
				assert.Equal(t, tt.to, b.Status)
				assert.True(t, b.UpdatedAt.Equal(now))
			} else {
				assert.Equal(t, tt.from, b.Status)
				assert.True(t, b.UpdatedAt.IsZero())
			}
		})
	}
}
