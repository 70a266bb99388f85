package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeState_JSONRoundTrip(t *testing.T) {
	started := time.Date(2026, 10, 16, 9, 30, 0, 123456789, time.UTC)
	state := RuntimeState{
		Version:   RuntimeStateVersion,
		UpdatedAt: started,
		Batches: []ProductionBatch{
			{
				ID:                "b-2",
				Trigger:           BatchTrigger{Source: "manual", RequestedBy: "ana"},
				BakeTimerMinutes:  40,
				OvenCapacityBroas: 60,
				StartedAt:         started,
				ReadyAt:           started.Add(40 * time.Minute),
				Status:            BatchStatusBaking,
				LinkedOrderIDs:    []int64{11, 12},
				Allocations: []BatchAllocation{
					{OrderID: 11, OrderItemID: 101, ProductID: 1, BroasPlanned: decimal.RequireFromString("36"), SaleUnitsApprox: decimal.RequireFromString("3.0001")},
					{OrderID: 12, OrderItemID: 102, ProductID: 2, BroasPlanned: decimal.RequireFromString("23.9999"), SaleUnitsApprox: decimal.RequireFromString("0.3333")},
				},
				UpdatedAt: started,
			},
		},
	}

	first, err := json.Marshal(state)
	require.NoError(t, err)

	var reloaded RuntimeState
	require.NoError(t, json.Unmarshal(first, &reloaded))

	second, err := json.Marshal(reloaded)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.True(t, reloaded.Batches[0].Allocations[1].BroasPlanned.Equal(decimal.RequireFromString("23.9999")))
	assert.True(t, reloaded.Batches[0].PlannedBroas().Equal(decimal.RequireFromString("59.9999")))
}

func TestRuntimeState_Lookups(t *testing.T) {
	state := RuntimeState{Batches: []ProductionBatch{
		{ID: "b-3", Status: BatchStatusBaking, Allocations: []BatchAllocation{{OrderItemID: 1, BroasPlanned: decimal.NewFromInt(10)}}},
		{ID: "b-2", Status: BatchStatusDelivered, Allocations: []BatchAllocation{{OrderItemID: 1, BroasPlanned: decimal.NewFromInt(5)}, {OrderItemID: 2, BroasPlanned: decimal.NewFromInt(7)}}},
	}}

	require.NotNil(t, state.ActiveBatch())
	assert.Equal(t, "b-3", state.ActiveBatch().ID)
	assert.Nil(t, state.FindBatch("nope"))
	assert.Equal(t, BatchStatusDelivered, state.FindBatch("b-2").Status)

	produced := state.ProducedByItem()
	assert.True(t, produced[1].Equal(decimal.NewFromInt(15)))
	assert.True(t, produced[2].Equal(decimal.NewFromInt(7)))
}

func TestBatchStatus_Rank(t *testing.T) {
	assert.Less(t, BatchStatusBaking.Rank(), BatchStatusReady.Rank())
	assert.Less(t, BatchStatusReady.Rank(), BatchStatusDispatched.Rank())
	assert.Less(t, BatchStatusDispatched.Rank(), BatchStatusDelivered.Rank())
	assert.Equal(t, -1, BatchStatus("UNKNOWN").Rank())
}
