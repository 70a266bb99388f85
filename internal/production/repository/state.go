package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-production-service/internal/kvstore"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production"
)

const (
	StateScope = "production"
	StateKey   = "runtime_state"
)

// KVStateRepository keeps the runtime state as one JSON blob in a kvstore.Store.
type KVStateRepository struct {
	store kvstore.Store
}

func NewKVStateRepository(store kvstore.Store) *KVStateRepository {
	return &KVStateRepository{store: store}
}

var _ production.StateRepository = (*KVStateRepository)(nil)

func (r *KVStateRepository) Load(ctx context.Context) (*model.RuntimeState, int64, error) {
	entry, err := r.store.Get(ctx, StateScope, StateKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return &model.RuntimeState{Version: model.RuntimeStateVersion, Batches: []model.ProductionBatch{}}, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	var state model.RuntimeState
	if err := json.Unmarshal(entry.Blob, &state); err != nil {
		return nil, 0, fmt.Errorf("failed to decode runtime state: %w", err)
	}
	if state.Batches == nil {
		state.Batches = []model.ProductionBatch{}
	}
	return &state, entry.Version, nil
}

func (r *KVStateRepository) Save(ctx context.Context, state *model.RuntimeState, expectedVersion int64) (int64, error) {
	state.Version = model.RuntimeStateVersion
	blob, err := json.Marshal(state)
	if err != nil {
		return 0, fmt.Errorf("failed to encode runtime state: %w", err)
	}
	return r.store.Put(ctx, StateScope, StateKey, blob, expectedVersion)
}
