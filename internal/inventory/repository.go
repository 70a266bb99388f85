package inventory

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-production-service/internal/model"
)

type Repository interface {
	// Ledger reads, ascending by (created_at, id). Nil filters list everything.
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, error)
	ListItems(ctx context.Context, ids []int64) ([]model.InventoryItem, error)

	AppendMovements(ctx context.Context, movements []model.InventoryMovement) error
	SourceLabelExists(ctx context.Context, source, label string) (bool, error)
}
