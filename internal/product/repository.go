package product

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/model"
)

type Repository interface {
	ListByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	// ListBOMsByProductIDs returns every BOM of the given products, lowest id first, with items.
	ListBOMsByProductIDs(ctx context.Context, productIDs []int64) ([]model.BillOfMaterials, error)
}
