package order

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/model"
)

type Repository interface {
	// ListByStatuses returns orders with their items, ordered by id.
	ListByStatuses(ctx context.Context, statuses []model.OrderStatus) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error
}
