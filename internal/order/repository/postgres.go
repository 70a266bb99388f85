package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB sqlx.ExtContext
}

// NewPGRepository accepts a *sqlx.DB or a *sqlx.Tx.
func NewPGRepository(db sqlx.ExtContext) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ListByStatuses(ctx context.Context, statuses []model.OrderStatus) ([]model.Order, error) {
	if len(statuses) == 0 {
		return []model.Order{}, nil
	}

	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}

	query, args, err := sqlx.In(`
        SELECT id, customer_name, status, scheduled_at, created_at, updated_at
        FROM orders
        WHERE status IN (?)
        ORDER BY id
    `, raw)
	if err != nil {
		return nil, err
	}

	var orders []model.Order
	if err := sqlx.SelectContext(ctx, r.DB, &orders, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if len(orders) == 0 {
		return []model.Order{}, nil
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *PGRepository) attachItems(ctx context.Context, orders []model.Order) error {
	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	query, args, err := sqlx.In(`
        SELECT id, order_id, product_id, quantity
        FROM order_items
        WHERE order_id IN (?)
        ORDER BY order_id, id
    `, ids)
	if err != nil {
		return err
	}

	var items []model.OrderItem
	if err := sqlx.SelectContext(ctx, r.DB, &items, r.DB.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to list order items: %w", err)
	}

	byOrder := make(map[int64][]model.OrderItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid order status %q", status)
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update order %d status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %d not found", id)
	}
	return nil
}
