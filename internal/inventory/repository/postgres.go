package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-production-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB sqlx.ExtContext
}

func NewPGRepository(db sqlx.ExtContext) *PGRepository {
	return &PGRepository{DB: db}
}

const movementColumns = `id, item_id, order_id, type, quantity, reason, source, source_label, created_at`

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f != nil {
		if f.Type != "" {
			conditions = append(conditions, "type = :type")
			args["type"] = string(f.Type)
		}
		if f.Reason != "" {
			conditions = append(conditions, "reason = :reason")
			args["reason"] = f.Reason
		}
		if f.Unsourced {
			conditions = append(conditions, "source IS NULL")
		}
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query, bindArgs, err := sqlx.Named("SELECT "+movementColumns+" FROM inventory_movements"+whereClause, args)
	if err != nil {
		return nil, err
	}

	if f != nil && len(f.ItemIDs) > 0 {
		joiner := " WHERE "
		if whereClause != "" {
			joiner = " AND "
		}
		query, bindArgs, err = sqlx.In(query+joiner+"item_id IN (?)", append(bindArgs, f.ItemIDs)...)
		if err != nil {
			return nil, err
		}
	}

	query = r.DB.Rebind(query + " ORDER BY created_at ASC, id ASC")

	var movements []model.InventoryMovement
	if err := sqlx.SelectContext(ctx, r.DB, &movements, query, bindArgs...); err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	return movements, nil
}

func (r *PGRepository) ListItems(ctx context.Context, ids []int64) ([]model.InventoryItem, error) {
	if len(ids) == 0 {
		return []model.InventoryItem{}, nil
	}

	query, args, err := sqlx.In(`SELECT id, name, unit FROM inventory_items WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}

	var items []model.InventoryItem
	if err := sqlx.SelectContext(ctx, r.DB, &items, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list inventory items: %w", err)
	}
	return items, nil
}

func (r *PGRepository) AppendMovements(ctx context.Context, movements []model.InventoryMovement) error {
	query := `
        INSERT INTO inventory_movements (
            item_id, order_id, type, quantity, reason, source, source_label, created_at
        )
        VALUES (
            :item_id, :order_id, :type, :quantity, :reason, :source, :source_label, :created_at
        )
    `
	for i := range movements {
		if _, err := sqlx.NamedExecContext(ctx, r.DB, query, &movements[i]); err != nil {
			return fmt.Errorf("failed to append movement for item %d: %w", movements[i].ItemID, err)
		}
	}
	return nil
}

func (r *PGRepository) SourceLabelExists(ctx context.Context, source, label string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM inventory_movements WHERE source = $1 AND source_label = $2)`
	if err := sqlx.GetContext(ctx, r.DB, &exists, query, source, label); err != nil {
		return false, fmt.Errorf("failed to check source label: %w", err)
	}
	return exists, nil
}
