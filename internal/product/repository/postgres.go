package repository

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB sqlx.ExtContext
}

func NewPGRepository(db sqlx.ExtContext) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ListByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query, args, err := sqlx.In(`SELECT id, name, unit_price FROM products WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}

	var products []model.Product
	if err := sqlx.SelectContext(ctx, r.DB, &products, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *PGRepository) ListBOMsByProductIDs(ctx context.Context, productIDs []int64) ([]model.BillOfMaterials, error) {
	if len(productIDs) == 0 {
		return []model.BillOfMaterials{}, nil
	}

	query, args, err := sqlx.In(`
        SELECT id, product_id, sale_unit_label, yield_units
        FROM boms
        WHERE product_id IN (?)
        ORDER BY id
    `, productIDs)
	if err != nil {
		return nil, err
	}

	var boms []model.BillOfMaterials
	if err := sqlx.SelectContext(ctx, r.DB, &boms, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list boms: %w", err)
	}
	if len(boms) == 0 {
		return []model.BillOfMaterials{}, nil
	}

	bomIDs := make([]int64, len(boms))
	for i, b := range boms {
		bomIDs[i] = b.ID
	}

	query, args, err = sqlx.In(`
        SELECT id, bom_id, ingredient_id, qty_per_sale_unit, qty_per_unit, qty_per_recipe
        FROM bom_items
        WHERE bom_id IN (?)
        ORDER BY bom_id, id
    `, bomIDs)
	if err != nil {
		return nil, err
	}

	var items []model.BomItem
	if err := sqlx.SelectContext(ctx, r.DB, &items, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list bom items: %w", err)
	}

	byBom := make(map[int64][]model.BomItem, len(boms))
	for _, it := range items {
		byBom[it.BomID] = append(byBom[it.BomID], it)
	}
	for i := range boms {
		boms[i].Items = byBom[boms[i].ID]
	}
	return boms, nil
}
