package usecase

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/shopspring/decimal"
)

// activeStatuses are every non-cancelled order status.
var activeStatuses = []model.OrderStatus{
	model.OrderStatusOpen,
	model.OrderStatusConfirmed,
	model.OrderStatusPreparing,
	model.OrderStatusReady,
	model.OrderStatusDelivered,
}

// producedEpsilon absorbs rounding when comparing produced and required broas.
var producedEpsilon = decimal.New(1, -4)

// planningData is a point-in-time snapshot of orders, products and their BOMs.
type planningData struct {
	orders   []model.Order
	byID     map[int64]*model.Order
	products map[int64]model.Product
	boms     map[int64]*model.BillOfMaterials
}

func (uc *productionUseCase) loadPlanningData(ctx context.Context) (*planningData, error) {
	orders, err := uc.repos.Orders.ListByStatuses(ctx, activeStatuses)
	if err != nil {
		return nil, apperror.Internal("failed to load orders", err)
	}

	seen := make(map[int64]struct{})
	var productIDs []int64
	for _, o := range orders {
		for _, it := range o.Items {
			if _, ok := seen[it.ProductID]; !ok {
				seen[it.ProductID] = struct{}{}
				productIDs = append(productIDs, it.ProductID)
			}
		}
	}

	products, err := uc.repos.Products.ListByIDs(ctx, productIDs)
	if err != nil {
		return nil, apperror.Internal("failed to load products", err)
	}
	boms, err := uc.repos.Products.ListBOMsByProductIDs(ctx, productIDs)
	if err != nil {
		return nil, apperror.Internal("failed to load boms", err)
	}

	data := &planningData{
		orders:   orders,
		byID:     make(map[int64]*model.Order, len(orders)),
		products: make(map[int64]model.Product, len(products)),
		boms:     bomIndex(boms),
	}
	for i := range data.orders {
		data.byID[data.orders[i].ID] = &data.orders[i]
	}
	for _, p := range products {
		data.products[p.ID] = p
	}
	return data, nil
}

func (d *planningData) unitsPerSaleUnit(productID int64) decimal.Decimal {
	return d.boms[productID].UnitsPerSaleUnit()
}

func (d *planningData) totalBroas(item model.OrderItem) decimal.Decimal {
	return item.Quantity.Mul(d.unitsPerSaleUnit(item.ProductID)).Round(4)
}

// producedBroas caps the historical allocation of item at its total and never goes negative.
func (d *planningData) producedBroas(item model.OrderItem, produced map[int64]decimal.Decimal) decimal.Decimal {
	p := produced[item.ID]
	if p.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(p, d.totalBroas(item))
}

func (d *planningData) fullyProduced(o *model.Order, produced map[int64]decimal.Decimal) bool {
	for _, it := range o.Items {
		missing := d.totalBroas(it).Sub(produced[it.ID])
		if missing.GreaterThan(producedEpsilon) {
			return false
		}
	}
	return true
}

func (d *planningData) setStatus(orderID int64, status model.OrderStatus) {
	if o, ok := d.byID[orderID]; ok {
		o.Status = status
	}
}
