package usecase

import (
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/shopspring/decimal"
)

type QtyMethod string

const (
	QtyDirect     QtyMethod = "direct"
	QtyPerUnit    QtyMethod = "perUnit"
	QtyPerRecipe  QtyMethod = "perRecipe"
	QtyUnresolved QtyMethod = "unresolved"
)

// QtyResolution is the ingredient quantity one sale unit consumes, tagged with the rule that produced it.
type QtyResolution struct {
	Method      QtyMethod
	PerSaleUnit decimal.Decimal
}

func (r QtyResolution) Resolved() bool {
	return r.Method != QtyUnresolved
}

// ResolveQty applies the fixed precedence qtyPerSaleUnit, then qtyPerUnit scaled by the
// units in a sale unit, then qtyPerRecipe divided by the recipe yield.
func ResolveQty(item model.BomItem, bom *model.BillOfMaterials) QtyResolution {
	units := bom.UnitsPerSaleUnit()

	switch {
	case item.QtyPerSaleUnit.Valid:
		return QtyResolution{Method: QtyDirect, PerSaleUnit: item.QtyPerSaleUnit.Decimal.Round(4)}
	case item.QtyPerUnit.Valid:
		return QtyResolution{Method: QtyPerUnit, PerSaleUnit: item.QtyPerUnit.Decimal.Mul(units).Round(4)}
	case item.QtyPerRecipe.Valid && bom != nil && bom.YieldUnits.Valid && bom.YieldUnits.Decimal.IsPositive():
		return QtyResolution{Method: QtyPerRecipe, PerSaleUnit: item.QtyPerRecipe.Decimal.Div(bom.YieldUnits.Decimal).Round(4)}
	}
	return QtyResolution{Method: QtyUnresolved}
}

// bomIndex keeps the lowest-id BOM per product.
func bomIndex(boms []model.BillOfMaterials) map[int64]*model.BillOfMaterials {
	out := make(map[int64]*model.BillOfMaterials, len(boms))
	for i := range boms {
		b := &boms[i]
		if cur, ok := out[b.ProductID]; !ok || b.ID < cur.ID {
			out[b.ProductID] = b
		}
	}
	return out
}
