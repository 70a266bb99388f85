package model

import (
	"regexp"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        int64           `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// BillOfMaterials maps a product to the ingredients one sale unit consumes.
type BillOfMaterials struct {
	ID            int64               `db:"id" json:"id"`
	ProductID     int64               `db:"product_id" json:"product_id"`
	SaleUnitLabel *string             `db:"sale_unit_label" json:"sale_unit_label"`
	YieldUnits    decimal.NullDecimal `db:"yield_units" json:"yield_units"`
	Items         []BomItem           `db:"-" json:"items"`
}

// BomItem carries three alternative quantity specifications; see production usecase ResolveQty.
type BomItem struct {
	ID             int64               `db:"id" json:"id"`
	BomID          int64               `db:"bom_id" json:"bom_id"`
	IngredientID   int64               `db:"ingredient_id" json:"ingredient_id"`
	QtyPerSaleUnit decimal.NullDecimal `db:"qty_per_sale_unit" json:"qty_per_sale_unit"`
	QtyPerUnit     decimal.NullDecimal `db:"qty_per_unit" json:"qty_per_unit"`
	QtyPerRecipe   decimal.NullDecimal `db:"qty_per_recipe" json:"qty_per_recipe"`
}

var firstInteger = regexp.MustCompile(`\d+`)

// UnitsPerSaleUnit is the number of broas one sale unit holds, taken from the first
// integer in SaleUnitLabel. Missing, unparseable or non-positive labels count as 1.
func (b *BillOfMaterials) UnitsPerSaleUnit() decimal.Decimal {
	if b == nil || b.SaleUnitLabel == nil {
		return decimal.NewFromInt(1)
	}
	m := firstInteger.FindString(*b.SaleUnitLabel)
	if m == "" {
		return decimal.NewFromInt(1)
	}
	n, err := decimal.NewFromString(m)
	if err != nil || !n.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return n
}
