package usecase

import (
	"testing"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestResolveQty(t *testing.T) {
	box := &model.BillOfMaterials{SaleUnitLabel: strPtr("Caixa com 6 broas"), YieldUnits: nullDec("30")}
	noYield := &model.BillOfMaterials{SaleUnitLabel: strPtr("Caixa com 6 broas"), YieldUnits: nullDec("0")}

	tests := []struct {
		name       string
		item       model.BomItem
		bom        *model.BillOfMaterials
		wantMethod QtyMethod
		want       string
	}{
		{
			name:       "direct wins over every other field",
			item:       model.BomItem{QtyPerSaleUnit: nullDec("0.5"), QtyPerUnit: nullDec("9"), QtyPerRecipe: nullDec("9")},
			bom:        box,
			wantMethod: QtyDirect,
			want:       "0.5",
		},
		{
			name:       "direct zero still counts",
			item:       model.BomItem{QtyPerSaleUnit: nullDec("0"), QtyPerUnit: nullDec("9")},
			bom:        box,
			wantMethod: QtyDirect,
			want:       "0",
		},
		{
			name:       "per unit scales by units per sale unit",
			item:       model.BomItem{QtyPerUnit: nullDec("0.02"), QtyPerRecipe: nullDec("9")},
			bom:        box,
			wantMethod: QtyPerUnit,
			want:       "0.12",
		},
		{
			name:       "per recipe divides by yield",
			item:       model.BomItem{QtyPerRecipe: nullDec("3")},
			bom:        box,
			wantMethod: QtyPerRecipe,
			want:       "0.1",
		},
		{
			name:       "per recipe needs a positive yield",
			item:       model.BomItem{QtyPerRecipe: nullDec("3")},
			bom:        noYield,
			wantMethod: QtyUnresolved,
		},
		{
			name:       "nothing set",
			item:       model.BomItem{},
			bom:        box,
			wantMethod: QtyUnresolved,
		},
		{
			name:       "per unit without bom counts one unit",
			item:       model.BomItem{QtyPerUnit: nullDec("0.25")},
			bom:        nil,
			wantMethod: QtyPerUnit,
			want:       "0.25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveQty(tt.item, tt.bom)

			assert.Equal(t, tt.wantMethod, got.Method)
			assert.Equal(t, tt.wantMethod != QtyUnresolved, got.Resolved())
			if tt.want != "" {
				assert.True(t, dec(tt.want).Equal(got.PerSaleUnit), "got %s", got.PerSaleUnit)
			}
		})
	}
}

func TestBomIndex_LowestIDWins(t *testing.T) {
	idx := bomIndex([]model.BillOfMaterials{
		{ID: 9, ProductID: 1},
		{ID: 3, ProductID: 1},
		{ID: 5, ProductID: 2},
	})

	assert.Equal(t, int64(3), idx[1].ID)
	assert.Equal(t, int64(5), idx[2].ID)
	assert.Nil(t, idx[7])
}
