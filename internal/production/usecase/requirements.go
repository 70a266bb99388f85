package usecase

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/inventory"
	invdto "github.com/fekuna/omnipos-production-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/fekuna/omnipos-production-service/internal/production/dto"
	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const dateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// resolveDate validates raw as a calendar date; empty means tomorrow in loc.
func resolveDate(raw string, now time.Time, loc *time.Location) (string, error) {
	if raw == "" {
		return now.In(loc).AddDate(0, 0, 1).Format(dateLayout), nil
	}
	if !datePattern.MatchString(raw) {
		return "", apperror.Validation(production.CodeInvalidDate, fmt.Sprintf("date %q must use YYYY-MM-DD", raw))
	}
	if _, err := time.ParseInLocation(dateLayout, raw, loc); err != nil {
		return "", apperror.Validation(production.CodeInvalidDate, fmt.Sprintf("date %q is not a calendar date", raw))
	}
	return raw, nil
}

// targetDate is the day an order is due: its scheduled day, or the day after it was created.
func targetDate(o *model.Order, loc *time.Location) (string, string) {
	if o.ScheduledAt != nil && !o.ScheduledAt.IsZero() {
		return o.ScheduledAt.In(loc).Format(dateLayout), dto.BasisDeliveryDate
	}
	return o.CreatedAt.In(loc).AddDate(0, 0, 1).Format(dateLayout), dto.BasisCreatedAtPlus1
}

type ingredientAccumulator struct {
	required  decimal.Decimal
	breakdown []dto.RequirementBreakdown
}

func (uc *productionUseCase) Requirements(ctx context.Context, date string) (*dto.RequirementsResult, error) {
	now := uc.now()
	day, err := resolveDate(date, now, uc.cfg.Location)
	if err != nil {
		return nil, err
	}

	data, err := uc.loadPlanningData(ctx)
	if err != nil {
		return nil, err
	}

	result := &dto.RequirementsResult{
		Date:        day,
		Basis:       dto.BasisCreatedAtPlus1,
		Rows:        []dto.RequirementRow{},
		Warnings:    []dto.Warning{},
		GeneratedAt: now,
	}

	acc := make(map[int64]*ingredientAccumulator)
	var ingredientIDs []int64

	for i := range data.orders {
		o := &data.orders[i]
		target, basis := targetDate(o, uc.cfg.Location)
		if target != day {
			continue
		}
		if basis == dto.BasisDeliveryDate {
			result.Basis = dto.BasisDeliveryDate
		}

		for _, it := range o.Items {
			productName := data.products[it.ProductID].Name
			bom := data.boms[it.ProductID]
			if bom == nil || len(bom.Items) == 0 {
				result.Warnings = append(result.Warnings, dto.Warning{
					Code:        dto.WarningBOMMissing,
					OrderID:     o.ID,
					OrderItemID: it.ID,
					ProductID:   it.ProductID,
					Message:     fmt.Sprintf("product %q has no bill of materials", productName),
				})
				continue
			}

			for _, line := range bom.Items {
				res := ResolveQty(line, bom)
				if !res.Resolved() {
					ingredientID := line.IngredientID
					result.Warnings = append(result.Warnings, dto.Warning{
						Code:         dto.WarningBOMItemMissingQty,
						OrderID:      o.ID,
						OrderItemID:  it.ID,
						ProductID:    it.ProductID,
						IngredientID: &ingredientID,
						Message:      fmt.Sprintf("bom item %d of product %q has no usable quantity", line.ID, productName),
					})
					continue
				}

				a, ok := acc[line.IngredientID]
				if !ok {
					a = &ingredientAccumulator{}
					acc[line.IngredientID] = a
					ingredientIDs = append(ingredientIDs, line.IngredientID)
				}
				qty := res.PerSaleUnit.Mul(it.Quantity).Round(4)
				a.required = a.required.Add(qty).Round(4)
				a.breakdown = append(a.breakdown, dto.RequirementBreakdown{
					OrderID:     o.ID,
					OrderItemID: it.ID,
					ProductID:   it.ProductID,
					ProductName: productName,
					Quantity:    it.Quantity,
					RequiredQty: qty,
					Method:      string(res.Method),
				})
			}
		}
	}

	if len(ingredientIDs) == 0 {
		return result, nil
	}

	items, err := uc.repos.Ledger.ListItems(ctx, ingredientIDs)
	if err != nil {
		return nil, apperror.Internal("failed to load inventory items", err)
	}
	itemsByID := make(map[int64]model.InventoryItem, len(items))
	for _, it := range items {
		itemsByID[it.ID] = it
	}

	movements, err := uc.repos.Ledger.ListMovements(ctx, &invdto.MovementFilters{ItemIDs: ingredientIDs})
	if err != nil {
		return nil, apperror.Internal("failed to load inventory movements", err)
	}
	available := inventory.NetAvailable(movements)

	for _, id := range ingredientIDs {
		a := acc[id]
		item, ok := itemsByID[id]
		if !ok {
			item = model.InventoryItem{ID: id, Name: fmt.Sprintf("#%d", id)}
		}
		avail := available[id].Round(4)
		shortage := decimal.Max(decimal.Zero, a.required.Sub(avail)).Round(4)

		result.Rows = append(result.Rows, dto.RequirementRow{
			IngredientID: id,
			Name:         item.Name,
			Unit:         item.Unit,
			RequiredQty:  a.required,
			AvailableQty: avail,
			ShortageQty:  shortage,
			Breakdown:    a.breakdown,
		})
	}

	sortRequirementRows(result.Rows)
	return result, nil
}

// sortRequirementRows orders by shortage descending, then ingredient name in Portuguese collation.
func sortRequirementRows(rows []dto.RequirementRow) {
	col := collate.New(language.BrazilianPortuguese)
	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].ShortageQty.Cmp(rows[j].ShortageQty); c != 0 {
			return c > 0
		}
		if c := col.CompareString(rows[i].Name, rows[j].Name); c != 0 {
			return c < 0
		}
		return rows[i].IngredientID < rows[j].IngredientID
	})
}
