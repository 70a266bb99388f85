package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-production-service/internal/kvstore/kvstoretest"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/fekuna/omnipos-production-service/internal/production/repository"
	"github.com/shopspring/decimal"
)

var brt = time.FixedZone("BRT", -3*60*60)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nullDec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func strPtr(s string) *string { return &s }

type fakeOrders struct {
	mu        sync.Mutex
	orders    []model.Order
	updateErr error
}

func (f *fakeOrders) ListByStatuses(_ context.Context, statuses []model.OrderStatus) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []model.Order{}
	for _, o := range f.orders {
		for _, s := range statuses {
			if o.Status == s {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id int64, status model.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("order %d not found", id)
}

func (f *fakeOrders) status(id int64) model.OrderStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			return o.Status
		}
	}
	return ""
}

type fakeProducts struct {
	products []model.Product
	boms     []model.BillOfMaterials
}

func (f *fakeProducts) ListByIDs(_ context.Context, ids []int64) ([]model.Product, error) {
	out := []model.Product{}
	for _, p := range f.products {
		for _, id := range ids {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakeProducts) ListBOMsByProductIDs(_ context.Context, ids []int64) ([]model.BillOfMaterials, error) {
	out := []model.BillOfMaterials{}
	for _, b := range f.boms {
		for _, id := range ids {
			if b.ProductID == id {
				out = append(out, b)
			}
		}
	}
	return out, nil
}

type fakeLedger struct {
	mu          sync.Mutex
	items       []model.InventoryItem
	movements   []model.InventoryMovement
	appendErr   error
	lastFilters *dto.MovementFilters
}

func (f *fakeLedger) ListMovements(_ context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilters = filters
	if filters == nil || len(filters.ItemIDs) == 0 {
		return append([]model.InventoryMovement{}, f.movements...), nil
	}
	out := []model.InventoryMovement{}
	for _, m := range f.movements {
		for _, id := range filters.ItemIDs {
			if m.ItemID == id {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (f *fakeLedger) ListItems(_ context.Context, ids []int64) ([]model.InventoryItem, error) {
	out := []model.InventoryItem{}
	for _, it := range f.items {
		for _, id := range ids {
			if it.ID == id {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

func (f *fakeLedger) AppendMovements(_ context.Context, movements []model.InventoryMovement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	for _, m := range movements {
		m.ID = int64(len(f.movements) + 1)
		f.movements = append(f.movements, m)
	}
	return nil
}

func (f *fakeLedger) SourceLabelExists(context.Context, string, string) (bool, error) {
	return false, nil
}

func (f *fakeLedger) sourced(source string) []model.InventoryMovement {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.InventoryMovement
	for _, m := range f.movements {
		if m.Source != nil && *m.Source == source {
			out = append(out, m)
		}
	}
	return out
}

type fakeDelivery struct {
	mu          sync.Mutex
	dispatched  []int64
	dispatchErr error
	failOrders  map[int64]bool
	delivered   map[int64]bool
	trackingErr error
}

func (f *fakeDelivery) Dispatch(_ context.Context, orderID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dispatchErr != nil {
		return f.dispatchErr
	}
	if f.failOrders[orderID] {
		return errUpstream
	}
	f.dispatched = append(f.dispatched, orderID)
	return nil
}

func (f *fakeDelivery) TrackingStatus(_ context.Context, orderID int64) (*production.TrackingStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.trackingErr != nil {
		return nil, f.trackingErr
	}
	if f.delivered[orderID] {
		return &production.TrackingStatus{Exists: true, Delivered: true, Status: "DELIVERED"}, nil
	}
	return &production.TrackingStatus{Exists: true, Status: "IN_TRANSIT"}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (f *fakePublisher) PublishBatchEvent(_ context.Context, eventType string, _ *model.ProductionBatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
	return nil
}

type fakeLocker struct {
	err error
}

func (f *fakeLocker) Lock(context.Context) (func(context.Context) error, error) {
	if f.err != nil {
		return nil, f.err
	}
	return func(context.Context) error { return nil }, nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	uc        *productionUseCase
	orders    *fakeOrders
	products  *fakeProducts
	ledger    *fakeLedger
	delivery  *fakeDelivery
	publisher *fakePublisher
	state     production.StateRepository
	clock     *clock
}

// bakery returns a catalog where product 1 is a box of 12 broas and product 2 a single broa.
func bakery() *fakeProducts {
	return &fakeProducts{
		products: []model.Product{
			{ID: 1, Name: "Caixa de broas", UnitPrice: dec("42")},
			{ID: 2, Name: "Broa avulsa", UnitPrice: dec("4")},
			{ID: 3, Name: "Bolo de fubá", UnitPrice: dec("30")},
		},
		boms: []model.BillOfMaterials{
			{
				ID: 10, ProductID: 1, SaleUnitLabel: strPtr("caixa c/ 12"), YieldUnits: nullDec("48"),
				Items: []model.BomItem{
					{ID: 100, BomID: 10, IngredientID: 500, QtyPerSaleUnit: nullDec("0.6")},
					{ID: 101, BomID: 10, IngredientID: 501, QtyPerUnit: nullDec("0.01")},
					{ID: 102, BomID: 10, IngredientID: 502, QtyPerRecipe: nullDec("4.8")},
				},
			},
			{
				ID: 20, ProductID: 2, SaleUnitLabel: strPtr("unidade"),
				Items: []model.BomItem{
					{ID: 200, BomID: 20, IngredientID: 500, QtyPerSaleUnit: nullDec("0.05")},
				},
			},
			{ID: 99, ProductID: 2, Items: []model.BomItem{{ID: 990, BomID: 99, IngredientID: 599, QtyPerSaleUnit: nullDec("1000")}}},
		},
	}
}

func newHarness(t *testing.T, orders []model.Order, opts ...func(*Config)) *harness {
	t.Helper()

	cfg := Config{
		OvenCapacityBroas: 60,
		BakeTimerMinutes:  40,
		RecentBatchLimit:  8,
		DispatchPolicy:    DispatchPolicyUnit,
		Location:          brt,
		DeliveryTimeout:   time.Second,
	}
	for _, o := range opts {
		o(&cfg)
	}

	h := &harness{
		orders:   &fakeOrders{orders: orders},
		products: bakery(),
		ledger: &fakeLedger{items: []model.InventoryItem{
			{ID: 500, Name: "Fubá", Unit: "kg"},
			{ID: 501, Name: "Açúcar", Unit: "kg"},
			{ID: 502, Name: "Banha", Unit: "kg"},
		}},
		delivery:  &fakeDelivery{delivered: map[int64]bool{}},
		publisher: &fakePublisher{},
		state:     repository.NewKVStateRepository(kvstoretest.NewMemoryStore()),
		clock:     &clock{t: time.Date(2024, 5, 10, 7, 0, 0, 0, brt)},
	}

	repos := Repositories{Orders: h.orders, Products: h.products, Ledger: h.ledger, State: h.state}
	scope := repository.NewNoOpTransactionScope(production.TransactionalRepositories{
		Movements: h.ledger,
		Orders:    h.orders,
		State:     h.state,
	})

	ids := 0
	h.uc = NewProductionUseCase(cfg, repos, scope, h.delivery, logger.NewNop(),
		WithPublisher(h.publisher),
		WithClock(h.clock.now),
		WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("batch-%d", ids)
		}),
	).(*productionUseCase)
	return h
}

func (h *harness) loadState(t *testing.T) *model.RuntimeState {
	t.Helper()
	state, _, err := h.state.Load(context.Background())
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	return state
}

var errUpstream = errors.New("courier offline")
