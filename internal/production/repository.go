package production

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/inventory"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/order"
)

// StateRepository loads and stores the scheduler runtime state. Save is compare-and-swap on
// the version returned by Load (0 when nothing was stored yet).
type StateRepository interface {
	Load(ctx context.Context) (*model.RuntimeState, int64, error)
	Save(ctx context.Context, state *model.RuntimeState, expectedVersion int64) (int64, error)
}

// TransactionalRepositories are bound to one transaction inside TransactionScope.Execute.
type TransactionalRepositories struct {
	Movements inventory.Repository
	Orders    order.Repository
	State     StateRepository
}

type TransactionScope interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repos TransactionalRepositories) error) error
}

type TrackingStatus struct {
	Exists    bool   `json:"exists"`
	Delivered bool   `json:"delivered"`
	Status    string `json:"status,omitempty"`
}

// DeliveryGateway is the outward delivery subsystem. Dispatch must be idempotent.
type DeliveryGateway interface {
	Dispatch(ctx context.Context, orderID int64) error
	TrackingStatus(ctx context.Context, orderID int64) (*TrackingStatus, error)
}

type EventPublisher interface {
	PublishBatchEvent(ctx context.Context, eventType string, batch *model.ProductionBatch) error
}

type BatchIndexer interface {
	IndexBatch(ctx context.Context, batch *model.ProductionBatch) error
}

// Locker guards scheduler mutations across service instances.
type Locker interface {
	Lock(ctx context.Context) (unlock func(context.Context) error, err error)
}

// Batch lifecycle event types.
const (
	EventBatchStarted    = "ProductionBatchStarted"
	EventBatchReady      = "ProductionBatchReady"
	EventBatchDispatched = "ProductionBatchDispatched"
	EventBatchDelivered  = "ProductionBatchDelivered"
)

// Error codes surfaced through apperror.
const (
	CodeInvalidDate          = "INVALID_DATE"
	CodeOvenBusy             = "OVEN_BUSY"
	CodeNothingToProduce     = "NOTHING_TO_PRODUCE"
	CodeBatchNotAssembled    = "BATCH_NOT_ASSEMBLED"
	CodeBatchNotFound        = "BATCH_NOT_FOUND"
	CodeSchedulerBusy        = "SCHEDULER_BUSY"
	CodeDeliveryUnavailable  = "DELIVERY_UNAVAILABLE"
	CodeStatePersistConflict = "STATE_VERSION_CONFLICT"
)
