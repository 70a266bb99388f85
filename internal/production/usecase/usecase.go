package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/cache"
	"github.com/fekuna/omnipos-production-service/internal/inventory"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/order"
	"github.com/fekuna/omnipos-production-service/internal/product"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DispatchPolicy string

const (
	// DispatchPolicyUnit ships a READY batch as a unit once its linked orders were dispatched.
	DispatchPolicyUnit DispatchPolicy = "unit"
	// DispatchPolicyComplete keeps a batch READY until every linked order is fully produced.
	DispatchPolicyComplete DispatchPolicy = "complete"
)

type Config struct {
	OvenCapacityBroas int
	BakeTimerMinutes  int
	RecentBatchLimit  int
	DispatchPolicy    DispatchPolicy
	Location          *time.Location
	DeliveryTimeout   time.Duration
}

type Repositories struct {
	Orders   order.Repository
	Products product.Repository
	Ledger   inventory.Repository
	State    production.StateRepository
}

type Option func(*productionUseCase)

func WithPublisher(p production.EventPublisher) Option {
	return func(uc *productionUseCase) { uc.publisher = p }
}

func WithIndexer(i production.BatchIndexer) Option {
	return func(uc *productionUseCase) { uc.indexer = i }
}

func WithLocker(l production.Locker) Option {
	return func(uc *productionUseCase) { uc.locker = l }
}

func WithClock(now func() time.Time) Option {
	return func(uc *productionUseCase) { uc.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(uc *productionUseCase) { uc.newID = newID }
}

type productionUseCase struct {
	cfg       Config
	repos     Repositories
	scope     production.TransactionScope
	delivery  production.DeliveryGateway
	publisher production.EventPublisher
	indexer   production.BatchIndexer
	locker    production.Locker
	logger    logger.ZapLogger
	now       func() time.Time
	newID     func() string

	// mu serialises load, reconcile, mutate and persist of the runtime state.
	mu sync.Mutex
}

func NewProductionUseCase(
	cfg Config,
	repos Repositories,
	scope production.TransactionScope,
	delivery production.DeliveryGateway,
	log logger.ZapLogger,
	opts ...Option,
) production.UseCase {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.DispatchPolicy == "" {
		cfg.DispatchPolicy = DispatchPolicyUnit
	}
	if cfg.RecentBatchLimit <= 0 {
		cfg.RecentBatchLimit = 8
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = 5 * time.Second
	}

	uc := &productionUseCase{
		cfg:      cfg,
		repos:    repos,
		scope:    scope,
		delivery: delivery,
		logger:   log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// withLock runs fn holding the in-process mutex and, when configured, the distributed lock.
func (uc *productionUseCase) withLock(ctx context.Context, fn func() error) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.locker != nil {
		unlock, err := uc.locker.Lock(ctx)
		if err != nil {
			if errors.Is(err, cache.ErrLockNotObtained) {
				return apperror.Conflict(production.CodeSchedulerBusy, "another scheduler instance is working, try again")
			}
			return apperror.Internal("failed to obtain scheduler lock", err)
		}
		defer func() {
			if err := unlock(context.Background()); err != nil {
				uc.logger.Warn("failed to release scheduler lock", zap.Error(err))
			}
		}()
	}

	return fn()
}

type batchEvent struct {
	eventType string
	batch     model.ProductionBatch
}

// emit publishes lifecycle events and refreshes the search index. Failures are logged only.
func (uc *productionUseCase) emit(ctx context.Context, events []batchEvent) {
	for i := range events {
		ev := &events[i]
		if uc.publisher != nil {
			if err := uc.publisher.PublishBatchEvent(ctx, ev.eventType, &ev.batch); err != nil {
				uc.logger.Warn("failed to publish batch event",
					zap.String("event_type", ev.eventType),
					zap.String("batch_id", ev.batch.ID),
					zap.Error(err),
				)
			}
		}
		if uc.indexer != nil {
			if err := uc.indexer.IndexBatch(ctx, &ev.batch); err != nil {
				uc.logger.Warn("failed to index batch", zap.String("batch_id", ev.batch.ID), zap.Error(err))
			}
		}
	}
}
