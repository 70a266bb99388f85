package repository

import (
	"context"
	"fmt"

	inventoryRepo "github.com/fekuna/omnipos-production-service/internal/inventory/repository"
	"github.com/fekuna/omnipos-production-service/internal/kvstore"
	orderRepo "github.com/fekuna/omnipos-production-service/internal/order/repository"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/jmoiron/sqlx"
)

// PGTransactionScope runs the callback in one postgres transaction; ledger appends, order
// status updates and the runtime state write commit or roll back together.
type PGTransactionScope struct {
	DB *sqlx.DB
}

func NewPGTransactionScope(db *sqlx.DB) *PGTransactionScope {
	return &PGTransactionScope{DB: db}
}

func (s *PGTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, repos production.TransactionalRepositories) error) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	repos := production.TransactionalRepositories{
		Movements: inventoryRepo.NewPGRepository(tx),
		Orders:    orderRepo.NewPGRepository(tx),
		State:     NewKVStateRepository(kvstore.NewPGStore(tx)),
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// NoOpTransactionScope hands out the given repositories without a transaction.
type NoOpTransactionScope struct {
	repos production.TransactionalRepositories
}

func NewNoOpTransactionScope(repos production.TransactionalRepositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, repos production.TransactionalRepositories) error) error {
	return fn(ctx, s.repos)
}

var (
	_ production.TransactionScope = (*PGTransactionScope)(nil)
	_ production.TransactionScope = (*NoOpTransactionScope)(nil)
)
