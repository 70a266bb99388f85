package production

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/production/dto"
)

type UseCase interface {
	Requirements(ctx context.Context, date string) (*dto.RequirementsResult, error)
	Queue(ctx context.Context) (*dto.QueueSnapshot, error)
	StartNextBatch(ctx context.Context, input *dto.StartBatchInput) (*dto.StartBatchResult, error)
	CompleteBatch(ctx context.Context, batchID string) (*dto.CompleteBatchResult, error)

	// Reconcile runs one lifecycle pass and persists it; used by the background worker and listeners.
	Reconcile(ctx context.Context) error
}
