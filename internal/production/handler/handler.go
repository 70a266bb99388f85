package handler

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/inventory"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/fekuna/omnipos-production-service/internal/production/dto"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const codeBatchIDRequired = "BATCH_ID_REQUIRED"

type ProductionHandler struct {
	uc        production.UseCase
	inventory inventory.UseCase
	logger    logger.ZapLogger
}

func NewProductionHandler(uc production.UseCase, inv inventory.UseCase, log logger.ZapLogger) *ProductionHandler {
	return &ProductionHandler{
		uc:        uc,
		inventory: inv,
		logger:    log,
	}
}

func (h *ProductionHandler) Requirements(ctx context.Context, req *RequirementsRequest) (*dto.RequirementsResult, error) {
	res, err := h.uc.Requirements(ctx, req.Date)
	if err != nil {
		return nil, h.fail("Requirements", err)
	}
	return res, nil
}

func (h *ProductionHandler) Queue(ctx context.Context, _ *QueueRequest) (*dto.QueueSnapshot, error) {
	snap, err := h.uc.Queue(ctx)
	if err != nil {
		return nil, h.fail("Queue", err)
	}
	return snap, nil
}

func (h *ProductionHandler) StartNextBatch(ctx context.Context, req *StartNextBatchRequest) (*dto.StartBatchResult, error) {
	input := &dto.StartBatchInput{
		Source:      req.Source,
		RequestedBy: req.RequestedBy,
		Note:        req.Note,
	}
	if input.RequestedBy == "" {
		input.RequestedBy = userID(ctx)
	}

	res, err := h.uc.StartNextBatch(ctx, input)
	if err != nil {
		return nil, h.fail("StartNextBatch", err)
	}
	return res, nil
}

func (h *ProductionHandler) CompleteBatch(ctx context.Context, req *CompleteBatchRequest) (*dto.CompleteBatchResult, error) {
	if req.BatchID == "" {
		return nil, h.fail("CompleteBatch", apperror.Validation(codeBatchIDRequired, "batch_id is required"))
	}

	res, err := h.uc.CompleteBatch(ctx, req.BatchID)
	if err != nil {
		return nil, h.fail("CompleteBatch", err)
	}
	return res, nil
}

func (h *ProductionHandler) Reconcile(ctx context.Context, _ *ReconcileRequest) (*ReconcileResponse, error) {
	if err := h.uc.Reconcile(ctx); err != nil {
		return nil, h.fail("Reconcile", err)
	}
	return &ReconcileResponse{}, nil
}

func (h *ProductionHandler) RebalanceLegacyConsumption(ctx context.Context, _ *RebalanceLegacyRequest) (*RebalanceLegacyResponse, error) {
	n, err := h.inventory.RebalanceLegacyOrderConsumption(ctx)
	if err != nil {
		return nil, h.fail("RebalanceLegacyConsumption", err)
	}
	h.logger.Info("legacy consumption rebalanced", zap.Int("compensated", n))
	return &RebalanceLegacyResponse{Compensated: n}, nil
}

// fail logs err and returns it in a form status.FromError understands.
func (h *ProductionHandler) fail(method string, err error) error {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		h.logger.Error("request failed", zap.String("method", method), zap.Error(err))
		return status.Error(codes.Internal, err.Error())
	}

	switch {
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrNotFound), errors.Is(err, apperror.ErrConflict):
		h.logger.Warn("request rejected", zap.String("method", method), zap.String("code", appErr.Code), zap.Error(err))
	default:
		h.logger.Error("request failed", zap.String("method", method), zap.String("code", appErr.Code), zap.Error(err))
	}
	return appErr
}

// userID reads the operator forwarded by the gateway in the x-user-id header.
func userID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if val := md.Get("x-user-id"); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}
