package listener

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"go.uber.org/zap"
)

// ReconcileTicker reconciles on a fixed interval so timers fire without any read traffic.
type ReconcileTicker struct {
	uc       production.UseCase
	interval time.Duration
	logger   logger.ZapLogger
}

func NewReconcileTicker(uc production.UseCase, interval time.Duration, logger logger.ZapLogger) *ReconcileTicker {
	return &ReconcileTicker{uc: uc, interval: interval, logger: logger}
}

func (t *ReconcileTicker) Start(ctx context.Context) {
	if t.interval <= 0 {
		t.logger.Info("Reconcile ticker disabled")
		return
	}

	t.logger.Info("Starting reconcile ticker", zap.Duration("interval", t.interval))
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Stopping reconcile ticker")
			return
		case <-ticker.C:
			if err := t.uc.Reconcile(ctx); err != nil && ctx.Err() == nil {
				t.logger.Error("Scheduled reconcile failed", zap.Error(err))
			}
		}
	}
}
