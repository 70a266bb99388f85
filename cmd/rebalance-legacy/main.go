// Command rebalance-legacy posts compensating IN movements for ingredient consumption
// recorded per order by the old flow, for orders that are still in flight. Safe to rerun.
package main

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-production-service/config"
	"github.com/fekuna/omnipos-production-service/internal/database"
	invRepoPkg "github.com/fekuna/omnipos-production-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-production-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	orderRepoPkg "github.com/fekuna/omnipos-production-service/internal/order/repository"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment: true,
		Encoding:      "console",
		Level:         "info",
	})
	defer appLogger.Sync()

	db, err := database.NewPostgres(&database.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()

	uc := invUCPkg.NewInventoryUseCase(invRepoPkg.NewPGRepository(db), orderRepoPkg.NewPGRepository(db), appLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	count, err := uc.RebalanceLegacyOrderConsumption(ctx)
	if err != nil {
		appLogger.Fatal("Legacy rebalance failed", zap.Int("compensated", count), zap.Error(err))
	}
	appLogger.Info("Legacy rebalance finished", zap.Int("compensated", count))
}
