package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/fekuna/omnipos-production-service/config"
	"github.com/fekuna/omnipos-production-service/internal/broker"
	"github.com/fekuna/omnipos-production-service/internal/cache"
	"github.com/fekuna/omnipos-production-service/internal/database"
	"github.com/fekuna/omnipos-production-service/internal/delivery"
	"github.com/fekuna/omnipos-production-service/internal/kvstore"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/search"

	invRepoPkg "github.com/fekuna/omnipos-production-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-production-service/internal/inventory/usecase"
	orderRepoPkg "github.com/fekuna/omnipos-production-service/internal/order/repository"
	prodRepoPkg "github.com/fekuna/omnipos-production-service/internal/product/repository"

	productionHandlerPkg "github.com/fekuna/omnipos-production-service/internal/production/handler"
	"github.com/fekuna/omnipos-production-service/internal/production/listener"
	"github.com/fekuna/omnipos-production-service/internal/production/publisher"
	productionRepoPkg "github.com/fekuna/omnipos-production-service/internal/production/repository"
	productionUCPkg "github.com/fekuna/omnipos-production-service/internal/production/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	location, err := time.LoadLocation(cfg.Production.Timezone)
	if err != nil {
		appLogger.Warn("Unknown production timezone, using local time", zap.String("timezone", cfg.Production.Timezone), zap.Error(err))
		location = time.Local
	}

	// 3. Connect to Database
	db, err := database.NewPostgres(&database.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Repositories
	orderRepo := orderRepoPkg.NewPGRepository(db)
	ledgerRepo := invRepoPkg.NewPGRepository(db)
	repos := productionUCPkg.Repositories{
		Orders:   orderRepo,
		Products: prodRepoPkg.NewPGRepository(db),
		Ledger:   ledgerRepo,
		State:    productionRepoPkg.NewKVStateRepository(kvstore.NewPGStore(db)),
	}
	txScope := productionRepoPkg.NewPGTransactionScope(db)

	deliveryGateway := delivery.NewHTTPGateway(&delivery.Config{
		BaseURL: cfg.Delivery.BaseURL,
		APIKey:  cfg.Delivery.APIKey,
		Timeout: time.Duration(cfg.Delivery.TimeoutSeconds) * time.Second,
	})

	var opts []productionUCPkg.Option

	// 5. Initialize Redis
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

		lockTTL := time.Duration(cfg.Redis.LockTTLSeconds) * time.Second
		opts = append(opts, productionUCPkg.WithLocker(cache.NewKeyLocker(redisClient, "lock:production:oven", lockTTL)))
	}

	// 5.5 Initialize Kafka
	var kafkaConsumer *broker.KafkaConsumer
	if cfg.Kafka.Enabled {
		kafkaProducer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.ProductionTopic,
		})
		defer kafkaProducer.Close()
		opts = append(opts, productionUCPkg.WithPublisher(publisher.NewKafkaBatchPublisher(kafkaProducer)))

		kafkaConsumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.DeliveryTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("consume_topic", cfg.Kafka.DeliveryTopic),
			zap.String("produce_topic", cfg.Kafka.ProductionTopic),
		)
	}

	// 5.8 Initialize Elasticsearch
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch (batch search disabled)", zap.Error(err))
	} else {
		indexer := publisher.NewElasticBatchIndexer(esClient)
		if err := indexer.EnsureIndex(context.Background()); err != nil {
			appLogger.Warn("Could not create batch index", zap.String("index", publisher.BatchIndex), zap.Error(err))
		}
		opts = append(opts, productionUCPkg.WithIndexer(indexer))
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 6. Initialize UseCases
	productionUC := productionUCPkg.NewProductionUseCase(productionUCPkg.Config{
		OvenCapacityBroas: cfg.Production.OvenCapacityBroas,
		BakeTimerMinutes:  cfg.Production.BakeTimerMinutes,
		RecentBatchLimit:  cfg.Production.RecentBatchLimit,
		DispatchPolicy:    productionUCPkg.DispatchPolicy(cfg.Production.DispatchPolicy),
		Location:          location,
		DeliveryTimeout:   time.Duration(cfg.Delivery.TimeoutSeconds) * time.Second,
	}, repos, txScope, deliveryGateway, appLogger, opts...)
	inventoryUC := invUCPkg.NewInventoryUseCase(ledgerRepo, orderRepo, appLogger)

	// 6.2 Initialize Handlers
	productionHandler := productionHandlerPkg.NewProductionHandler(productionUC, inventoryUC, appLogger)

	// 6.5 Start Background Workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interval := time.Duration(cfg.Production.ReconcileIntervalSeconds) * time.Second
	go listener.NewReconcileTicker(productionUC, interval, appLogger).Start(ctx)
	if kafkaConsumer != nil {
		go listener.NewDeliveryListener(kafkaConsumer, productionUC, appLogger).Start(ctx)
	}

	// 7. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer()
	productionHandlerPkg.RegisterProductionServiceServer(grpcServer, productionHandler)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(productionHandlerPkg.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Register Reflection
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
