package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/walletgraph/walletgraph/internal/adapter"
	"github.com/walletgraph/walletgraph/internal/config"
	"github.com/walletgraph/walletgraph/internal/logger"
	"github.com/walletgraph/walletgraph/internal/messaging"
	"github.com/walletgraph/walletgraph/internal/ownership"
	"github.com/walletgraph/walletgraph/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadIngestConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "ingest",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Walletgraph ingest")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}

	dataStore := store.NewPGStore(db)
	validator := ownership.NewValidator(dataStore, ownership.Config{
		RetryWholeBatch: cfg.Ingest.RetryWholeBatch,
		RetryMaxElapsed: cfg.Ingest.RetryMaxElapsed,
	})

	// Connect to NATS JetStream
	natsOptions := []nats.Option{
		nats.MaxReconnects(cfg.NATS.MaxReconnects),
		nats.ReconnectWait(cfg.NATS.ReconnectWait),
	}
	if cfg.NATS.ConnectionName != "" {
		natsOptions = append(natsOptions, nats.Name(cfg.NATS.ConnectionName))
	}

	natsConn, js, err := adapter.NewNatsJetStream().Connect(cfg.NATS.URL, natsOptions...)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	defer natsConn.Close()
	logger.InfoCtx(ctx, "Connected to NATS", zap.String("url", natsConn.ConnectedUrl()))

	// Start consuming discovery events
	subscriber := messaging.NewSubscriber(js, adapter.NewJSON(), validator).
		WithNames(cfg.NATS.StreamName, cfg.NATS.ConsumerName)
	consumeCtx, err := subscriber.Start(ctx)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to start subscriber", zap.Error(err))
	}

	logger.InfoCtx(ctx, "Consuming discovery events",
		zap.String("stream", cfg.NATS.StreamName),
		zap.String("consumer", cfg.NATS.ConsumerName),
	)

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case <-consumeCtx.Closed():
		logger.WarnCtx(ctx, "Consumer stopped unexpectedly")
	}

	// Drain lets in-flight messages finish before the consumer stops
	consumeCtx.Drain()
	cancel()

	logger.Info("Ingest stopped")
}
