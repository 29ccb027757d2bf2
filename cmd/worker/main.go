package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/kursadbilgin/solar-proposals/internal/config"
	"github.com/kursadbilgin/solar-proposals/internal/infra/postgresql"
	"github.com/kursadbilgin/solar-proposals/internal/observability"
	"github.com/kursadbilgin/solar-proposals/internal/provider"
	"github.com/kursadbilgin/solar-proposals/internal/queue"
	"github.com/kursadbilgin/solar-proposals/internal/repository"
	"github.com/kursadbilgin/solar-proposals/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.RabbitMQURL == "" {
		logger.Fatal("RABBITMQ_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(ctx, cfg.DatabaseDSN, postgresql.DefaultPoolOptions)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL, "solar-proposals-worker")
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer rabbit.Close()

	metrics := observability.NewMetrics()
	trackingRepo := repository.NewGormTrackingRepo(db)

	whatsApp, err := provider.NewTwilioSender(provider.ChannelWhatsApp, provider.TwilioConfig{
		BaseURL:    cfg.TwilioBaseURL,
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioWhatsAppFrom,
		Timeout:    cfg.ProviderTimeout(),
	})
	if err != nil {
		logger.Fatal("whatsapp provider initialization failed", zap.Error(err))
	}

	sms, err := provider.NewTwilioSender(provider.ChannelSMS, provider.TwilioConfig{
		BaseURL:    cfg.TwilioBaseURL,
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioSMSFrom,
		Timeout:    cfg.ProviderTimeout(),
	})
	if err != nil {
		logger.Fatal("sms provider initialization failed", zap.Error(err))
	}

	dispatcher, err := service.NewDispatcher(whatsApp, sms, trackingRepo, cfg.DefaultCountryCode, logger)
	if err != nil {
		logger.Fatal("dispatcher initialization failed", zap.Error(err))
	}
	dispatcher.SetMetrics(metrics)

	consumer := queue.NewRabbitMQConsumer(rabbit, cfg.WorkerConcurrency, logger)
	defer consumer.Close()

	worker, err := service.NewWorkerService(consumer, dispatcher, trackingRepo, cfg.WorkerConcurrency, logger)
	if err != nil {
		logger.Fatal("worker initialization failed", zap.Error(err))
	}

	logger.Info("solar-proposals worker started",
		zap.Int("concurrency", cfg.WorkerConcurrency),
		zap.String("queue", queue.InitialMessageQueue),
	)

	if err := worker.Start(ctx); err != nil {
		logger.Error("worker stopped with error", zap.Error(err))
		return
	}

	logger.Info("solar-proposals worker stopped")
}
