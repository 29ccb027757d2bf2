package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/kursadbilgin/solar-proposals/internal/config"
	"github.com/kursadbilgin/solar-proposals/internal/estimator"
	"github.com/kursadbilgin/solar-proposals/internal/handler"
	"github.com/kursadbilgin/solar-proposals/internal/infra/postgresql"
	"github.com/kursadbilgin/solar-proposals/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/solar-proposals/internal/infra/redis"
	"github.com/kursadbilgin/solar-proposals/internal/observability"
	"github.com/kursadbilgin/solar-proposals/internal/provider"
	"github.com/kursadbilgin/solar-proposals/internal/queue"
	"github.com/kursadbilgin/solar-proposals/internal/repository"
	"github.com/kursadbilgin/solar-proposals/internal/service"
	"github.com/kursadbilgin/solar-proposals/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(ctx, cfg.DatabaseDSN, postgresql.DefaultPoolOptions)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	metrics := observability.NewMetrics()
	proposalRepo := repository.NewGormProposalRepo(db)
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

	mailer, err := provider.NewSendGridSender(provider.SendGridConfig{
		BaseURL: cfg.SendGridBaseURL,
		APIKey:  cfg.SendGridAPIKey,
		From:    provider.EmailAddress{Email: cfg.SendGridFromEmail, Name: cfg.SendGridFromName},
		Timeout: cfg.ProviderTimeout(),
	})
	if err != nil {
		logger.Fatal("sendgrid provider initialization failed", zap.Error(err))
	}

	dispatcher, err := service.NewDispatcher(whatsApp, sms, trackingRepo, cfg.DefaultCountryCode, logger)
	if err != nil {
		logger.Fatal("dispatcher initialization failed", zap.Error(err))
	}
	dispatcher.SetMetrics(metrics)

	emailNotifier, err := service.NewEmailNotifier(mailer, cfg.AdminEmail, logger)
	if err != nil {
		logger.Fatal("email notifier initialization failed", zap.Error(err))
	}
	emailNotifier.SetMetrics(metrics)

	est, err := estimator.New(cfg.EnergyRatePerKWh, cfg.SavingsFraction)
	if err != nil {
		logger.Fatal("estimator initialization failed", zap.Error(err))
	}

	proposalService, err := service.NewProposalService(
		proposalRepo,
		trackingRepo,
		est,
		dispatcher,
		emailNotifier,
		service.ProposalServiceConfig{
			BaseURL:           cfg.BaseURL(),
			CountryCode:       cfg.DefaultCountryCode,
			PlaceholderWindow: cfg.PlaceholderWindow(),
		},
		logger,
	)
	if err != nil {
		logger.Fatal("proposal service initialization failed", zap.Error(err))
	}
	proposalService.SetMetrics(metrics)

	var broker handler.BrokerStatus
	if cfg.RabbitMQURL != "" {
		rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL, "solar-proposals-api")
		if err != nil {
			logger.Fatal("rabbitmq initialization failed", zap.Error(err))
		}
		defer rabbit.Close()

		publisher := queue.NewRabbitMQPublisher(rabbit)
		defer publisher.Close()

		proposalService.SetPublisher(publisher)
		broker = rabbit
		logger.Info("initial messages will be queued", zap.String("queue", queue.InitialMessageQueue))
	} else {
		logger.Info("RABBITMQ_URL not set, initial messages are sent inline")
	}

	limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.SubmitRateLimit, cfg.SubmitRateWindow())
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	proposalHandler, err := handler.NewProposalHandler(proposalService, cfg.PDFBaseURL())
	if err != nil {
		logger.Fatal("proposal handler initialization failed", zap.Error(err))
	}

	app := fiber.New(transport.NewAppConfig(logger, transport.ProxyConfig{
		Header:         cfg.ProxyHeader,
		TrustedProxies: cfg.TrustedProxyList(),
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(handler.RequestContext())
	app.Use(metrics.HTTPMiddleware())

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	handler.RegisterHealthRoutes(app, sqlDB, rdb, broker)
	handler.RegisterProposalRoutes(app, proposalHandler, handler.SubmitRateLimit(limiter, metrics, logger))

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("solar-proposals api started", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down api")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("api stopped with error", zap.Error(err))
	}
}
