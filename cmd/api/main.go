package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/agency-admin/internal/api/http"
	"github.com/spec-kit/agency-admin/internal/api/http/handlers"
	"github.com/spec-kit/agency-admin/internal/auth"
	"github.com/spec-kit/agency-admin/internal/cache"
	"github.com/spec-kit/agency-admin/internal/config"
	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/events"
	"github.com/spec-kit/agency-admin/internal/mailer"
	"github.com/spec-kit/agency-admin/internal/observability"
	"github.com/spec-kit/agency-admin/internal/persistence"
	"github.com/spec-kit/agency-admin/internal/ratelimit"
	"github.com/spec-kit/agency-admin/internal/repository"
	"github.com/spec-kit/agency-admin/internal/service"
	"github.com/spec-kit/agency-admin/internal/webhook"
	"github.com/spec-kit/agency-admin/internal/worker"
	"github.com/spec-kit/agency-admin/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrations.FS, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	registry.MustRegister(pg.Collectors()...)
	registry.MustRegister(redis.Collectors()...)

	queue, err := newQueue(ctx, cfg.Queue, redis, logger)
	if err != nil {
		logger.Fatal("failed to init side effect queue", zap.Error(err))
	}
	defer queue.Close() //nolint:errcheck
	emitter := events.NewEmitter(queue, logger, metrics)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	leadRepo := repository.NewLeadRepository(pool)
	contentRepo := repository.NewContentRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)
	templateRepo := repository.NewEmailTemplateRepository(pool)
	webhookRepo := repository.NewWebhookRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	mediaRepo := repository.NewMediaRepository(pool)
	redirectRepo := repository.NewRedirectRepository(pool)

	pageCache := cache.NewPageCache(redis.Client, cfg.Redis.PageCacheTTL(), logger)
	limiter := ratelimit.NewLimiter(redis.Client, "apikey")

	auditService := service.NewAuditService(auditRepo, logger, metrics, cfg.Audit.RetentionDays)
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
		Audit:             auditService,
		Effects:           emitter,
		Logger:            logger,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   userRepo,
		Audit:      auditService,
		Effects:    emitter,
		Cache:      pageCache,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	leadService := service.NewLeadService(service.LeadDependencies{
		LeadRepo: leadRepo,
		UserRepo: userRepo,
		Audit:    auditService,
		Effects:  emitter,
		Cache:    pageCache,
		Logger:   logger,
	})
	contentService := service.NewContentService(service.ContentDependencies{
		ContentRepo: contentRepo,
		Audit:       auditService,
		Effects:     emitter,
		Cache:       pageCache,
		Public:      pageCache,
		Logger:      logger,
	})
	apiKeyService := service.NewAPIKeyService(service.APIKeyDependencies{
		APIKeyRepo: apiKeyRepo,
		UserRepo:   userRepo,
		Audit:      auditService,
		Cache:      pageCache,
		Limiter:    limiter,
		Defaults:   cfg.RateLimit,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(notificationRepo, logger)
	templateService := service.NewEmailTemplateService(templateRepo, auditService, pageCache, logger)
	settingsService := service.NewSettingsService(settingsRepo, auditService, pageCache, logger)
	mediaService := service.NewMediaService(mediaRepo, auditService, pageCache, logger)
	redirectService := service.NewRedirectService(redirectRepo, auditService, pageCache, logger)

	dispatcher := webhook.NewDispatcher(cfg.Webhook, webhookRepo, logger, metrics)
	dispatcher.OnFailure(service.NewAdminAlerter(userRepo, emitter, logger).WebhookFailed)
	webhookService := service.NewWebhookService(webhookRepo, dispatcher, auditService, pageCache, logger)

	var sender mailer.Sender
	if cfg.SMTP.Enabled() {
		sender = mailer.NewSMTPSender(cfg.SMTP)
	}
	mail := mailer.New(sender, templateRepo, cfg.App.PublicBaseURL, logger)

	router := events.NewRouter()
	worker.Handlers{
		Email:         mail,
		Webhooks:      dispatcher,
		Notifications: notificationService,
	}.Register(router)
	sideEffects := worker.New(queue, router, cfg.Queue, logger, metrics)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := sideEffects.Run(ctx); err != nil {
			logger.Error("side effect worker stopped", zap.Error(err))
		}
	}()

	app := httptransport.NewApp(cfg.App)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.CORSOrigins)

	health := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
		"postgres": pg,
		"redis":    redis,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         health,
		Auth:           handlers.NewAuthHandler(authService, userService),
		Users:          handlers.NewUsersHandler(userService),
		Leads:          handlers.NewLeadsHandler(leadService),
		Posts:          handlers.NewContentHandler(contentService, domain.ContentKindPost),
		Cases:          handlers.NewContentHandler(contentService, domain.ContentKindCase),
		Services:       handlers.NewContentHandler(contentService, domain.ContentKindService),
		APIKeys:        handlers.NewAPIKeysHandler(apiKeyService),
		Audit:          handlers.NewAuditHandler(auditService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		EmailTemplates: handlers.NewEmailTemplatesHandler(templateService),
		Webhooks:       handlers.NewWebhooksHandler(webhookService),
		Settings:       handlers.NewSettingsHandler(settingsService),
		Media:          handlers.NewMediaHandler(mediaService),
		Redirects:      handlers.NewRedirectsHandler(redirectService),
		AuthMiddleware: auth.NewAuthMiddleware(authService, apiKeyService),
		Gatherer:       registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	<-workerDone
}

// newQueue selects the side effect transport.
func newQueue(ctx context.Context, cfg config.QueueConfig, redis *persistence.Redis, logger *zap.Logger) (events.Queue, error) {
	switch cfg.Backend {
	case config.QueueBackendRedis:
		queue := events.NewRedisQueue(redis.Client, cfg.StreamName, cfg.ConsumerGroup, cfg.ConsumerName, logger)
		if err := queue.EnsureGroup(ctx); err != nil {
			return nil, fmt.Errorf("create consumer group: %w", err)
		}
		return queue, nil
	case config.QueueBackendRabbitMQ:
		return events.DialRabbitQueue(cfg.AMQPURL, events.RabbitTopology{
			Exchange:   cfg.AMQPExchange,
			Queue:      cfg.AMQPQueue,
			DeadLetter: cfg.AMQPDeadLetter,
		}, logger)
	default:
		return events.NewMemoryQueue(cfg.BufferSize), nil
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
