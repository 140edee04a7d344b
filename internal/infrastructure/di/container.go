package di

import (
	"database/sql"
	"fmt"

	"depixsync/internal/adapters/inbound/http/controllers"
	httpRouter "depixsync/internal/adapters/inbound/http/router"
	"depixsync/internal/adapters/outbound/docs"
	postgresql "depixsync/internal/adapters/outbound/persistence/postgresql"
	postgresqlshared "depixsync/internal/adapters/outbound/persistence/postgresql/shared"
	postgresqltransaction "depixsync/internal/adapters/outbound/persistence/postgresql/transaction"
	"depixsync/internal/adapters/outbound/settlement/depix"
	portsin "depixsync/internal/application/ports/in"
	"depixsync/internal/application/use_cases"
	valueobjects "depixsync/internal/domain/value_objects"
	"depixsync/internal/infrastructure/config"
	"depixsync/internal/infrastructure/httpserver"
	"depixsync/internal/infrastructure/metrics"
	"depixsync/internal/infrastructure/ratelimit"
	"depixsync/internal/infrastructure/reconciler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Container struct {
	Database                     *sql.DB
	Server                       *httpserver.Server
	InitializePersistenceUseCase portsin.InitializePersistenceUseCase
	Scheduler                    *reconciler.Scheduler
	Limiter                      *ratelimit.Limiter
	GetRateLimitsUseCase         portsin.GetRateLimitsUseCase
}

// Build wires the whole process. The limiter is shared by every settlement
// call in the process, so one container must own all provider traffic.
func Build(cfg config.Config, logger *zap.Logger) (Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.NewMetrics(cfg.MetricsNamespace, registry)

	limiter := ratelimit.NewLimiter(
		limiterQuotas(cfg.RateLimits),
		ratelimit.WithLocation(cfg.RateLimitLocation),
		ratelimit.WithLogger(logger.Named("ratelimit")),
		ratelimit.WithObserver(appMetrics),
	)
	settlementGateway := depix.NewGateway(depix.Config{
		BaseURL: cfg.Settlement.BaseURL,
		Token:   cfg.Settlement.Token,
		Timeout: cfg.Settlement.Timeout,
	}, limiter)
	livenessProbe := depix.NewCachedLivenessProbe(settlementGateway, cfg.HealthPingCacheTTL, logger.Named("settlement"))

	databasePool, err := postgresqlshared.NewDatabasePool(cfg.DatabaseURL, logger)
	if err != nil {
		return Container{}, fmt.Errorf("open database pool: %w", err)
	}
	ledgerGateway := postgresql.NewLedgerBootstrapGateway(
		databasePool,
		cfg.DatabaseTarget,
		cfg.MigrationsPath,
		logger.Named("persistence"),
	)
	transactionRepository := postgresqltransaction.NewRepository(databasePool, logger.Named("transactions"))

	clock := use_cases.NewSystemClock()
	initializePersistenceUseCase := use_cases.NewInitializePersistenceUseCase(ledgerGateway)
	healthUseCase := use_cases.NewGetHealthUseCase(livenessProbe)
	openAPIUseCase := use_cases.NewGetOpenAPISpecUseCase(docs.NewFileOpenAPISpecReadModel(cfg.OpenAPISpecPath))
	createDepositUseCase := use_cases.NewCreateDepositUseCase(
		transactionRepository,
		settlementGateway,
		clock,
		cfg.Settlement.MaxDepositAmountMinor,
	)
	getTransactionUseCase := use_cases.NewGetTransactionUseCase(transactionRepository)
	getRateLimitsUseCase := use_cases.NewGetRateLimitsUseCase(limiter)
	reconcileUseCase := use_cases.NewReconcileTransactionsUseCase(
		transactionRepository,
		settlementGateway,
		clock,
		use_cases.NewContextSleeper(),
	)

	scheduler := reconciler.NewScheduler(
		reconciler.Settings{
			Enabled:        cfg.Reconciler.Enabled,
			TickInterval:   cfg.Reconciler.TickInterval,
			LookbackWindow: cfg.Reconciler.LookbackWindow,
			BatchSize:      cfg.Reconciler.BatchSize,
			InterItemDelay: cfg.Reconciler.InterItemDelay,
		},
		reconcileUseCase,
		logger.Named("reconciler"),
		appMetrics,
	)

	router := httpRouter.New(httpRouter.Dependencies{
		HealthController:  controllers.NewHealthController(healthUseCase, logger),
		SwaggerController: controllers.NewSwaggerController(openAPIUseCase, logger),
		DepositsController: controllers.NewDepositsController(
			createDepositUseCase,
			getTransactionUseCase,
			logger,
		),
		ReconciliationController: controllers.NewReconciliationController(scheduler, getRateLimitsUseCase, logger),
		MetricsHandler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Logger:                   logger.Named("http"),
	})

	return Container{
		Database:                     databasePool,
		Server:                       httpserver.New(cfg.Address(), router, logger.Named("http")),
		InitializePersistenceUseCase: initializePersistenceUseCase,
		Scheduler:                    scheduler,
		Limiter:                      limiter,
		GetRateLimitsUseCase:         getRateLimitsUseCase,
	}, nil
}

func limiterQuotas(quotas map[valueobjects.EndpointClass]config.Quota) map[valueobjects.EndpointClass]ratelimit.Quota {
	out := make(map[valueobjects.EndpointClass]ratelimit.Quota, len(quotas))
	for class, quota := range quotas {
		out[class] = ratelimit.Quota{
			RateLimit:  quota.PerMinute,
			BurstLimit: quota.Burst,
			DailyLimit: quota.Daily,
		}
	}
	return out
}
