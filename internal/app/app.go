package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/appliances/internal/health"
	"github.com/vladislavdragonenkov/appliances/internal/i18n"
	"github.com/vladislavdragonenkov/appliances/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/appliances/internal/metrics"
	"github.com/vladislavdragonenkov/appliances/internal/service/auth"
	"github.com/vladislavdragonenkov/appliances/internal/service/catalog"
	"github.com/vladislavdragonenkov/appliances/internal/service/httpapi"
	"github.com/vladislavdragonenkov/appliances/internal/service/order"
	"github.com/vladislavdragonenkov/appliances/internal/service/outbox"
	"github.com/vladislavdragonenkov/appliances/internal/service/party"
	"github.com/vladislavdragonenkov/appliances/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run поднимает хранилища, сервисы и HTTP API и работает до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	logger.WithFields(version.Get().Fields()).Info("starting service")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStorage(deps, logger)

	attempts, err := initAttemptStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeAttemptStore(attempts, logger)

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL, nil)
	if err != nil {
		return fmt.Errorf("init token issuer: %w", err)
	}
	authMetrics := metrics.NewAuthMetrics()
	encoder := auth.NewBcryptEncoder(0)
	limiter := auth.NewLoginLimiter(attempts.store, cfg.LoginMaxAttempts, cfg.LoginBlockWindow)
	authService := auth.NewService(deps.identities, encoder, issuer, limiter, authMetrics, logger.WithField("component", "auth-service"))

	partyService := party.NewService(deps.clients, deps.employees, deps.identities, encoder, logger.WithField("component", "party-service"))
	catalogService := catalog.NewService(deps.appliances, deps.manufacturers, logger.WithField("component", "catalog-service"))
	orderService := order.NewService(
		deps.orders,
		deps.appliances,
		deps.clients,
		deps.employees,
		order.WithLogger(logger.WithField("component", "order-service")),
		order.WithTimeline(deps.timeline),
		order.WithMetrics(metrics.NewOrderMetrics()),
	)

	if err := bootstrapEmployee(ctx, cfg, partyService, logger); err != nil {
		return err
	}

	router := httpapi.NewRouter(httpapi.Dependencies{
		Orders:     order.NewGuard(orderService),
		Catalog:    catalogService,
		Party:      partyService,
		Auth:       authService,
		Translator: i18n.New(),
		Metrics:    metrics.NewHTTPMetrics(),
		Logger:     logger.WithField("component", "http-api"),
	})

	healthHandler := healthcheck.NewHandler(version.Get().String())
	healthHandler.Register("storage", deps.storageCheck)
	if attempts.check != nil {
		healthHandler.RegisterOptional("redis", attempts.check)
	}

	// Ошибка подключения к Kafka уже залогирована: API работает, события копятся в outbox.
	producer, _ := initKafkaProducer(cfg.Brokers(), logger)
	defer closeKafka(producer, logger)

	workersCtx, stopWorkers := context.WithCancel(ctx)
	workers, workersCtx := errgroup.WithContext(workersCtx)
	defer func() {
		stopWorkers()
		_ = workers.Wait()
	}()

	if attempts.sweeper != nil {
		cleanup := auth.NewCleanupWorker(
			attempts.sweeper,
			auth.WithLogger(logger.WithField("component", "login-attempts-cleanup")),
			auth.WithCleanupMetrics(authMetrics),
			auth.WithInterval(cfg.LoginCleanupInterval),
		)
		workers.Go(func() error {
			cleanup.Run(workersCtx)
			return nil
		})
	}

	if producer != nil {
		worker := newOutboxWorker(cfg, deps.outbox, producer, logger)
		workers.Go(func() error {
			worker.Run(workersCtx)
			return nil
		})
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)
	defer shutdownHTTP(metricsSrv, logger)

	lis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
	}
	apiSrv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", lis.Addr())
		errCh <- apiSrv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP API")
		shutdownHTTP(apiSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// newOutboxWorker собирает воркер доставки outbox с DLQ в отдельный topic.
func newOutboxWorker(cfg Config, repo domain.OutboxRepository, producer *kafka.Producer, logger *log.Entry) *outbox.Worker {
	return outbox.NewWorker(
		repo,
		kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
		outbox.WithLogger(logger.WithField("component", "outbox-worker")),
		outbox.WithMetrics(metrics.NewOutboxMetrics()),
		outbox.WithDLQPublisher(kafka.NewOutboxPublisher(producer, kafka.TopicDeadLetter)),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	)
}

// bootstrapEmployee создаёт начального сотрудника, если заданы email и пароль.
func bootstrapEmployee(ctx context.Context, cfg Config, parties *party.Service, logger *log.Entry) error {
	email := strings.TrimSpace(cfg.BootstrapEmployeeEmail)
	if email == "" || cfg.BootstrapEmployeePassword == "" {
		return nil
	}

	created, err := parties.EnsureEmployee(ctx, domain.Employee{
		User: domain.User{
			FirstName: "System",
			LastName:  "Administrator",
			Email:     email,
		},
		Position: "Administrator",
	}, cfg.BootstrapEmployeePassword)
	if err != nil {
		return fmt.Errorf("bootstrap employee: %w", err)
	}
	if created {
		logger.WithField("email", domain.NormalizeEmail(email)).Info("bootstrap employee created")
	}
	return nil
}

// startMetricsServer запускает HTTP-обработчики /metrics и health checks.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}

func closeStorage(deps *runtimeDependencies, logger *log.Entry) {
	if deps == nil || deps.closeFn == nil {
		return
	}
	if err := deps.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

func closeAttemptStore(attempts *attemptStore, logger *log.Entry) {
	if attempts == nil || attempts.closeFn == nil {
		return
	}
	if err := attempts.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close login attempts store")
	}
}
