package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/checkout"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/httpapi"
	"github.com/joao-fontenele/storefront/internal/logging"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/payment"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

const (
	serviceName    = "storefront-api"
	serviceVersion = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Env, serviceName)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("storefront api stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, serviceVersion, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer shutdownWith(logger, "tracer provider", shutdownTracer)

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, serviceVersion, cfg.Env)
	if err != nil {
		return err
	}
	defer shutdownWith(logger, "meter provider", shutdownMeter)

	store, closeStore, err := openOrderStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	gateway, err := newGateway(cfg)
	if err != nil {
		return err
	}

	var opts []checkout.Option
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderCreatedTopic, messaging.WithWriteTimeout(5*time.Second))
		defer func() { _ = producer.Close() }()
		opts = append(opts, checkout.WithEvents(producer))
		logger.Info("publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.OrderCreatedTopic))
	}

	var cartHandler *httpapi.CartHandler
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		cartHandler = httpapi.NewCartHandler(rdb, logger.Named("cart"))
	}

	svc := checkout.NewService(gateway, store, logger.Named("checkout"), opts...)

	router := httpapi.NewRouter(httpapi.Deps{
		Checkout: checkout.NewHandler(svc, logger.Named("checkout")),
		Orders:   orders.NewHandler(store, logger.Named("orders")),
		Cart:     cartHandler,
		Auth:     auth.NewAuthenticator(cfg.JWTSecret, logger.Named("auth")),
		Metrics:  metricsHandler,
		Logger:   logger.Named("http"),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting storefront api",
			zap.String("port", cfg.Port),
			zap.String("order_store", cfg.OrderStore),
			zap.String("payment_provider", cfg.PaymentProvider),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func openOrderStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (orders.Store, func(), error) {
	switch cfg.OrderStore {
	case config.StorePostgres:
		db, err := telemetry.OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		return orders.NewPostgresStore(db), func() { _ = db.Close() }, nil

	default:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()

		db, err := orders.ConnectMongoDB(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		store := orders.NewMongoStore(db)
		if err := store.CreateIndexes(connectCtx); err != nil {
			logger.Warn("failed to create order indexes", zap.Error(err))
		}
		return store, func() { _ = db.Client().Disconnect(context.Background()) }, nil
	}
}

func newGateway(cfg *config.Config) (payment.Gateway, error) {
	switch cfg.PaymentProvider {
	case config.ProviderStripe:
		return payment.NewStripeGateway(cfg.StripeSecretKey, cfg.PaymentCurrency), nil
	case config.ProviderSandbox:
		return payment.NewSandboxGateway(cfg.PaymentCurrency), nil
	}
	return nil, errors.New("unknown payment provider " + cfg.PaymentProvider)
}

func shutdownWith(logger *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warn("shutdown failed", zap.String("component", name), zap.Error(err))
	}
}
