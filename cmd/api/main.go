package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderup/internal/cache"
	"orderup/internal/cart"
	"orderup/internal/config"
	"orderup/internal/db"
	"orderup/internal/domain"
	"orderup/internal/events"
	"orderup/internal/httpserver"
	"orderup/internal/logging"
	"orderup/internal/payment"
	customerrepo "orderup/internal/repository/customer"
	menurepo "orderup/internal/repository/menu"
	orderrepo "orderup/internal/repository/order"
	restaurantrepo "orderup/internal/repository/restaurant"
	tokenrepo "orderup/internal/repository/token"
	anonymoussvc "orderup/internal/service/anonymous"
	catalogsvc "orderup/internal/service/catalog"
	customersvc "orderup/internal/service/customer"
	ordersvc "orderup/internal/service/order"
	"orderup/internal/session"

	"go.uber.org/zap"
)

const serviceName = "orderup-api"

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(serviceName, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, db.Options{PingAttempts: 5, PingBackoff: 2 * time.Second, Logger: logger})
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	var readyChecks []httpserver.ReadyCheck
	catalogCache := cache.NewNop(serviceName)
	if cfg.RedisAddr != "" {
		catalogCache = cache.NewRedisCache(cfg.RedisAddr, serviceName)
		readyChecks = append(readyChecks, httpserver.ReadyCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return cache.Ping(ctx, catalogCache) },
		})
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		p, err := events.Dial(cfg.AMQPURL, logger.Named("events"))
		if err != nil {
			logger.Fatal("connect to broker", zap.Error(err))
		}
		publisher = p
	}
	defer publisher.Close()

	feePolicy, err := cart.NewFeePolicy(cfg.FeePolicy, domain.Money(cfg.FeeFlatMinor), cfg.FeeRateBPS)
	if err != nil {
		logger.Fatal("fee policy", zap.Error(err))
	}

	payments := payment.NewRouter().
		Handle(domain.PaymentCard, payment.Pickup{}).
		Handle(domain.PaymentCash, payment.Pickup{})
	if cfg.PaymentBaseURL != "" {
		payments.Handle(domain.PaymentMpesa, payment.NewMpesa(cfg.PaymentBaseURL, nil, logger.Named("mpesa")))
	} else {
		logger.Warn("PAYMENT_BASE_URL not set; M-Pesa orders are paid at pickup")
		payments.Handle(domain.PaymentMpesa, payment.Pickup{})
	}

	tokenRepo := tokenrepo.NewPostgres(dbpool)
	customerService := customersvc.New(customerrepo.NewPostgres(dbpool, logger), tokenRepo)
	anonymousService := anonymoussvc.New(tokenRepo)
	catalogService := catalogsvc.New(
		restaurantrepo.NewPostgres(dbpool, logger),
		menurepo.NewPostgres(dbpool, logger),
		catalogCache,
		cfg.CatalogCacheTTL,
		logger.Named("catalog"),
	)
	orderService := ordersvc.New(orderrepo.NewPostgres(dbpool, logger), payments, publisher, logger.Named("orders"))

	sessions := session.NewManager(session.Config{
		FeePolicy: feePolicy,
		Currency:  cfg.Currency,
		Gateway:   orderService,
		Timeout:   cfg.CheckoutTimeout,
		Logger:    logger.Named("checkout"),
	})

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CustomerSvc:  customerService,
		AnonymousSvc: anonymousService,
		CatalogSvc:   catalogService,
		OrderSvc:     orderService,
		Sessions:     sessions,
		FeePolicy:    feePolicy,
		CORSOrigins:  cfg.CORSOrigins,
		ReadyChecks:  readyChecks,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweep(sweepCtx, sessions, tokenRepo, cfg.SessionIdle, logger)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr), zap.String("fee_policy", feePolicy.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

// sweep drops idle sessions and expired tokens until ctx is done.
func sweep(ctx context.Context, sessions *session.Manager, tokens tokenrepo.Repository, maxIdle time.Duration, logger *zap.Logger) {
	if maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(maxIdle / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(maxIdle); n > 0 {
				logger.Info("swept idle sessions", zap.Int("dropped", n), zap.Int("live", sessions.Len()))
			}
			if n, err := tokens.DeleteExpired(ctx, time.Now()); err != nil {
				logger.Warn("purge expired tokens", zap.Error(err))
			} else if n > 0 {
				logger.Info("purged expired tokens", zap.Int64("deleted", n))
			}
		}
	}
}
