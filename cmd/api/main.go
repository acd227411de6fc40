package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blackbass-labs/blackbass-backend/api/routes"
	cartsvc "github.com/blackbass-labs/blackbass-backend/internal/cart"
	"github.com/blackbass-labs/blackbass-backend/internal/catalog"
	checkoutsvc "github.com/blackbass-labs/blackbass-backend/internal/checkout"
	ordersvc "github.com/blackbass-labs/blackbass-backend/internal/orders"
	paymentsvc "github.com/blackbass-labs/blackbass-backend/internal/payments"
	"github.com/blackbass-labs/blackbass-backend/internal/profiles"
	reviewsvc "github.com/blackbass-labs/blackbass-backend/internal/reviews"
	shippingsvc "github.com/blackbass-labs/blackbass-backend/internal/shipping"
	subscriptionsvc "github.com/blackbass-labs/blackbass-backend/internal/subscriptions"
	"github.com/blackbass-labs/blackbass-backend/pkg/config"
	"github.com/blackbass-labs/blackbass-backend/pkg/db"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
	"github.com/blackbass-labs/blackbass-backend/pkg/melhorenvio"
	"github.com/blackbass-labs/blackbass-backend/pkg/mercadopago"
	"github.com/blackbass-labs/blackbass-backend/pkg/metrics"
	"github.com/blackbass-labs/blackbass-backend/pkg/migrate"
	"github.com/blackbass-labs/blackbass-backend/pkg/outbox"
	"github.com/blackbass-labs/blackbass-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	mpClient, err := mercadopago.NewClient(cfg.MercadoPago, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mercado pago client", err)
		os.Exit(1)
	}

	meClient, err := melhorenvio.NewClient(cfg.MelhorEnvio, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create melhor envio client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	fulfillmentMetrics := metrics.NewFulfillmentMetrics(registry)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	gdb := dbClient.DB()
	cartRepo := cartsvc.NewRepository(gdb)
	catalogRepo := catalog.NewRepository(gdb)
	ordersRepo := ordersvc.NewRepository(gdb)
	outboxSvc := outbox.NewService(outbox.NewRepository(gdb), logg)
	resolver := profiles.NewResolver(gdb)

	cartService, err := cartsvc.NewService(cartRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersService, err := ordersvc.NewService(ordersRepo, dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(cartService, ordersRepo, dbClient, outboxSvc, fulfillmentMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ledger := paymentsvc.NewLedger(gdb)
	guard, err := paymentsvc.NewIdempotencyGuard(redisClient, cfg.Webhook.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency guard", err)
		os.Exit(1)
	}

	paymentsService, err := paymentsvc.NewService(mpClient, cartService, resolver, checkoutService, ledger, cfg.App, cfg.MercadoPago.Sandbox(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	reconciler, err := paymentsvc.NewReconciler(mpClient, guard, ledger, checkoutService, ordersRepo, dbClient, outboxSvc, webhookMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook reconciler", err)
		os.Exit(1)
	}

	tokenManager, err := shippingsvc.NewTokenManager(shippingsvc.NewTokenRepository(gdb), meClient, cfg.Shipping.TokenRefreshSkew, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping token manager", err)
		os.Exit(1)
	}

	oauthFlow, err := shippingsvc.NewOAuthFlow(meClient, redisClient, tokenManager, cfg.Shipping.OAuthStateTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping oauth flow", err)
		os.Exit(1)
	}

	labelService, err := shippingsvc.NewLabelService(meClient, tokenManager, ordersRepo, resolver, dbClient, outboxSvc, cfg.Shipping, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create label service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(gdb, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	reviewsService, err := reviewsvc.NewService(gdb, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}

	subscriptionsService, err := subscriptionsvc.NewService(gdb, mpClient, dbClient, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriptions service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DBPinger:      dbClient,
			Redis:         redisClient,
			Cart:          cartService,
			Checkout:      checkoutService,
			Orders:        ordersService,
			Payments:      paymentsService,
			Reconciler:    reconciler,
			Subscriptions: subscriptionsService,
			Reviews:       reviewsService,
			Catalog:       catalogService,
			Profiles:      resolver,
			OAuth:         oauthFlow,
			Labels:        labelService,
			Registry:      registry,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "api server shutting down gracefully")
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}
}
