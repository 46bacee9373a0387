package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/stuvendor/stuvendor-backend/api/routes"
	"github.com/stuvendor/stuvendor-backend/internal/accounts"
	authsvc "github.com/stuvendor/stuvendor-backend/internal/auth"
	"github.com/stuvendor/stuvendor-backend/internal/identity"
	"github.com/stuvendor/stuvendor-backend/internal/ledger"
	"github.com/stuvendor/stuvendor-backend/internal/orders"
	"github.com/stuvendor/stuvendor-backend/internal/payouts"
	"github.com/stuvendor/stuvendor-backend/internal/vendors"
	"github.com/stuvendor/stuvendor-backend/internal/withdrawals"
	"github.com/stuvendor/stuvendor-backend/pkg/config"
	"github.com/stuvendor/stuvendor-backend/pkg/db"
	"github.com/stuvendor/stuvendor-backend/pkg/env"
	"github.com/stuvendor/stuvendor-backend/pkg/flutterwave"
	"github.com/stuvendor/stuvendor-backend/pkg/logger"
	"github.com/stuvendor/stuvendor-backend/pkg/metrics"
	"github.com/stuvendor/stuvendor-backend/pkg/migrate"
	"github.com/stuvendor/stuvendor-backend/pkg/redis"
)

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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	withdrawalMetrics := metrics.NewWithdrawalMetrics(registry)

	flwClient, err := flutterwave.NewClient(context.Background(), cfg.Flutterwave, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap flutterwave client", err)
		os.Exit(1)
	}

	accountsRepo := accounts.NewRepository(dbClient.DB())
	vendorsRepo := vendors.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())

	resolver, err := identity.NewResolver(cfg.JWT, accountsRepo, vendorsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create identity resolver", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		Accounts: accountsRepo,
		JWT:      cfg.JWT,
		Password: cfg.Password,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	vendorService, err := vendors.NewService(dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create vendor service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.ServiceParams{Repo: ledgerRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	payoutService, err := payouts.NewService(payouts.ServiceParams{
		DB:     dbClient,
		Ledger: ledgerRepo,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout service", err)
		os.Exit(1)
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		DB:      dbClient,
		Repo:    orders.NewRepository(dbClient.DB()),
		Payouts: payoutService,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	withdrawalService, err := withdrawals.NewService(withdrawals.ServiceParams{
		DB:        dbClient,
		Vendors:   vendorsRepo,
		Ledger:    ledgerRepo,
		LedgerSvc: ledgerService,
		Provider:  flwClient,
		Metrics:   withdrawalMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create withdrawal service", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Registry:    registry,
			Resolver:    resolver,
			Accounts:    accountsRepo,
			Auth:        authService,
			Vendors:     vendorService,
			Ledger:      ledgerService,
			Withdrawals: withdrawalService,
			Orders:      orderService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
