package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fastpay/fastpay-backend/internal/api"
	"github.com/fastpay/fastpay-backend/internal/auth"
	"github.com/fastpay/fastpay-backend/internal/config"
	"github.com/fastpay/fastpay-backend/internal/db"
	"github.com/fastpay/fastpay-backend/internal/gateway"
	"github.com/fastpay/fastpay-backend/internal/logger"
	"github.com/fastpay/fastpay-backend/internal/metrics"
	"github.com/fastpay/fastpay-backend/internal/pipeline"
	"github.com/fastpay/fastpay-backend/internal/repository/postgres"
	"github.com/fastpay/fastpay-backend/internal/risk"
	"github.com/fastpay/fastpay-backend/internal/services"
	"github.com/fastpay/fastpay-backend/internal/settlement"
	"github.com/fastpay/fastpay-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	metrics.Init()

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(cfg.WorkerCount)
	defer wp.Stop()

	seed := time.Now().UnixNano()
	riskEngine := risk.NewEngine(cfg.Risk, repos.Payments, risk.NewSeededModel(seed))
	router := settlement.NewRouter(cfg.Local, cfg.LocalCurrency)
	processor := settlement.NewProcessor(cfg.Local, cfg.Intl, settlement.NewSeededOutcomes(seed))

	coordinator := pipeline.NewCoordinator(
		repos.Payments, repos.Ledger,
		riskEngine, router, processor,
		wp, cfg.RunDeadline, log,
	)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, time.Hour, 30*24*time.Hour)
	gw := gateway.New(repos.Merchants, cfg.RatePerMinute)

	paymentSvc := services.NewPaymentService(repos.Payments, repos.Ledger, coordinator, cfg.LocalCurrency)
	merchantSvc := services.NewMerchantService(repos.Merchants, repos.QRCodes, tokens)
	analyticsSvc := services.NewAnalyticsService(repos.Payments)

	handler := api.NewRouter(api.RouterDeps{
		Gateway:      gw,
		PaymentSvc:   paymentSvc,
		MerchantSvc:  merchantSvc,
		AnalyticsSvc: analyticsSvc,
		Tokens:       tokens,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
