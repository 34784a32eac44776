package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mebelin-be/internal/cart"
	"mebelin-be/internal/checkout"
	"mebelin-be/internal/config"
	"mebelin-be/internal/coupon"
	"mebelin-be/internal/db"
	"mebelin-be/internal/httpapi"
	"mebelin-be/internal/logger"
	"mebelin-be/internal/order"
	"mebelin-be/internal/product"
	"mebelin-be/internal/settings"
	"mebelin-be/internal/shipping"

	"go.uber.org/zap"
)

// Overridable for tests.
var (
	initDBFunc = func(cfg *config.Config) (*sql.DB, error) {
		return db.NewDatabase(cfg)
	}
	startServerFunc = func(srv *http.Server) error {
		return srv.ListenAndServe()
	}
)

// buildApp wires repositories, services, and the router.
func buildApp(cfg *config.Config, database *sql.DB) (http.Handler, *order.Sweeper) {
	productRepo := product.NewRepository(database)

	cartRepo := cart.NewRepository(database)
	cartSvc := cart.NewService(cartRepo, productRepo)

	couponRepo := coupon.NewRepository(database)
	couponValidator := coupon.NewValidator(couponRepo)

	settingsRepo := settings.NewRepository(database)
	shippingQuoter := shipping.NewQuoter()

	checkoutRepo := checkout.NewRepository(database)
	checkoutSvc := checkout.NewService(
		checkoutRepo,
		cartRepo,
		productRepo,
		couponValidator,
		shippingQuoter,
		settingsRepo,
		cfg.DefaultCourier,
	)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, productRepo)

	sweeper := order.NewSweeper(orderSvc, cfg.SweepInterval, cfg.PaymentDeadline)

	router := httpapi.NewRouter(cartSvc, checkoutSvc, orderSvc, cfg.JWTSecret)
	return router, sweeper
}

func run() error {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database, err := initDBFunc(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	handler, sweeper := buildApp(cfg, database)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("server listening", zap.String("port", cfg.AppPort))
	if err := startServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.Info("server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server exited", zap.Error(err))
	}
}
