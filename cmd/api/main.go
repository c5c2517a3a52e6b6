package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/rtavares/movelaria-backend/api/routes"
	"github.com/rtavares/movelaria-backend/internal/cart"
	"github.com/rtavares/movelaria-backend/internal/catalog"
	"github.com/rtavares/movelaria-backend/internal/checkout"
	"github.com/rtavares/movelaria-backend/internal/consignment"
	"github.com/rtavares/movelaria-backend/internal/ledger"
	"github.com/rtavares/movelaria-backend/internal/orders"
	"github.com/rtavares/movelaria-backend/internal/parties"
	"github.com/rtavares/movelaria-backend/internal/stock"
	"github.com/rtavares/movelaria-backend/pkg/config"
	"github.com/rtavares/movelaria-backend/pkg/db"
	"github.com/rtavares/movelaria-backend/pkg/logger"
	"github.com/rtavares/movelaria-backend/pkg/migrate"
	"github.com/rtavares/movelaria-backend/pkg/redis"
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

	svcs, err := buildServices(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Services, error) {
	gdb := dbClient.DB()

	catalogRepo := catalog.NewRepository(gdb)
	stockRepo := stock.NewRepository(gdb)
	cartRepo := cart.NewRepository(gdb)
	ordersRepo := orders.NewRepository(gdb)
	ledgerRepo := ledger.NewRepository(gdb)
	partiesRepo := parties.NewRepository(gdb)

	catalogSvc, err := catalog.NewService(catalogRepo, stockRepo)
	if err != nil {
		return routes.Services{}, err
	}
	cartSvc, err := cart.NewService(cartRepo, catalogSvc, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	consignmentSvc, err := consignment.NewService(cartRepo, stockRepo)
	if err != nil {
		return routes.Services{}, err
	}
	ordersSvc, err := orders.NewService(ordersRepo, ledgerRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	partiesSvc, err := parties.NewService(partiesRepo)
	if err != nil {
		return routes.Services{}, err
	}
	ledgerSvc, err := ledger.NewService(ledgerRepo)
	if err != nil {
		return routes.Services{}, err
	}
	checkoutSvc, err := checkout.NewService(
		cartRepo,
		ordersRepo,
		ledgerRepo,
		partiesRepo,
		dbClient,
		redisClient,
		cfg.Checkout.FinalizeIdempotencyTTL,
		logg,
	)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Catalog:     catalogSvc,
		Stock:       stockRepo,
		Cart:        cartSvc,
		Consignment: consignmentSvc,
		Checkout:    checkoutSvc,
		Orders:      ordersSvc,
		Parties:     partiesSvc,
		Ledger:      ledgerSvc,
	}, nil
}
