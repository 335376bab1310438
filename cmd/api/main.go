package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/farhanmajid/bazario-backend/api/routes"
	authsvc "github.com/farhanmajid/bazario-backend/internal/auth"
	"github.com/farhanmajid/bazario-backend/internal/cart"
	"github.com/farhanmajid/bazario-backend/internal/catalog"
	"github.com/farhanmajid/bazario-backend/internal/companies"
	"github.com/farhanmajid/bazario-backend/internal/invites"
	"github.com/farhanmajid/bazario-backend/internal/orders"
	"github.com/farhanmajid/bazario-backend/internal/users"
	"github.com/farhanmajid/bazario-backend/pkg/auth/session"
	"github.com/farhanmajid/bazario-backend/pkg/config"
	"github.com/farhanmajid/bazario-backend/pkg/db"
	"github.com/farhanmajid/bazario-backend/pkg/logger"
	"github.com/farhanmajid/bazario-backend/pkg/metrics"
	"github.com/farhanmajid/bazario-backend/pkg/migrate"
	"github.com/farhanmajid/bazario-backend/pkg/outbox"
	"github.com/farhanmajid/bazario-backend/pkg/redis"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gdb), logg)

	userRepo := users.NewRepository(gdb)
	companyRepo := companies.NewRepository(gdb)

	authService, err := authsvc.NewService(userRepo, companyRepo, dbClient, sessionManager, cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(userRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	companiesService, err := companies.NewService(companyRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create company service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(gdb))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.NewRepository(gdb), dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.NewRepository(gdb), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	tokenStore, err := invites.NewTokenStore(redisClient, cfg.Invites.TokenTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create invite token store", err)
		os.Exit(1)
	}
	mailer, err := invites.NewLogMailer(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create invite mailer", err)
		os.Exit(1)
	}
	invitesService, err := invites.NewService(userRepo, tokenStore, dbClient, outboxSvc, mailer, cfg.Invites, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create invite service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

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
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Sessions:     sessionManager,
			Registry:     registry,
			HTTPMetrics:  httpMetrics,
			AuthSvc:      authService,
			UsersSvc:     usersService,
			CatalogSvc:   catalogService,
			CompaniesSvc: companiesService,
			OrdersSvc:    ordersService,
			CartSvc:      cartService,
			InvitesSvc:   invitesService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
