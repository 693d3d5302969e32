package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"dinaradmin/internal/access"
	"dinaradmin/internal/admin"
	"dinaradmin/internal/auth"
	"dinaradmin/internal/config"
	"dinaradmin/internal/db"
	"dinaradmin/internal/httpserver"
	"dinaradmin/internal/logging"
	"dinaradmin/internal/observability"
	"dinaradmin/internal/orders"
)

func main() {
	check := flag.Bool("check", false, "validate configuration, connect to the database and apply the schema, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *check); err != nil {
		logger.Error("dinaradmin stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, checkOnly bool) error {
	dbConn, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer dbConn.Close()

	if err := db.RunMigrations(ctx, dbConn, cfg.SchemaPath); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	rules := access.DefaultRules()
	if cfg.RulesPath != "" {
		if rules, err = access.LoadRules(cfg.RulesPath); err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
	}
	if checkOnly {
		logger.Info("pre-flight check passed", "rules", len(rules))
		return nil
	}

	adminStore := auth.NewStore(dbConn)
	seeded, err := adminStore.SeedFromFile(ctx, cfg.SeedPath)
	if err != nil {
		return fmt.Errorf("seed admins: %w", err)
	}
	if seeded > 0 {
		logger.Info("seeded admins", "count", seeded, "path", cfg.SeedPath)
	}

	metrics := observability.NewMetrics()
	issuer := auth.NewIssuer(cfg.SessionSecret, cfg.SessionTTL)
	authSvc := auth.NewService(adminStore, logger, auth.MultiAudit{auth.LogAudit{Logger: logger}, metrics})
	gate := access.NewGate(access.DefaultPaths(), rules)

	adminHandler, err := admin.NewHandler(logger, authSvc, issuer, gate, admin.CookieConfig{
		Name:     cfg.CookieName,
		Secure:   cfg.CookieSecure || cfg.IsProduction(),
		CSRFName: cfg.CSRFCookie,
		Secret:   cfg.SessionSecret,
	})
	if err != nil {
		return fmt.Errorf("admin handler: %w", err)
	}

	router := httpserver.NewRouter(httpserver.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Gate:    gate,
		Issuer:  issuer,
		Admin:   adminHandler,
		Orders:  orders.NewHandler(orders.NewStore(dbConn), logger),
		Metrics: metrics,
		DB:      dbConn,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.New("admin", cfg.HTTPAddr, cfg.RequestTimeout, router, logger).Run(gctx)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return httpserver.New("metrics", cfg.MetricsAddr, cfg.RequestTimeout, httpserver.NewMetricsRouter(metrics), logger).Run(gctx)
		})
	}
	return g.Wait()
}
