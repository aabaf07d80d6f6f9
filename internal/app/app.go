package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/railzwaylabs/planchange/internal/adapter/repository/postgres"
	"github.com/railzwaylabs/planchange/internal/api"
	"github.com/railzwaylabs/planchange/internal/auth"
	"github.com/railzwaylabs/planchange/internal/config"
	"github.com/railzwaylabs/planchange/internal/domain/plan"
	"github.com/railzwaylabs/planchange/internal/domain/subscription"
	"github.com/railzwaylabs/planchange/internal/planchange"
	"github.com/railzwaylabs/planchange/pkg/billingclient"
	"github.com/railzwaylabs/planchange/pkg/db"
	zaplog "github.com/railzwaylabs/planchange/pkg/log"
	"github.com/railzwaylabs/planchange/pkg/snowflake"
	"github.com/railzwaylabs/planchange/sql/migrations"
)

// Options is the dependency graph of the server.
func Options() fx.Option {
	return fx.Options(
		fx.Provide(
			// Config
			config.Load,
			newMetrics,

			// Infrastructure (Adapters)
			billingclient.NewFromEnv,
			newRedisClient,

			// Domain Adapters (Bind Interfaces)
			postgres.NewPlanRepository,
			fx.Annotate(
				postgres.NewSubscriptionRepository,
				fx.As(new(subscription.Repository)),
			),
			fx.Annotate(
				newCatalog,
				fx.As(new(plan.Catalog)),
				fx.As(new(api.CatalogInvalidator)),
			),
			newProrationProvider,
			newCheckoutProvider,

			// Plan change flows
			newStore,
			newOrchestrator,

			// Auth
			auth.NewMiddleware,

			// API
			api.NewRouter,
		),
		db.Module,        // Database Module
		snowflake.Module, // Snowflake ID Module
		zaplog.Module,    // Logger Module
		fx.Invoke(registerHooks),
	)
}

// RunServer starts the HTTP server and the flow janitor.
func RunServer() {
	fx.New(
		Options(),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
	).Run()
}

// RunMigrations executes database migrations (up or down).
func RunMigrations(command string) error {
	if command == "" {
		command = "up"
	}

	cfg := config.Load()
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting database migration...", zap.String("command", command))

	applied, err := migrations.Apply(cfg.DatabaseURL(), command)
	if err != nil {
		return err
	}
	if !applied {
		logger.Info("No changes to apply")
		return nil
	}

	logger.Info("Migration applied successfully", zap.String("command", command))
	return nil
}

func registerHooks(lc fx.Lifecycle, cfg *config.Config, router *api.Router, store *planchange.Store, logger *zap.Logger) {
	var janitorCancel context.CancelFunc

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting HTTP server", zap.String("port", cfg.Port))

			janitorCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
			janitorCancel = cancel
			go store.Run(janitorCtx, cfg.FlowSweepInterval)

			go func() {
				if err := router.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("Server failed to start", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server gracefully...")

			if janitorCancel != nil {
				janitorCancel()
			}

			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			if err := router.Shutdown(shutdownCtx); err != nil {
				logger.Error("Server forced to shutdown", zap.Error(err))
				return err
			}

			logger.Info("HTTP server stopped gracefully")
			return nil
		},
	})
}
