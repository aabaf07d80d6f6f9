package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/railzwaylabs/planchange/internal/adapter/billing/functions"
	"github.com/railzwaylabs/planchange/internal/adapter/billing/stripe"
	"github.com/railzwaylabs/planchange/internal/adapter/repository/postgres"
	"github.com/railzwaylabs/planchange/internal/catalog"
	"github.com/railzwaylabs/planchange/internal/config"
	"github.com/railzwaylabs/planchange/internal/domain/billing"
	"github.com/railzwaylabs/planchange/internal/domain/plan"
	"github.com/railzwaylabs/planchange/internal/domain/subscription"
	"github.com/railzwaylabs/planchange/internal/planchange"
	"github.com/railzwaylabs/planchange/internal/proration"
	"github.com/railzwaylabs/planchange/pkg/billingclient"
	"github.com/railzwaylabs/planchange/pkg/metrics"
	"github.com/railzwaylabs/planchange/pkg/snowflake"
)

// newMetrics registers on the default registry served at /metrics.
func newMetrics() *metrics.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// newRedisClient returns nil when no catalog Redis is configured.
func newRedisClient(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.CatalogCacheEnabled || cfg.CatalogRedisAddr == "" {
		return nil, nil
	}

	client, err := catalog.NewRedisClient(context.Background(), cfg.CatalogRedisAddr, cfg.CatalogRedisPassword, cfg.CatalogRedisDB)
	if err != nil {
		return nil, fmt.Errorf("connect catalog redis: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	logger.Info("catalog cache uses redis", zap.String("addr", cfg.CatalogRedisAddr))
	return client, nil
}

// newCatalog wraps the plan table in the configured cache. A disabled cache
// passes every read through.
func newCatalog(cfg *config.Config, repo *postgres.PlanRepository, rdb *redis.Client, logger *zap.Logger) *catalog.Cached {
	var cache catalog.Cache
	switch {
	case !cfg.CatalogCacheEnabled:
		cache = catalog.NewMemoryCache(0, 0)
	case rdb != nil:
		cache = catalog.NewRedisCache(rdb, cfg.CatalogRedisKeyPrefix, cfg.CatalogCacheTTL)
	default:
		cache = catalog.NewMemoryCache(cfg.CatalogCacheSize, cfg.CatalogCacheTTL)
	}
	return catalog.NewCached(repo, cache, logger)
}

// newProrationProvider prefers the billing functions when they are
// configured and always falls back to the local calculation.
func newProrationProvider(cfg *config.Config, client *billingclient.Client, cat plan.Catalog, logger *zap.Logger, m *metrics.Metrics) proration.Provider {
	var primary proration.Provider
	if client.Configured() {
		primary = functions.NewCalculator(client)
	} else {
		logger.Warn("billing functions not configured, proration is calculated locally")
	}
	return proration.NewFallback(primary, proration.NewLocal(cat), cfg.ProrationRemoteTimeout, logger, m)
}

var errCheckoutNotConfigured = errors.New("checkout provider not configured")

func newCheckoutProvider(cfg *config.Config, client *billingclient.Client) (billing.CheckoutProvider, error) {
	switch cfg.CheckoutProvider {
	case config.CheckoutProviderStripe:
		if cfg.StripeSecretKey == "" || cfg.StripeSuccessURL == "" || cfg.StripeCancelURL == "" {
			return nil, fmt.Errorf("%w: stripe needs STRIPE_SECRET_KEY, STRIPE_SUCCESS_URL and STRIPE_CANCEL_URL", errCheckoutNotConfigured)
		}
		return stripe.NewCheckout(stripe.Config{
			SecretKey:  cfg.StripeSecretKey,
			SuccessURL: cfg.StripeSuccessURL,
			CancelURL:  cfg.StripeCancelURL,
			APIURL:     cfg.StripeAPIURL,
		}), nil
	case config.CheckoutProviderFunctions, "":
		if !client.Configured() {
			return nil, fmt.Errorf("%w: BILLING_FUNCTIONS_URL is empty", errCheckoutNotConfigured)
		}
		return functions.NewCheckout(client), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", errCheckoutNotConfigured, cfg.CheckoutProvider)
	}
}

func newStore(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *planchange.Store {
	return planchange.NewStore(cfg.FlowTTL, logger, m)
}

func newOrchestrator(
	cfg *config.Config,
	cat plan.Catalog,
	subscriptions subscription.Repository,
	calculator proration.Provider,
	checkout billing.CheckoutProvider,
	store *planchange.Store,
	node *snowflake.Node,
	logger *zap.Logger,
	m *metrics.Metrics,
) *planchange.Orchestrator {
	return planchange.NewOrchestrator(
		cat,
		subscriptions,
		calculator,
		checkout,
		store,
		node,
		planchange.Config{CheckoutTimeout: cfg.CheckoutTimeout},
		logger,
		m,
	)
}
