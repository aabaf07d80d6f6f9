package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CHECKOUT_PROVIDER", "")
	t.Setenv("PRORATION_REMOTE_TIMEOUT", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("CATALOG_CACHE_ENABLED", "")

	cfg := Load()

	assert.Equal(t, CheckoutProviderFunctions, cfg.CheckoutProvider)
	assert.Equal(t, 5*time.Second, cfg.ProrationRemoteTimeout)
	assert.True(t, cfg.CatalogCacheEnabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CHECKOUT_PROVIDER", " Stripe ")
	t.Setenv("PRORATION_REMOTE_TIMEOUT", "750ms")
	t.Setenv("CHECKOUT_TIMEOUT", "20")
	t.Setenv("CATALOG_CACHE_ENABLED", "off")
	t.Setenv("DB_MAX_OPEN_CONN", "not-a-number")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, CheckoutProviderStripe, cfg.CheckoutProvider)
	assert.Equal(t, 750*time.Millisecond, cfg.ProrationRemoteTimeout)
	assert.Equal(t, 20*time.Second, cfg.CheckoutTimeout)
	assert.False(t, cfg.CatalogCacheEnabled)
	assert.Equal(t, 50, cfg.DBMaxOpenConn)
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{
		DBUser:     "u",
		DBPassword: "p",
		DBHost:     "db",
		DBPort:     "5432",
		DBName:     "plans",
		DBSSLMode:  "disable",
	}

	assert.Equal(t, "postgres://u:p@db:5432/plans?sslmode=disable", cfg.DatabaseURL())
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=plans sslmode=disable", cfg.DSN())
}
