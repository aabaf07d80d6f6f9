package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Checkout provider names.
const (
	CheckoutProviderFunctions = "functions"
	CheckoutProviderStripe    = "stripe"
)

// Config holds application configuration.
type Config struct {
	AppName    string
	AppVersion string
	Port       string

	Environment   string
	AuthJWTSecret string
	AdminAPIToken string

	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	// Catalog cache. Redis is used when an address is set, otherwise an
	// in-process cache.
	CatalogCacheEnabled   bool
	CatalogCacheTTL       time.Duration
	CatalogCacheSize      int
	CatalogRedisAddr      string
	CatalogRedisPassword  string
	CatalogRedisDB        int
	CatalogRedisKeyPrefix string

	// Plan change flows.
	ProrationRemoteTimeout time.Duration
	CheckoutTimeout        time.Duration
	FlowTTL                time.Duration
	FlowSweepInterval      time.Duration

	CheckoutProvider string
	StripeSecretKey  string
	StripeAPIURL     string
	StripeSuccessURL string
	StripeCancelURL  string

	StaticDir string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:       getenv("APP_SERVICE", "planchange"),
		AppVersion:    getenv("APP_VERSION", "0.1.0"),
		Port:          getenv("PORT", "8080"),
		Environment:   getenv("ENVIRONMENT", "development"),
		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		AdminAPIToken: strings.TrimSpace(getenv("ADMIN_API_TOKEN", "")),

		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            getenv("DB_PORT", "5432"),
		DBName:            getenv("DB_NAME", "planchange"),
		DBUser:            getenv("DB_USER", "postgres"),
		DBPassword:        getenv("DB_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DB_SSL_MODE", "disable"),
		DBMaxIdleConn:     getenvInt("DB_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DB_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DB_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DB_CONN_MAX_IDLE_TIME", 60),

		CatalogCacheEnabled:   getenvBool("CATALOG_CACHE_ENABLED", true),
		CatalogCacheTTL:       getenvDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		CatalogCacheSize:      getenvInt("CATALOG_CACHE_SIZE", 256),
		CatalogRedisAddr:      strings.TrimSpace(getenv("CATALOG_REDIS_ADDR", "")),
		CatalogRedisPassword:  strings.TrimSpace(getenv("CATALOG_REDIS_PASSWORD", "")),
		CatalogRedisDB:        getenvInt("CATALOG_REDIS_DB", 0),
		CatalogRedisKeyPrefix: getenv("CATALOG_REDIS_KEY_PREFIX", "planchange:catalog:"),

		ProrationRemoteTimeout: getenvDuration("PRORATION_REMOTE_TIMEOUT", 5*time.Second),
		CheckoutTimeout:        getenvDuration("CHECKOUT_TIMEOUT", 15*time.Second),
		FlowTTL:                getenvDuration("PLAN_CHANGE_FLOW_TTL", 30*time.Minute),
		FlowSweepInterval:      getenvDuration("PLAN_CHANGE_FLOW_SWEEP_INTERVAL", time.Minute),

		CheckoutProvider: strings.ToLower(strings.TrimSpace(getenv("CHECKOUT_PROVIDER", CheckoutProviderFunctions))),
		StripeSecretKey:  strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
		StripeAPIURL:     strings.TrimSpace(getenv("STRIPE_API_URL", "")),
		StripeSuccessURL: strings.TrimSpace(getenv("STRIPE_SUCCESS_URL", "")),
		StripeCancelURL:  strings.TrimSpace(getenv("STRIPE_CANCEL_URL", "")),

		StaticDir: getenv("STATIC_DIR", ""),
	}

	return &cfg
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DatabaseURL builds the postgres URL used by migrations.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// DSN builds the keyword/value connection string used by gorm.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost,
		c.DBPort,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		c.DBSSLMode,
	)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// getenvDuration accepts Go durations ("90s") and bare integers as seconds.
func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
