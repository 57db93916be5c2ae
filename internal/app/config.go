package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Catalog drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (VALUATION_ prefix), flags, or YAML config files.
type Config struct {
	Addr     string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Catalog  CatalogConfig
	Cache    CacheConfig
	Graceful GracefulConfig
}

// CatalogConfig selects where products are read from.
type CatalogConfig struct {
	Driver      string `default:"memory" usage:"Catalog backend: memory or postgres"`
	DatabaseURL string `usage:"PostgreSQL connection URL (VALUATION_CATALOG_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	SeedFile    string `default:"db/seed/products.jsonl" usage:"Product feed loaded by the memory driver" flag:"seed-file"`
}

// CacheConfig controls the optional Redis read-through cache.
type CacheConfig struct {
	Enabled bool          `default:"false" usage:"Cache catalog lookups in Redis" flag:"cache"`
	Addr    string        `usage:"Redis URL (redis://host:port/db) or REDIS_URL" flag:"redis-url"`
	TTL     time.Duration `default:"5m" usage:"Cached product expiry" flag:"cache-ttl"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from a local .env file, environment
// variables, and YAML config files, then applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "VALUATION",
		Files:     []string{"config.yaml", "/etc/valuation/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration that cannot be started.
func (c *Config) Validate() error {
	switch c.Catalog.Driver {
	case DriverMemory:
		if c.Catalog.SeedFile == "" {
			return errors.New("seed file is required for the memory catalog")
		}
	case DriverPostgres:
		if c.Catalog.DatabaseURL == "" {
			return errors.New("database URL is required: set VALUATION_CATALOG_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown catalog driver %q", c.Catalog.Driver)
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return errors.New("redis URL is required when the cache is enabled")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's VALUATION_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Catalog.DatabaseURL == "" {
		c.Catalog.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Cache.Addr == "" {
		c.Cache.Addr = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
