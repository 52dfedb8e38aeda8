package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"clicker_empire/internal/economy"
	"clicker_empire/internal/logger"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
)

type Config struct {
	AppPort       string
	Storage       string
	DatabaseURL   string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	JWTSecret     string
	BotToken      string
	DevMode       bool
	LogLevel      string
	LogJSON       bool
	AllowedOrigin string
	CatalogPath   string

	// Economy knobs
	StartingBalance int64
	RegenPerMinute  int64
	RefillsPerDay   int
	OfflineCap      time.Duration
	OfflineUnlock   bool
	SessionGap      time.Duration
	BoostCost       int64
	BoostDuration   time.Duration
	MaxSaveRetries  int

	// Rate limits
	TapRateLimit  int
	TapRateWindow time.Duration
	APIRateLimit  int
	APIRateWindow time.Duration
}

// Load reads .env and the environment, exiting on invalid configuration.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Parse(os.Getenv)
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

// Parse builds a Config from a lookup function such as os.Getenv.
func Parse(getenv func(string) string) (*Config, error) {
	e := env{get: getenv}
	defaults := economy.DefaultRules()

	cfg := &Config{
		AppPort:       e.String("APP_PORT", "8080"),
		Storage:       e.String("STORAGE", StoragePostgres),
		DatabaseURL:   getenv("DATABASE_URL"),
		SQLitePath:    e.String("SQLITE_PATH", "clicker.db"),
		RedisAddr:     getenv("REDIS_ADDR"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		RedisDB:       e.Int("REDIS_DB", 0),
		JWTSecret:     getenv("JWT_SECRET"),
		BotToken:      getenv("BOT_TOKEN"),
		DevMode:       getenv("DEV_MODE") == "true",
		LogLevel:      e.String("LOG_LEVEL", "info"),
		LogJSON:       getenv("LOG_JSON") == "true",
		AllowedOrigin: getenv("ALLOWED_ORIGIN"),
		CatalogPath:   getenv("CATALOG_PATH"),

		StartingBalance: e.Int64("STARTING_BALANCE", defaults.StartingBalance),
		RegenPerMinute:  e.Int64("ENERGY_REGEN_PER_MINUTE", defaults.RegenPerMinute),
		RefillsPerDay:   e.Int("REFILLS_PER_DAY", defaults.RefillsPerDay),
		OfflineCap:      time.Duration(e.Int("OFFLINE_CAP_HOURS", int(defaults.Offline.MaxDuration/time.Hour))) * time.Hour,
		OfflineUnlock:   e.Bool("OFFLINE_REQUIRES_UNLOCK", defaults.Offline.RequiresUnlock),
		SessionGap:      time.Duration(e.Int("SESSION_GAP_SECONDS", int(defaults.Offline.SessionGap/time.Second))) * time.Second,
		BoostCost:       e.Int64("BOOST_COST", defaults.Boost.Cost),
		BoostDuration:   time.Duration(e.Int("BOOST_SECONDS", int(defaults.Boost.Duration/time.Second))) * time.Second,
		MaxSaveRetries:  e.Int("MAX_SAVE_RETRIES", 3),

		TapRateLimit:  e.Int("TAP_RATE_LIMIT", 20),
		TapRateWindow: time.Duration(e.Int("TAP_RATE_WINDOW", 1)) * time.Second,
		APIRateLimit:  e.Int("API_RATE_LIMIT", 120),
		APIRateWindow: time.Duration(e.Int("API_RATE_WINDOW", 60)) * time.Second,
	}

	if e.err != nil {
		return nil, e.err
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if cfg.BotToken == "" && !cfg.DevMode {
		return nil, errors.New("BOT_TOKEN is not set")
	}
	switch cfg.Storage {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is not set")
		}
	case StorageSQLite, StorageMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE %q", cfg.Storage)
	}
	if cfg.MaxSaveRetries < 1 {
		cfg.MaxSaveRetries = 1
	}
	return cfg, nil
}

// Rules converts the economy knobs into engine rules.
func (c *Config) Rules() economy.Rules {
	return economy.Rules{
		StartingBalance: c.StartingBalance,
		RegenPerMinute:  c.RegenPerMinute,
		RefillsPerDay:   c.RefillsPerDay,
		Offline: economy.OfflinePolicy{
			MaxDuration:    c.OfflineCap,
			RequiresUnlock: c.OfflineUnlock,
			SessionGap:     c.SessionGap,
		},
		Boost: economy.BoostRules{
			Cost:     c.BoostCost,
			Duration: c.BoostDuration,
		},
	}
}

// Catalog loads CATALOG_PATH or falls back to the built-in catalog.
func (c *Config) Catalog() (*economy.Catalog, error) {
	if c.CatalogPath == "" {
		return economy.DefaultCatalog(), nil
	}
	return economy.LoadCatalog(c.CatalogPath)
}

// env collects the first parse error so Parse can report it once.
type env struct {
	get func(string) string
	err error
}

func (e *env) String(key, def string) string {
	if v := e.get(key); v != "" {
		return v
	}
	return def
}

func (e *env) Int64(key string, def int64) int64 {
	v := e.get(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		if e.err == nil {
			e.err = fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
		}
		return def
	}
	return n
}

func (e *env) Int(key string, def int) int {
	return int(e.Int64(key, int64(def)))
}

func (e *env) Bool(key string, def bool) bool {
	v := e.get(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		if e.err == nil {
			e.err = fmt.Errorf("%s must be a boolean, got %q", key, v)
		}
		return def
	}
	return b
}
