package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clicker_empire/internal/config"
	"clicker_empire/internal/db"
	httpServer "clicker_empire/internal/http"
	"clicker_empire/internal/http/handlers"
	"clicker_empire/internal/http/middleware"
	"clicker_empire/internal/logger"
	"clicker_empire/internal/repository"
	"clicker_empire/internal/service"
	"clicker_empire/internal/ws"

	"github.com/gin-gonic/gin"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	catalog, err := cfg.Catalog()
	if err != nil {
		logger.Fatal("load catalog", "path", cfg.CatalogPath, "error", err)
	}

	store, ping, closeStore := openStore(cfg)
	defer closeStore()

	players := service.NewPlayerService(store, catalog, cfg.Rules(), service.WithMaxRetries(cfg.MaxSaveRetries))

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	if !cfg.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || cfg.AllowedOrigin == "*" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	h := handlers.NewHandler(players, cfg.BotToken, cfg.DevMode)
	health := handlers.NewHealthHandler(ping, cfg.Storage, version)
	hub := ws.NewHub(players, cfg.TapRateLimit, cfg.TapRateWindow)
	httpServer.RegisterRoutes(r, h, health, hub, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "storage", cfg.Storage, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	hub.Shutdown(ctx)

	logger.Info("server exited")
}

// openStore picks the player store named by STORAGE.
func openStore(cfg *config.Config) (repository.PlayerStore, handlers.PingFunc, func()) {
	switch cfg.Storage {
	case config.StorageSQLite:
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("open sqlite", "path", cfg.SQLitePath, "error", err)
		}
		return repository.NewSQLiteStore(sqlDB), sqlDB.PingContext, func() { _ = sqlDB.Close() }
	case config.StorageMemory:
		logger.Warn("using in-memory storage, progress is lost on restart")
		return repository.NewMemoryStore(), nil, func() {}
	default:
		pool := db.Connect(cfg.DatabaseURL)
		return repository.NewPlayerRepository(pool), pool.Ping, pool.Close
	}
}
