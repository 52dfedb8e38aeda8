package http

import (
	"clicker_empire/internal/config"
	"clicker_empire/internal/http/handlers"
	"clicker_empire/internal/http/middleware"
	"clicker_empire/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts health probes, metrics, the JSON API and the tap stream.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, hub *ws.Hub, cfg *config.Config) {
	r.Use(middleware.RequestID(), middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))
	registerAPIRoutes(v1, h, cfg)

	r.GET("/ws", h.WS(hub, cfg.AllowedOrigin))
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, cfg *config.Config) {
	api.POST("/auth", h.Auth)
	api.GET("/catalog", h.Catalog)

	player := api.Group("")
	player.Use(middleware.JWT())
	{
		player.GET("/state", h.State)
		player.POST("/sync", h.Sync)
		player.POST("/tap", middleware.TapRateLimit(cfg.TapRateLimit, cfg.TapRateWindow), h.Tap)
		player.GET("/offline", h.Offline)
		player.POST("/offline/claim", h.ClaimOffline)
		player.POST("/purchase", h.Purchase)
		player.POST("/energy/refill", h.RefillEnergy)
		player.POST("/boost", h.Boost)
		player.GET("/transactions", h.Transactions)
	}
}
