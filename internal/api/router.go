package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"parking-status-backend/config"
	"parking-status-backend/internal/mw"
	"parking-status-backend/internal/relay"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(svc Services, cfg config.Config) *gin.Engine {
	r := gin.Default()
	handler := NewHandler(svc)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	r.GET("/healthz", handler.Healthz)
	r.GET("/ws", relay.NewHandler(svc.Relay, cfg.Relay.WriteTimeout).ServeWS)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/slots", handler.GetSlots)
		api.PUT("/slots", handler.PutSlots)
		api.GET("/slots/:slot_id", handler.GetSlot)
		api.PUT("/slots/:slot_id/occupancy", handler.PutSlotOccupancy)

		api.GET("/reservations", handler.GetReservations)
		api.POST("/reservations", handler.CreateReservation)

		api.GET("/snapshot", handler.GetSnapshot)
		api.GET("/history", caching, handler.GetHistory)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
