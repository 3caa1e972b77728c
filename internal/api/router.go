package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"smartqueue-backend/config"
	"smartqueue-backend/internal/ml"
	"smartqueue-backend/internal/mw"
	"smartqueue-backend/internal/notify"
	"smartqueue-backend/internal/queue"
	"smartqueue-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, svc *queue.Service, s store.Store, mlClient *ml.Client, hub *notify.Hub, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(svc, s, mlClient, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 10*time.Minute)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"message": "Frontend and Backend connected"})
		})

		api.POST("/queue/join", handler.JoinQueue)
		api.GET("/queue", handler.ListQueue)
		api.PUT("/queue/:id/start", handler.StartServing)
		api.PUT("/queue/:id/complete", handler.CompleteServing)
		api.GET("/queue/prediction", handler.GetPrediction)
		api.GET("/queue/ws", hub.ServeWS)

		api.GET("/events", caching, handler.ListEvents)
		api.POST("/events", handler.CreateEvent)

		mlGroup := api.Group("/ml")
		{
			mlGroup.POST("/predict/waiting-time", handler.PredictWaitingTime)
			mlGroup.POST("/predict/queue-length", handler.PredictQueueLength)
			mlGroup.POST("/predict/no-show", handler.PredictNoShow)
			mlGroup.POST("/predict/peak-hours", handler.PredictPeakHours)
			mlGroup.GET("/status", handler.MLStatus)
		}

		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
