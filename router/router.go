package router

import (
	"net/http"
	"time"

	"github.com/CarbonSMASH/push-relay/config"
	"github.com/CarbonSMASH/push-relay/handlers"
	"github.com/CarbonSMASH/push-relay/middleware"
	"github.com/CarbonSMASH/push-relay/types"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Dependencies struct holds all dependencies required for setting up routes.
type Dependencies struct {
	Config        *config.Config
	RelayHandler  *handlers.RelayHandler
	HealthHandler *handlers.HealthHandler
	// RedisClient backs the optional rate limiter; unused when rate
	// limiting is disabled.
	RedisClient *redis.Client
}

// SetupRouter configures and returns the main Gin engine with all routes defined.
func SetupRouter(deps Dependencies) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware. CORS runs for matched routes and for the
	// NoRoute/NoMethod chains alike, so every response carries the
	// cross-origin headers and OPTIONS pre-flights short-circuit to 204
	// on any path.
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(&deps.Config.Server))

	// Unknown paths and wrong methods answer in the relay's wire format.
	r.HandleMethodNotAllowed = true
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "Not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, types.ErrorResponse{Error: "Method not allowed"})
	})

	// Health and metrics routes
	r.GET("/health", deps.HealthHandler.DetailedHealth)
	r.GET("/health/liveness", deps.HealthHandler.LivenessCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Relay routes
	relay := r.Group("")
	if deps.Config.RateLimit.Enabled && deps.RedisClient != nil {
		relay.Use(middleware.RelayRateLimiter(
			deps.RedisClient,
			deps.Config.RateLimit.RequestsPerMinute,
			time.Duration(deps.Config.RateLimit.WindowSeconds)*time.Second,
		))
	}
	{
		relay.POST("/register", deps.RelayHandler.Register)
		relay.POST("/unregister", deps.RelayHandler.Unregister)
		relay.POST("/push", deps.RelayHandler.Push)
	}

	return r
}
