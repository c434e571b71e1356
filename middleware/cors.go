package middleware

import (
	"net/http"
	"strings"

	"github.com/CarbonSMASH/push-relay/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	allowMethods = []string{"POST", "OPTIONS"}
	allowHeaders = []string{"Content-Type"}
)

// CORSMiddleware creates a middleware for handling CORS with the given
// configuration. With the default wildcard origin, every response
// (success or failure, with or without an Origin header) carries
// Access-Control-Allow-Origin: *, and OPTIONS requests short-circuit to
// an empty pre-flight response. Browser extension pages and the desktop
// app both omit Origin, so the headers cannot be conditional on it.
func CORSMiddleware(cfg *config.ServerConfig) gin.HandlerFunc {
	if len(cfg.AllowedOrigins) > 0 && !containsOrigin(cfg.AllowedOrigins, "*") {
		// Restricted-origin deployments delegate to gin-contrib/cors,
		// which handles per-origin echo and Vary correctly.
		return cors.New(cors.Config{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: allowMethods,
			AllowHeaders: allowHeaders,
		})
	}

	methods := strings.Join(allowMethods, ", ")
	headers := strings.Join(allowHeaders, ", ")

	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// containsOrigin checks if a string is present in the allowed origins slice.
func containsOrigin(s []string, str string) bool {
	for _, v := range s {
		if v == str {
			return true
		}
	}
	return false
}
