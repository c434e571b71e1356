package middleware

import (
	"net/http"

	"github.com/CarbonSMASH/push-relay/errors"
	"github.com/CarbonSMASH/push-relay/logger"
	"github.com/CarbonSMASH/push-relay/types"
	"github.com/gin-gonic/gin"
)

// ErrorHandler converts errors pushed onto the gin context into the
// relay's wire format: {"error": string} with the matching status code.
// Every failure is caught here; nothing beneath this boundary logs a
// response or retries.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		log := logger.GetLogger()

		if appError, ok := err.(*errors.AppError); ok {
			status := appError.GetHTTPStatus()

			log.Warnw("Request failed",
				"error_type", string(appError.Type),
				"status", status,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"client_ip", c.ClientIP(),
				"request_id", c.GetString(RequestIDKey),
				"detail", appError.Detail,
			)

			c.JSON(status, types.ErrorResponse{Error: appError.Message})
			return
		}

		// Unknown errors get a sanitized 500.
		log.Errorw("Unexpected server error",
			"error", err,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"request_id", c.GetString(RequestIDKey),
		)
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Internal server error"})
	}
}
