package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stwalsh4118/property-analyzer/internal/logger"
)

const (
	loggerKey        = "logger"
	requestLoggerKey = "request_logger"
)

// Logger creates a middleware that logs HTTP requests using structured logging.
// It captures request details, duration, status code, and any errors.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Child logger tagged with the request ID; Session adds the session ID
		requestLogger := log.WithRequestID(GetRequestID(c))
		c.Set(loggerKey, requestLogger)
		c.Set(requestLoggerKey, requestLogger)

		c.Next()

		// Pick up any session-scoped logger set downstream
		if scoped := GetLogger(c); scoped != nil {
			requestLogger = scoped
		}

		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}

		if len(c.Request.URL.RawQuery) > 0 {
			fields["query"] = c.Request.URL.RawQuery
		}
		if c.Request.ContentLength > 0 {
			fields["request_bytes"] = c.Request.ContentLength
		}

		statusCode := c.Writer.Status()
		switch {
		case statusCode >= 500:
			if len(c.Errors) > 0 {
				fields["errors"] = c.Errors.String()
			}
			requestLogger.Error("Request completed with server error", nil, fields)
		case statusCode >= 400:
			if len(c.Errors) > 0 {
				fields["errors"] = c.Errors.String()
			}
			requestLogger.Warn("Request completed with client error", fields)
		default:
			requestLogger.Info("Request completed", fields)
		}
	}
}

// GetLogger retrieves the logger from the Gin context.
// Returns nil if not found.
func GetLogger(c *gin.Context) *logger.Logger {
	return loggerFrom(c, loggerKey)
}

func loggerFrom(c *gin.Context, key string) *logger.Logger {
	if v, exists := c.Get(key); exists {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return nil
}
