package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the configured origins to drive the upload API from another
// page. Credentials are allowed so the session cookie travels with them.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", RequestIDHeader, SessionIDHeader},
		ExposeHeaders:    []string{RequestIDHeader, SessionIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
