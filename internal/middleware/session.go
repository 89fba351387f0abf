package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stwalsh4118/property-analyzer/internal/session"
)

const (
	// SessionCookie holds the page session ID for browsers.
	SessionCookie = "pa_session"
	// SessionIDHeader carries the page session ID for API clients without cookies.
	SessionIDHeader = "X-Session-ID"
	// PageKey is the context key for the current *session.Page.
	PageKey = "page"
)

// Session resolves the caller's page session, creating one when the cookie
// or header is missing or refers to an expired session.
func Session(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionIDHeader)
		if id == "" {
			id, _ = c.Cookie(SessionCookie)
		}

		page, created := store.GetOrCreate(id)
		BindPage(c, page)

		if created {
			if log := GetLogger(c); log != nil {
				log.Debug("Page session started", map[string]interface{}{
					"previous_id": id,
				})
			}
		}

		c.Next()
	}
}

// BindPage makes page the current session for the rest of the request and
// tells the client about it.
func BindPage(c *gin.Context, page *session.Page) {
	c.Set(PageKey, page)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, page.ID, 0, "/", "", c.Request.TLS != nil, true)
	c.Writer.Header().Set(SessionIDHeader, page.ID)

	if base := loggerFrom(c, requestLoggerKey); base != nil {
		c.Set(loggerKey, base.WithSessionID(page.ID))
	}
}

// GetPage retrieves the page session from the Gin context.
// Returns nil if not found.
func GetPage(c *gin.Context) *session.Page {
	if v, exists := c.Get(PageKey); exists {
		if page, ok := v.(*session.Page); ok {
			return page
		}
	}
	return nil
}
