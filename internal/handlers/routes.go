package handlers

import "github.com/gin-gonic/gin"

// RegisterPageRoutes mounts the upload page, its form fallback and the
// /api/v1 page endpoints.
func RegisterPageRoutes(r gin.IRouter, h *PageHandler) {
	r.GET("/", h.Index)
	r.POST("/analyze", h.AnalyzeForm)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/state", h.State)
		v1.GET("/property", h.Property)
		v1.POST("/submit", h.Submit)
		v1.POST("/session/reset", h.Reset)

		slots := v1.Group("/slots/:slot")
		{
			slots.PUT("/file", h.PutFile)
			slots.DELETE("/file", h.DeleteFile)
			slots.POST("/drag", h.Drag)
			slots.POST("/drop", h.Drop)
		}
	}
}

// RegisterHealthRoutes mounts the liveness, readiness and info endpoints.
func RegisterHealthRoutes(r gin.IRouter, h *HealthHandler) {
	r.GET("/health", h.Health)
	r.GET("/health/ready", h.Ready)
	r.GET("/api/v1/info", h.Info)
}
