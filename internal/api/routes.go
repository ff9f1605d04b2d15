package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/partner-finder/internal/telemetry"
)

// SetupRoutes wires all service routes onto the router.
func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadinessCheck)
	router.GET("/metrics", gin.WrapH(telemetry.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/search", handler.Search)
		v1.GET("/organizations/:ein", handler.GetOrganization)
		v1.GET("/organizations/:ein/analysis", handler.AnalyzeOrganization)
		v1.POST("/rank", handler.Rank)
	}
}
