package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter creates and configures the Gin router for the routing API.
func SetupRouter(h *Handler, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	corsCfg.AllowMethods = []string{"GET", "POST"}
	router.Use(cors.New(corsCfg))

	v1 := router.Group("/v1")
	{
		v1.POST("/routes", h.PlanRoute)
	}

	router.GET("/healthz", h.HealthCheck)

	return router
}
