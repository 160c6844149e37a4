// Package router wires HTTP routes to controller handlers.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/songquanpeng/prompt-studio/common/config"
	"github.com/songquanpeng/prompt-studio/controller"
	"github.com/songquanpeng/prompt-studio/middleware"
)

func SetRouter(router *gin.Engine, h *controller.Handler) {
	if len(config.CORSAllowedOrigins) > 0 {
		router.Use(middleware.CORS(config.CORSAllowedOrigins))
	}
	if config.EnablePrometheusMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	SetApiRouter(router, h)
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "route not found"})
	})
}
