// Package server wires HTTP handlers into a gin engine for the relay
// application via routing helpers.
package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures and returns a gin engine with all application routes:
// health check, WebSocket endpoint, users view and test page.
func SetupRoutes(h *Handlers, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/", h.Health)
	r.GET("/health", h.Health)
	r.GET("/ws", h.WebSocket)
	r.GET("/users", h.Users)
	r.GET("/test", h.TestPage)
	return r
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
