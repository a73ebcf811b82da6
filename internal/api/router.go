// Package api assembles the HTTP surface of the catalog service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"motorhub/internal/events"
	"motorhub/internal/jobs"
	"motorhub/internal/motor"
	"motorhub/pkg/database"
	"motorhub/pkg/logging"
)

type Deps struct {
	DB     *database.DB
	Motors *motor.Repo
	Runner *jobs.Runner
	Hub    *events.Hub
	Log    zerolog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logging.GinMiddleware(d.Log))
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": d.DB.Driver})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := d.Hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := d.DB.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":       "ready",
			"db":           "ok",
			"tcp_clients":  stats.TCPClients,
			"ws_clients":   stats.WSClients,
			"sync_running": d.Runner.Running(),
		})
	})

	router.GET("/ws", events.WSHandler(d.Hub))

	motor.NewHandler(d.Motors, d.Log).RegisterRoutes(router.Group("/motors"))
	jobs.NewHandler(d.Runner, d.Log).RegisterRoutes(router.Group("/sync"))

	return router
}
