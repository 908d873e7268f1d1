package server

import (
	"github.com/clawdlabs/rivaldeck/server/middlewares"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires all routes. The ingestion write path sits behind the
// credential check and the per-credential throttle; the force-scrape trigger
// is credential-gated but not throttled, it only queues work.
func NewRouter(h *Handler, apiKey string, limiter *middlewares.RateLimiter) *gin.Engine {
	// Default comes with the Logger and Recovery middleware already attached.
	router := gin.Default()
	router.Use(cors.Default())

	auth := middlewares.APIKeyAuth(apiKey)

	api := router.Group("/api")
	{
		api.GET("/ingest", h.IngestHealth)
		api.POST("/ingest", auth, middlewares.Throttle(limiter), h.Ingest)

		api.GET("/ingest/force", h.ScrapeQueueStatus)
		api.POST("/ingest/force", auth, h.ForceScrape)

		api.GET("/boards", h.ListBoards)
		api.POST("/boards", h.CreateBoard)
		api.DELETE("/boards", h.DeleteBoard)

		api.POST("/columns", h.CreateColumn)
		api.GET("/columns/:id", h.GetColumn)
		api.PATCH("/columns/:id", h.UpdateColumnHandle)

		api.GET("/posts", h.ListPosts)
	}

	return router
}
