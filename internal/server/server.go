// Package server exposes the stored articles over a JSON HTTP API.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// New creates the HTTP server with all routes configured.
func New(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %d %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.StatusCode,
				param.Latency,
			)
		},
	}))
	r.Use(gin.Recovery())

	// CORS for browser clients
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.HealthCheck)
	r.GET("/stats", handler.GetStats)

	r.GET("/articles", handler.ListArticles)
	r.GET("/articles/:id", handler.GetArticle)
	r.GET("/articles/:id/analysis", handler.GetArticleAnalysis)
	r.GET("/analyses/:id", handler.GetAnalysis)

	admin := r.Group("/admin")
	{
		admin.POST("/ingest/run", handler.RunIngest)
		admin.POST("/cleanup/:source", handler.CleanupSource)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "newslens",
			"endpoints": map[string]string{
				"health":   "/health",
				"stats":    "/stats",
				"articles": "/articles?q=&sentiment=&source=&from=&to=&sort=&limit=",
				"article":  "/articles/:id",
				"analysis": "/articles/:id/analysis",
				"ingest":   "/admin/ingest/run (POST)",
				"cleanup":  "/admin/cleanup/:source (POST)",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
