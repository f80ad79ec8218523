package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mark1ns0n/country-days-backend/internal/config"
	"github.com/mark1ns0n/country-days-backend/internal/handler"
	"github.com/mark1ns0n/country-days-backend/internal/middleware"
	"github.com/mark1ns0n/country-days-backend/internal/service"
)

// SetupRouter wires the HTTP surface: health check, then the JWT- and
// rate-limited /api/v1 group.
func SetupRouter(cfg *config.Config, timeline *service.TimelineService, stats *service.StatsService) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Country Days API is running",
		})
	})

	timelineHandler := handler.NewTimelineHandler(timeline)
	statsHandler := handler.NewStatsHandler(stats, cfg.Timezone)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(120, time.Minute), middleware.Auth(cfg.JWTSecret))
	{
		api.POST("/observations", timelineHandler.PostObservation)

		api.GET("/intervals", timelineHandler.GetIntervals)
		api.GET("/intervals/open", timelineHandler.GetOpenInterval)
		api.GET("/logs", timelineHandler.GetLogs)

		stats := api.Group("/stats")
		{
			stats.GET("/days-by-country", statsHandler.GetDaysByCountry)
			stats.GET("/visited", statsHandler.GetVisited)
			stats.GET("/days", statsHandler.GetDays)
			stats.GET("/forecast", statsHandler.GetForecast)
		}

		api.GET("/calendar", statsHandler.GetCalendar)
		api.GET("/summary", statsHandler.GetSummary)

		admin := api.Group("/admin")
		{
			admin.POST("/reconcile", timelineHandler.PostReconcile)
		}
	}

	return r
}
