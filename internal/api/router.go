package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/config"
	"github.com/mauzenfan/safety-backend-go/internal/handler"
	"github.com/mauzenfan/safety-backend-go/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by the router. Weather is nil when no forecast
// provider is configured.
type Handlers struct {
	Locations *handler.LocationHandler
	Routines  *handler.RoutineHandler
	Weather   *handler.WeatherHandler
	Alerts    *handler.AlertHandler
	Analysis  *handler.AnalysisHandler
}

// SetupRouter 设置路由. The rate limiter's cleanup stops when ctx is done.
func SetupRouter(ctx context.Context, cfg *config.Config, h Handlers, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger(logger), middleware.Recovery(logger))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Safety Backend API is running",
		})
	})

	// API 路由组
	api := r.Group("/api/v1")
	if cfg.RateLimit.Requests > 0 {
		api.Use(middleware.RateLimit(middleware.NewRateLimiter(ctx, cfg.RateLimit.Requests, cfg.RateLimit.Window)))
	}
	{
		subjects := api.Group("/subjects/:id")
		{
			subjects.POST("/locations", h.Locations.PostLocations)
			subjects.GET("/routines", h.Routines.ListRoutines)
			subjects.POST("/routines/learn", h.Routines.Learn)
			subjects.POST("/trips/analyze", h.Routines.AnalyzeTrip)
			subjects.POST("/trips/analyze-recent", h.Routines.AnalyzeRecentTrips)
			if h.Weather != nil {
				subjects.POST("/weather/check", h.Weather.Check)
			}
		}

		owners := api.Group("/owners/:id")
		{
			owners.GET("/alerts", h.Alerts.ListAlerts)
			owners.GET("/alerts/recent", h.Alerts.RecentNotifications)
		}

		runs := api.Group("/analysis/runs")
		{
			runs.POST("", h.Analysis.StartRun)
			runs.GET("", h.Analysis.ListRuns)
			runs.GET("/:id", h.Analysis.GetRun)
		}
	}

	return r
}
