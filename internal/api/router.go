package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jengzang/records-activity-go/internal/config"
	"github.com/jengzang/records-activity-go/internal/handler"
	"github.com/jengzang/records-activity-go/internal/middleware"
	"github.com/jengzang/records-activity-go/internal/service"
)

// Services are the dependencies the routes are served from
type Services struct {
	Agent   *service.LocationAgent
	Trips   *service.TripService
	Limiter *middleware.RateLimiter
}

// SetupRouter builds the HTTP API
func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(), middleware.Metrics())

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
			"message": "Activity API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	locations := handler.NewLocationHandler(svc.Agent, cfg.Analysis.CommuteDays)
	trips := handler.NewTripHandler(svc.Trips)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(svc.Limiter), middleware.Auth(cfg.Server.JWTSecret))
	{
		location := api.Group("/location")
		{
			location.GET("/where", locations.WhereWasI)
			location.GET("/current", locations.Current)
			location.GET("/time-at", locations.TimeAt)
			location.GET("/commute", locations.Commute)
			location.GET("/frequent", locations.Frequent)
		}

		api.GET("/activities/day", trips.AnalyzeDay)
		api.POST("/trips/analyze", trips.AnalyzeTrip)
	}

	return r
}
