package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thierry1804/toa-permit/internal/auth"
	"github.com/thierry1804/toa-permit/internal/config"
	"github.com/thierry1804/toa-permit/internal/notify"
	"gorm.io/gorm"
)

// RouterDeps bundles everything the HTTP layer needs.
type RouterDeps struct {
	Permits       *PermitController
	Interventions *InterventionController
	Stats         *StatsController
	Hub           *notify.Hub
	Validator     *auth.TokenValidator
	DB            *gorm.DB
	CORSOrigins   []string
	RateLimit     config.RateLimitConfig
}

// SetupRoutes wires middleware and routes onto a gin engine.
func SetupRoutes(deps *RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware())
	if len(deps.CORSOrigins) > 0 {
		router.Use(CORSMiddleware(deps.CORSOrigins))
	}
	if deps.RateLimit.Enabled {
		router.Use(RateLimitMiddleware(deps.RateLimit.RPS, deps.RateLimit.Burst))
	}
	router.Use(ErrorHandlerMiddleware())

	healthController := NewHealthController(deps.DB)
	router.GET("/health", healthController.Check)

	router.GET("/metrics", MetricsHandler)

	if deps.Hub != nil {
		router.GET("/ws/permits/:id", notify.WebSocketHandler(deps.Hub, deps.Validator))
	}

	v1 := router.Group("/api/v1")
	v1.Use(auth.Middleware(deps.Validator))
	{
		permits := v1.Group("/permits")
		{
			permits.POST("", deps.Permits.Create)
			permits.GET("", deps.Permits.List)
			permits.GET("/:id", deps.Permits.Get)
			permits.PUT("/:id", deps.Permits.Update)
			permits.DELETE("/:id", deps.Permits.Delete)

			permits.POST("/:id/submit", deps.Permits.Submit)
			permits.POST("/:id/validate-chef", deps.Permits.ValidateChef)
			permits.POST("/:id/validate-hse", deps.Permits.ValidateHSE)
			permits.POST("/:id/reject", deps.Permits.Reject)
			permits.POST("/:id/start", deps.Permits.Start)
			permits.POST("/:id/close", deps.Permits.Close)

			permits.POST("/:id/daily-validations", deps.Interventions.AddDailyValidation)
			permits.GET("/:id/daily-validations", deps.Interventions.ListDailyValidations)
			permits.POST("/:id/take5", deps.Interventions.AddTake5)
			permits.GET("/:id/take5", deps.Interventions.ListTake5)
		}

		stats := v1.Group("/stats")
		{
			stats.GET("/dashboard", deps.Stats.Dashboard)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "route not found", c.Request.URL.Path)
	})

	return router
}
