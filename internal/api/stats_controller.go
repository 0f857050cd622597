package api

import (
	"github.com/gin-gonic/gin"
	"github.com/thierry1804/toa-permit/internal/service"
)

// StatsController serves the dashboard aggregates.
type StatsController struct {
	statsService service.StatsService
}

// NewStatsController creates the stats controller.
func NewStatsController(statsService service.StatsService) *StatsController {
	return &StatsController{
		statsService: statsService,
	}
}

// Dashboard returns permit counts by status, category and site plus
// today's daily validation count.
func (c *StatsController) Dashboard(ctx *gin.Context) {
	stats, err := c.statsService.Dashboard()
	if err != nil {
		writeWorkflowError(ctx, err, "compute dashboard stats")
		return
	}

	Success(ctx, stats)
}
