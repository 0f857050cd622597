package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thierry1804/toa-permit/internal/service"
	"github.com/thierry1804/toa-permit/internal/utils"
)

// InterventionController handles daily validation sheets and Take 5
// checklists recorded against active permits.
type InterventionController struct {
	interventionService service.InterventionService
}

// NewInterventionController creates the intervention controller.
func NewInterventionController(interventionService service.InterventionService) *InterventionController {
	return &InterventionController{
		interventionService: interventionService,
	}
}

func (c *InterventionController) permitID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if err := utils.ValidatePermitID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid permit ID", err.Error())
		return "", false
	}
	return id, true
}

// AddDailyValidation records a daily control sheet.
func (c *InterventionController) AddDailyValidation(ctx *gin.Context) {
	id, ok := c.permitID(ctx)
	if !ok {
		return
	}

	var req service.DailyValidationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	validation, err := c.interventionService.AddDailyValidation(ctx.Request.Context(), id, &req)
	if err != nil {
		writeWorkflowError(ctx, err, "record daily validation")
		return
	}

	Created(ctx, validation)
}

// ListDailyValidations lists a permit's daily sheets.
func (c *InterventionController) ListDailyValidations(ctx *gin.Context) {
	id, ok := c.permitID(ctx)
	if !ok {
		return
	}

	validations, err := c.interventionService.ListDailyValidations(id)
	if err != nil {
		writeWorkflowError(ctx, err, "list daily validations")
		return
	}

	Success(ctx, validations)
}

// AddTake5 records a 5-step risk check.
func (c *InterventionController) AddTake5(ctx *gin.Context) {
	id, ok := c.permitID(ctx)
	if !ok {
		return
	}

	var req service.Take5Request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	record, err := c.interventionService.AddTake5(ctx.Request.Context(), id, &req)
	if err != nil {
		writeWorkflowError(ctx, err, "record take5")
		return
	}

	Created(ctx, record)
}

// ListTake5 lists a permit's Take 5 records.
func (c *InterventionController) ListTake5(ctx *gin.Context) {
	id, ok := c.permitID(ctx)
	if !ok {
		return
	}

	records, err := c.interventionService.ListTake5(id)
	if err != nil {
		writeWorkflowError(ctx, err, "list take5 records")
		return
	}

	Success(ctx, records)
}
