package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thierry1804/toa-permit/internal/auth"
	"github.com/thierry1804/toa-permit/internal/repository"
	"github.com/thierry1804/toa-permit/internal/service"
	"github.com/thierry1804/toa-permit/internal/utils"
	"github.com/thierry1804/toa-permit/internal/workflow"
)

// PermitController handles permit CRUD and workflow commands.
type PermitController struct {
	permitService service.PermitService
}

// NewPermitController creates the permit controller.
func NewPermitController(permitService service.PermitService) *PermitController {
	return &PermitController{
		permitService: permitService,
	}
}

// ActionRequest carries the acting user for a workflow command. When a
// token is presented the actor comes from the token instead.
type ActionRequest struct {
	Actor   string `json:"actor"`
	Role    string `json:"role"`
	Comment string `json:"comment,omitempty"`
}

// RejectRequest carries the acting user and the mandatory reason.
type RejectRequest struct {
	Actor  string `json:"actor"`
	Role   string `json:"role"`
	Reason string `json:"reason"`
}

// validatePermitID checks the path id, writing a 400 if it is invalid.
func (c *PermitController) validatePermitID(ctx *gin.Context, id string) bool {
	if err := utils.ValidatePermitID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid permit ID", err.Error())
		return false
	}
	return true
}

// actor resolves the acting user, preferring the authenticated identity
// over whatever the body claims.
func (c *PermitController) actor(ctx *gin.Context, bodyActor, bodyRole string) workflow.Actor {
	name := bodyActor
	role := bodyRole
	if v, ok := ctx.Get(auth.ContextUserName); ok {
		if s, ok := v.(string); ok && s != "" {
			name = s
		}
	}
	if v, ok := ctx.Get(auth.ContextUserRole); ok {
		if s, ok := v.(string); ok && s != "" {
			role = s
		}
	}
	return workflow.Actor{Name: name, Role: workflow.Role(role)}
}

// writeWorkflowError maps service and engine errors to HTTP statuses.
func writeWorkflowError(ctx *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		Error(ctx, http.StatusNotFound, "permit not found", err.Error())
	case errors.Is(err, workflow.ErrInvalidState):
		Error(ctx, http.StatusConflict, "invalid state for "+operation, err.Error())
	case errors.Is(err, workflow.ErrUnauthorized):
		Error(ctx, http.StatusForbidden, "not authorized to "+operation, err.Error())
	case errors.Is(err, workflow.ErrEmptyReason), errors.Is(err, service.ErrValidation):
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, workflow.ErrReferenceGeneration):
		Error(ctx, http.StatusServiceUnavailable, "reference generation failed", err.Error())
	default:
		Error(ctx, http.StatusInternalServerError, "failed to "+operation, err.Error())
	}
}

// Create creates a draft permit or prevention plan.
func (c *PermitController) Create(ctx *gin.Context) {
	var req service.CreatePermitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	permit, err := c.permitService.Create(ctx.Request.Context(), &req)
	if err != nil {
		writeWorkflowError(ctx, err, "create permit")
		return
	}

	Created(ctx, permit)
}

// Get returns one permit.
func (c *PermitController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validatePermitID(ctx, id) {
		return
	}

	permit, err := c.permitService.Get(id)
	if err != nil {
		writeWorkflowError(ctx, err, "get permit")
		return
	}

	Success(ctx, permit)
}

// List returns permits matching the query filters.
func (c *PermitController) List(ctx *gin.Context) {
	filter := &repository.PermitFilter{}
	if v := ctx.Query("status"); v != "" {
		filter.Status = &v
	}
	if v := ctx.Query("category"); v != "" {
		filter.Category = &v
	}
	if v := ctx.Query("submitter"); v != "" {
		filter.Submitter = &v
	}
	if v := ctx.Query("site"); v != "" {
		filter.SiteCode = &v
	}

	permits, err := c.permitService.List(filter)
	if err != nil {
		writeWorkflowError(ctx, err, "list permits")
		return
	}

	Success(ctx, permits)
}

// Update edits a draft permit.
func (c *PermitController) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validatePermitID(ctx, id) {
		return
	}

	var req service.UpdatePermitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	permit, err := c.permitService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		writeWorkflowError(ctx, err, "update permit")
		return
	}

	Success(ctx, permit)
}

// Delete removes a draft permit.
func (c *PermitController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validatePermitID(ctx, id) {
		return
	}

	var req ActionRequest
	_ = ctx.ShouldBindJSON(&req)
	actor := c.actor(ctx, req.Actor, req.Role)

	if err := c.permitService.Delete(ctx.Request.Context(), id, actor); err != nil {
		writeWorkflowError(ctx, err, "delete permit")
		return
	}

	Success(ctx, gin.H{"id": id})
}

// Submit moves a draft into the approval chain.
func (c *PermitController) Submit(ctx *gin.Context) {
	c.transition(ctx, "submit permit", func(id string, actor workflow.Actor, req *ActionRequest) (*service.PermitView, error) {
		return c.permitService.Submit(ctx.Request.Context(), id, actor)
	})
}

// ValidateChef records the chef de projet approval.
func (c *PermitController) ValidateChef(ctx *gin.Context) {
	c.transition(ctx, "validate permit", func(id string, actor workflow.Actor, req *ActionRequest) (*service.PermitView, error) {
		return c.permitService.ValidateByChef(ctx.Request.Context(), id, actor, req.Comment)
	})
}

// ValidateHSE records the HSE approval, assigning the reference.
func (c *PermitController) ValidateHSE(ctx *gin.Context) {
	c.transition(ctx, "validate permit", func(id string, actor workflow.Actor, req *ActionRequest) (*service.PermitView, error) {
		return c.permitService.ValidateByHSE(ctx.Request.Context(), id, actor, req.Comment)
	})
}

// Reject rejects a permit awaiting approval.
func (c *PermitController) Reject(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validatePermitID(ctx, id) {
		return
	}

	var req RejectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	actor := c.actor(ctx, req.Actor, req.Role)

	permit, err := c.permitService.Reject(ctx.Request.Context(), id, actor, req.Reason)
	if err != nil {
		writeWorkflowError(ctx, err, "reject permit")
		return
	}

	Success(ctx, permit)
}

// Start marks field work as begun.
func (c *PermitController) Start(ctx *gin.Context) {
	c.transition(ctx, "start permit", func(id string, actor workflow.Actor, req *ActionRequest) (*service.PermitView, error) {
		return c.permitService.Start(ctx.Request.Context(), id, actor)
	})
}

// Close ends the permit lifecycle.
func (c *PermitController) Close(ctx *gin.Context) {
	c.transition(ctx, "close permit", func(id string, actor workflow.Actor, req *ActionRequest) (*service.PermitView, error) {
		return c.permitService.Close(ctx.Request.Context(), id, actor, req.Comment)
	})
}

// transition factors the shared command plumbing: path id check, body
// binding, actor resolution and error mapping.
func (c *PermitController) transition(ctx *gin.Context, operation string, run func(id string, actor workflow.Actor, req *ActionRequest) (*service.PermitView, error)) {
	id := ctx.Param("id")
	if !c.validatePermitID(ctx, id) {
		return
	}

	var req ActionRequest
	// Body is optional when the actor comes from a token.
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	actor := c.actor(ctx, req.Actor, req.Role)

	permit, err := run(id, actor, &req)
	if err != nil {
		writeWorkflowError(ctx, err, operation)
		return
	}

	Success(ctx, permit)
}
