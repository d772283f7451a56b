package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type WorkflowHandler struct {
	workflowService service.WorkflowService
}

func NewWorkflowHandler(workflowService service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflowService: workflowService}
}

func (h *WorkflowHandler) RegisterRoutes(router *gin.RouterGroup) {
	workflows := router.Group("/api/workflows")
	{
		workflows.GET("", middleware.RequirePermission("workflows.read"), h.List)
		workflows.GET("/:id", middleware.RequirePermission("workflows.read"), h.Get)
		workflows.POST("", middleware.RequirePermission("workflows.manage"), h.Create)
		workflows.PUT("/:id", middleware.RequirePermission("workflows.manage"), h.Update)
		workflows.DELETE("/:id", middleware.RequirePermission("workflows.manage"), h.Delete)
	}
}

// List returns workflows, optionally filtered by form type
// @Summary      List workflows
// @Tags         workflows
// @Produce      json
// @Security     BearerAuth
// @Param        form_type  query     string  false  "item_request or vehicle_request"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200        {object}  response.Response{data=object}
// @Router       /api/workflows [get]
func (h *WorkflowHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	workflows, total, err := h.workflowService.List(c.Request.Context(), c.Query("form_type"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   workflows,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// Get returns one workflow with its ordered steps
// @Summary      Get workflow
// @Tags         workflows
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workflow ID"
// @Success      200  {object}  response.Response{data=service.WorkflowResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/workflows/{id} [get]
func (h *WorkflowHandler) Get(c *gin.Context) {
	result, err := h.workflowService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Create creates a workflow with its steps as a unit
// @Summary      Create workflow
// @Tags         workflows
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateWorkflowDTO  true  "Workflow payload"
// @Success      201      {object}  response.Response{data=service.WorkflowResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/workflows [post]
func (h *WorkflowHandler) Create(c *gin.Context) {
	var req service.CreateWorkflowDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.workflowService.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// Update edits a workflow's metadata and optionally replaces its steps
// @Summary      Update workflow
// @Tags         workflows
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Workflow ID"
// @Param        payload  body      service.UpdateWorkflowDTO  true  "Update payload"
// @Success      200      {object}  response.Response{data=service.WorkflowResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/workflows/{id} [put]
func (h *WorkflowHandler) Update(c *gin.Context) {
	var req service.UpdateWorkflowDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.workflowService.Update(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Delete removes a workflow not currently gating any request
// @Summary      Delete workflow
// @Tags         workflows
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workflow ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/workflows/{id} [delete]
func (h *WorkflowHandler) Delete(c *gin.Context) {
	if err := h.workflowService.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Workflow deleted successfully"))
}
