package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ItemRequestHandler struct {
	itemRequestService service.ItemRequestService
}

func NewItemRequestHandler(itemRequestService service.ItemRequestService) *ItemRequestHandler {
	return &ItemRequestHandler{itemRequestService: itemRequestService}
}

func (h *ItemRequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/item-requests")
	{
		requests.GET("", middleware.RequirePermission("requests.read"), h.List)
		requests.GET("/:id", middleware.RequirePermission("requests.read"), h.Get)
		requests.POST("", middleware.RequirePermission("requests.write"), h.Create)
		requests.PUT("/:id", middleware.RequirePermission("requests.write"), h.Update)
		requests.DELETE("/:id", middleware.RequirePermission("requests.write"), h.Delete)
		requests.POST("/:id/submit", middleware.RequirePermission("requests.write"), h.Submit)
		requests.POST("/:id/cancel", middleware.RequirePermission("requests.write"), h.Cancel)
		requests.PUT("/:id/approve", middleware.RequirePermission("requests.approve"), h.Approve)
		requests.PUT("/:id/decline", middleware.RequirePermission("requests.approve"), h.Decline)
		requests.PUT("/:id/return", middleware.RequirePermission("requests.approve"), h.Return)
	}
}

// List returns item requests visible to the caller, optionally filtered by status
// @Summary      List item requests
// @Tags         item-requests
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/item-requests [get]
func (h *ItemRequestHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.ItemRequestFilterDTO{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	requests, total, err := h.itemRequestService.List(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   requests,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// Get returns one item request with its lines and approval history
// @Summary      Get item request
// @Tags         item-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.ItemRequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/item-requests/{id} [get]
func (h *ItemRequestHandler) Get(c *gin.Context) {
	result, err := h.itemRequestService.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Create creates a draft item request
// @Summary      Create item request
// @Tags         item-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateItemRequestDTO  true  "Request payload"
// @Success      201      {object}  response.Response{data=service.ItemRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/item-requests [post]
func (h *ItemRequestHandler) Create(c *gin.Context) {
	var req service.CreateItemRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.itemRequestService.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// Update edits a draft or returned item request
// @Summary      Update item request
// @Tags         item-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Request ID"
// @Param        payload  body      service.UpdateItemRequestDTO  true  "Update payload"
// @Success      200      {object}  response.Response{data=service.ItemRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/item-requests/{id} [put]
func (h *ItemRequestHandler) Update(c *gin.Context) {
	var req service.UpdateItemRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.itemRequestService.Update(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Submit moves a draft or returned request into the approval flow
// @Summary      Submit item request
// @Tags         item-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.ItemRequestResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/item-requests/{id}/submit [post]
func (h *ItemRequestHandler) Submit(c *gin.Context) {
	result, err := h.itemRequestService.Submit(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Approve applies the current stage's approval
// @Summary      Approve item request
// @Tags         item-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true   "Request ID"
// @Param        payload  body      service.ApprovalActionDTO  false  "Optional comments"
// @Success      200      {object}  response.Response{data=service.ItemRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/item-requests/{id}/approve [put]
func (h *ItemRequestHandler) Approve(c *gin.Context) {
	var req service.ApprovalActionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Comments are optional, tolerate an empty body
		req.Comments = ""
	}

	result, err := h.itemRequestService.Approve(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Decline rejects the request terminally
// @Summary      Decline item request
// @Tags         item-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true   "Request ID"
// @Param        payload  body      service.ApprovalActionDTO  false  "Optional comments"
// @Success      200      {object}  response.Response{data=service.ItemRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/item-requests/{id}/decline [put]
func (h *ItemRequestHandler) Decline(c *gin.Context) {
	var req service.ApprovalActionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Comments = ""
	}

	result, err := h.itemRequestService.Decline(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Return sends the request back to its requestor for changes
// @Summary      Return item request
// @Tags         item-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Request ID"
// @Param        payload  body      service.ReturnActionDTO  true  "Return reason"
// @Success      200      {object}  response.Response{data=service.ItemRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/item-requests/{id}/return [put]
func (h *ItemRequestHandler) Return(c *gin.Context) {
	var req service.ReturnActionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Return reason is required"))
		return
	}

	result, err := h.itemRequestService.Return(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Cancel withdraws the request before it reaches a terminal status
// @Summary      Cancel item request
// @Tags         item-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.ItemRequestResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/item-requests/{id}/cancel [post]
func (h *ItemRequestHandler) Cancel(c *gin.Context) {
	result, err := h.itemRequestService.Cancel(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Delete removes a draft request
// @Summary      Delete item request
// @Tags         item-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/item-requests/{id} [delete]
func (h *ItemRequestHandler) Delete(c *gin.Context) {
	if err := h.itemRequestService.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Request deleted successfully"))
}

// currentUserID pulls the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) string {
	userID, _ := c.Get("userID")
	idStr, _ := userID.(string)
	return idStr
}
