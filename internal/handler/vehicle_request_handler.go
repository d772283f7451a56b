package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type VehicleRequestHandler struct {
	vehicleRequestService service.VehicleRequestService
}

func NewVehicleRequestHandler(vehicleRequestService service.VehicleRequestService) *VehicleRequestHandler {
	return &VehicleRequestHandler{vehicleRequestService: vehicleRequestService}
}

func (h *VehicleRequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/vehicle-requests")
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

// List returns vehicle requests visible to the caller, optionally filtered by status
// @Summary      List vehicle requests
// @Tags         vehicle-requests
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/vehicle-requests [get]
func (h *VehicleRequestHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.VehicleRequestFilterDTO{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	requests, total, err := h.vehicleRequestService.List(c.Request.Context(), currentUserID(c), filter)
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

// Get returns one vehicle request with its approval trail
// @Summary      Get vehicle request
// @Tags         vehicle-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.VehicleRequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/vehicle-requests/{id} [get]
func (h *VehicleRequestHandler) Get(c *gin.Context) {
	result, err := h.vehicleRequestService.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Create creates a draft vehicle request
// @Summary      Create vehicle request
// @Tags         vehicle-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateVehicleRequestDTO  true  "Request payload"
// @Success      201      {object}  response.Response{data=service.VehicleRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/vehicle-requests [post]
func (h *VehicleRequestHandler) Create(c *gin.Context) {
	var req service.CreateVehicleRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.vehicleRequestService.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// Update edits a draft or returned vehicle request
// @Summary      Update vehicle request
// @Tags         vehicle-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Request ID"
// @Param        payload  body      service.UpdateVehicleRequestDTO  true  "Update payload"
// @Success      200      {object}  response.Response{data=service.VehicleRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/vehicle-requests/{id} [put]
func (h *VehicleRequestHandler) Update(c *gin.Context) {
	var req service.UpdateVehicleRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.vehicleRequestService.Update(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Submit routes the request to the first workflow step's approver
// @Summary      Submit vehicle request
// @Tags         vehicle-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.VehicleRequestResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/vehicle-requests/{id}/submit [post]
func (h *VehicleRequestHandler) Submit(c *gin.Context) {
	result, err := h.vehicleRequestService.Submit(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Approve applies the caller's pending workflow step
// @Summary      Approve vehicle request
// @Tags         vehicle-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true   "Request ID"
// @Param        payload  body      service.ApprovalActionDTO  false  "Optional comments"
// @Success      200      {object}  response.Response{data=service.VehicleRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/vehicle-requests/{id}/approve [put]
func (h *VehicleRequestHandler) Approve(c *gin.Context) {
	var req service.ApprovalActionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Comments are optional, tolerate an empty body
		req.Comments = ""
	}

	result, err := h.vehicleRequestService.Approve(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Decline rejects the request terminally
// @Summary      Decline vehicle request
// @Tags         vehicle-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true   "Request ID"
// @Param        payload  body      service.ApprovalActionDTO  false  "Optional comments"
// @Success      200      {object}  response.Response{data=service.VehicleRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/vehicle-requests/{id}/decline [put]
func (h *VehicleRequestHandler) Decline(c *gin.Context) {
	var req service.ApprovalActionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Comments = ""
	}

	result, err := h.vehicleRequestService.Decline(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Return sends the request back to its requestor for changes
// @Summary      Return vehicle request
// @Tags         vehicle-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Request ID"
// @Param        payload  body      service.ReturnActionDTO  true  "Return reason"
// @Success      200      {object}  response.Response{data=service.VehicleRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/vehicle-requests/{id}/return [put]
func (h *VehicleRequestHandler) Return(c *gin.Context) {
	var req service.ReturnActionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Return reason is required"))
		return
	}

	result, err := h.vehicleRequestService.Return(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Cancel withdraws the request before it reaches a terminal status
// @Summary      Cancel vehicle request
// @Tags         vehicle-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.VehicleRequestResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/vehicle-requests/{id}/cancel [post]
func (h *VehicleRequestHandler) Cancel(c *gin.Context) {
	result, err := h.vehicleRequestService.Cancel(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Delete removes a draft request
// @Summary      Delete vehicle request
// @Tags         vehicle-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/vehicle-requests/{id} [delete]
func (h *VehicleRequestHandler) Delete(c *gin.Context) {
	if err := h.vehicleRequestService.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Request deleted successfully"))
}
