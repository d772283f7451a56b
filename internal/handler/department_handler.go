package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DepartmentHandler struct {
	departmentService service.DepartmentService
}

func NewDepartmentHandler(departmentService service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService}
}

func (h *DepartmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	departments := router.Group("/api/departments")
	{
		departments.GET("", middleware.RequirePermission("departments.read"), h.List)
		departments.GET("/:id", middleware.RequirePermission("departments.read"), h.Get)
		departments.POST("", middleware.RequirePermission("departments.manage"), h.Create)
		departments.PUT("/:id", middleware.RequirePermission("departments.manage"), h.Update)
		departments.DELETE("/:id", middleware.RequirePermission("departments.manage"), h.Delete)
	}
}

// List returns all departments with member counts
// @Summary      List departments
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.DepartmentResponse}
// @Router       /api/departments [get]
func (h *DepartmentHandler) List(c *gin.Context) {
	departments, err := h.departmentService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, departments))
}

// Get returns one department
// @Summary      Get department
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Department ID"
// @Success      200  {object}  response.Response{data=service.DepartmentResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/departments/{id} [get]
func (h *DepartmentHandler) Get(c *gin.Context) {
	result, err := h.departmentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Create creates a department
// @Summary      Create department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateDepartmentRequest  true  "Department payload"
// @Success      201      {object}  response.Response{data=service.DepartmentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/departments [post]
func (h *DepartmentHandler) Create(c *gin.Context) {
	var req service.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.departmentService.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// Update edits a department's name or code
// @Summary      Update department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Department ID"
// @Param        payload  body      service.UpdateDepartmentRequest  true  "Update payload"
// @Success      200      {object}  response.Response{data=service.DepartmentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/departments/{id} [put]
func (h *DepartmentHandler) Update(c *gin.Context) {
	var req service.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.departmentService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Delete removes an empty department
// @Summary      Delete department
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Department ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/departments/{id} [delete]
func (h *DepartmentHandler) Delete(c *gin.Context) {
	if err := h.departmentService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Department deleted successfully"))
}
