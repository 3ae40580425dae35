package handler

import (
	"net/http"

	"logistics/internal/middleware"
	"logistics/internal/period"
	"logistics/internal/service"
	"logistics/pkg/pagination"
	"logistics/pkg/response"

	"github.com/gin-gonic/gin"
)

type RouteAssignmentHandler struct {
	assignmentService service.RouteAssignmentService
	clock             period.Clock
}

func NewRouteAssignmentHandler(assignmentService service.RouteAssignmentService, clock period.Clock) *RouteAssignmentHandler {
	return &RouteAssignmentHandler{assignmentService: assignmentService, clock: clock}
}

func (h *RouteAssignmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	assignments := router.Group("/api/route-assignments")
	assignments.Use(middleware.RequireRole(dispatchRoles...))
	{
		assignments.GET("", h.ListAssignments)
		assignments.GET("/:id", h.GetAssignment)
		assignments.POST("", h.CreateAssignment)
		assignments.PUT("/:id/status", h.UpdateStatus)
		assignments.DELETE("/:id", h.DeleteAssignment)
	}
}

// ListAssignments
// @Summary      List route assignments
// @Tags         route-assignments
// @Security     BearerAuth
// @Produce      json
// @Param        month     query     string  false  "Ethiopian month (default: current)"
// @Param        year      query     int     false  "Ethiopian year (default: current)"
// @Param        status    query     string  false  "Assigned, In Progress, Completed, Cancelled, Delayed"
// @Param        route_id  query     string  false  "Route ID"
// @Param        page      query     int     false  "Page number (default: 1)"
// @Param        limit     query     int     false  "Items per page (default: 20)"
// @Success      200       {object}  response.Response
// @Router       /api/route-assignments [get]
func (h *RouteAssignmentHandler) ListAssignments(c *gin.Context) {
	p, ok := queryPeriod(c, h.clock)
	if !ok {
		return
	}
	pg := pagination.Parse(c)

	assignments, total, err := h.assignmentService.List(c.Request.Context(), service.RouteAssignmentListQuery{
		Period:  p,
		Status:  c.Query("status"),
		RouteID: c.Query("route_id"),
		Page:    pg.Page,
		Limit:   pg.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, assignments, pg.Page, pg.Limit, total))
}

// GetAssignment
// @Summary      Get route assignment
// @Tags         route-assignments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Assignment ID"
// @Success      200  {object}  response.Response{data=model.RouteAssignment}
// @Failure      404  {object}  response.Response
// @Router       /api/route-assignments/{id} [get]
func (h *RouteAssignmentHandler) GetAssignment(c *gin.Context) {
	assignment, err := h.assignmentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, assignment))
}

// CreateAssignment dispatches a vehicle and driver onto a requested route
// @Summary      Create route assignment
// @Description  The route must have a vehicle request for the period and the vehicle must be available.
// @Tags         route-assignments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRouteAssignmentRequest  true  "Assignment payload"
// @Success      201      {object}  response.Response{data=model.RouteAssignment}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/route-assignments [post]
func (h *RouteAssignmentHandler) CreateAssignment(c *gin.Context) {
	var req service.CreateRouteAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	assignment, err := h.assignmentService.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, assignment))
}

// UpdateStatus
// @Summary      Update route assignment status
// @Tags         route-assignments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                                 true  "Assignment ID"
// @Param        payload  body      service.UpdateAssignmentStatusRequest  true  "Status payload"
// @Success      200      {object}  response.Response{data=model.RouteAssignment}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/route-assignments/{id}/status [put]
func (h *RouteAssignmentHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateAssignmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	assignment, err := h.assignmentService.UpdateStatus(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, assignment))
}

// DeleteAssignment
// @Summary      Delete route assignment
// @Tags         route-assignments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Assignment ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/route-assignments/{id} [delete]
func (h *RouteAssignmentHandler) DeleteAssignment(c *gin.Context) {
	if err := h.assignmentService.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Route assignment deleted successfully"}))
}
