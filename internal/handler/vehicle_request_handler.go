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

type VehicleRequestHandler struct {
	requestService service.VehicleRequestService
	clock          period.Clock
}

func NewVehicleRequestHandler(requestService service.VehicleRequestService, clock period.Clock) *VehicleRequestHandler {
	return &VehicleRequestHandler{requestService: requestService, clock: clock}
}

func (h *VehicleRequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/pi-vehicle-requests")
	requests.Use(middleware.RequireRole(piRoles...))
	{
		requests.GET("", h.ListReadyRoutes)
		requests.GET("/stats", h.GetStats)
		requests.GET("/routes/:route_id", h.EvaluateRoute)
		requests.POST("/request", h.SubmitRequest)
		requests.DELETE("/:route_id", h.DeleteRequest)
	}
}

// ListReadyRoutes returns routes whose every due facility is EWM completed (or already requested)
// @Summary      List routes ready for a vehicle request
// @Tags         vehicle-requests
// @Security     BearerAuth
// @Produce      json
// @Param        month   query     string  false  "Ethiopian month (default: current)"
// @Param        year    query     int     false  "Ethiopian year (default: current)"
// @Param        search  query     string  false  "Route name contains"
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Success      200     {object}  response.Response
// @Router       /api/pi-vehicle-requests [get]
func (h *VehicleRequestHandler) ListReadyRoutes(c *gin.Context) {
	p, ok := queryPeriod(c, h.clock)
	if !ok {
		return
	}
	pg := pagination.Parse(c)

	routes, total, err := h.requestService.ListReady(c.Request.Context(), service.VehicleRequestListQuery{
		Period: p,
		Search: c.Query("search"),
		Page:   pg.Page,
		Limit:  pg.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, routes, pg.Page, pg.Limit, total))
}

// GetStats
// @Summary      Vehicle request counters
// @Tags         vehicle-requests
// @Security     BearerAuth
// @Produce      json
// @Param        month  query     string  false  "Ethiopian month (default: current)"
// @Param        year   query     int     false  "Ethiopian year (default: current)"
// @Success      200    {object}  response.Response{data=service.VehicleRequestStats}
// @Router       /api/pi-vehicle-requests/stats [get]
func (h *VehicleRequestHandler) GetStats(c *gin.Context) {
	p, ok := queryPeriod(c, h.clock)
	if !ok {
		return
	}

	stats, err := h.requestService.Stats(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// EvaluateRoute returns the readiness of one route, ready or not
// @Summary      Evaluate route readiness
// @Tags         vehicle-requests
// @Security     BearerAuth
// @Produce      json
// @Param        route_id  path      string  true   "Route ID"
// @Param        month     query     string  false  "Ethiopian month (default: current)"
// @Param        year      query     int     false  "Ethiopian year (default: current)"
// @Success      200       {object}  response.Response{data=service.RouteReadiness}
// @Failure      404       {object}  response.Response
// @Router       /api/pi-vehicle-requests/routes/{route_id} [get]
func (h *VehicleRequestHandler) EvaluateRoute(c *gin.Context) {
	p, ok := queryPeriod(c, h.clock)
	if !ok {
		return
	}

	readiness, err := h.requestService.Evaluate(c.Request.Context(), c.Param("route_id"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, readiness))
}

// SubmitRequest
// @Summary      Request a vehicle for a route
// @Description  Every due facility must be EWM completed. Their processes move to vehicle_requested.
// @Tags         vehicle-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SubmitVehicleRequest  true  "Route and period"
// @Success      201      {object}  response.Response{data=model.PIVehicleRequest}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/pi-vehicle-requests/request [post]
func (h *VehicleRequestHandler) SubmitRequest(c *gin.Context) {
	var req service.SubmitVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	request, err := h.requestService.Submit(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, request))
}

// DeleteRequest
// @Summary      Withdraw a route's vehicle request
// @Description  Processes in vehicle_requested go back to ewm_completed.
// @Tags         vehicle-requests
// @Security     BearerAuth
// @Produce      json
// @Param        route_id  path      string  true   "Route ID"
// @Param        month     query     string  false  "Ethiopian month (default: current)"
// @Param        year      query     int     false  "Ethiopian year (default: current)"
// @Success      200       {object}  response.Response
// @Failure      404       {object}  response.Response
// @Router       /api/pi-vehicle-requests/{route_id} [delete]
func (h *VehicleRequestHandler) DeleteRequest(c *gin.Context) {
	p, ok := queryPeriod(c, h.clock)
	if !ok {
		return
	}

	if err := h.requestService.Delete(c.Request.Context(), currentUserID(c), c.Param("route_id"), p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Vehicle request deleted successfully"}))
}
