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

type RouteHandler struct {
	routeService service.RouteService
	clock        period.Clock
}

func NewRouteHandler(routeService service.RouteService, clock period.Clock) *RouteHandler {
	return &RouteHandler{routeService: routeService, clock: clock}
}

func (h *RouteHandler) RegisterRoutes(router *gin.RouterGroup) {
	routes := router.Group("/api/routes")
	{
		routes.GET("", middleware.RequireRole(anyRole...), h.ListRoutes)
		routes.GET("/:id", middleware.RequireRole(anyRole...), h.GetRoute)
		routes.GET("/:id/facilities", middleware.RequireRole(anyRole...), h.ListMembers)
		routes.POST("", middleware.RequireRole(adminRoles...), h.CreateRoute)
		routes.PUT("/:id", middleware.RequireRole(adminRoles...), h.UpdateRoute)
		routes.DELETE("/:id", middleware.RequireRole(adminRoles...), h.DeleteRoute)
	}
}

// ListRoutes
// @Summary      List routes
// @Tags         routes
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Route name contains"
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Success      200     {object}  response.Response
// @Router       /api/routes [get]
func (h *RouteHandler) ListRoutes(c *gin.Context) {
	pg := pagination.Parse(c)

	routes, total, err := h.routeService.List(c.Request.Context(), c.Query("search"), pg.Page, pg.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, routes, pg.Page, pg.Limit, total))
}

// GetRoute
// @Summary      Get route
// @Tags         routes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Route ID"
// @Success      200  {object}  response.Response{data=model.Route}
// @Failure      404  {object}  response.Response
// @Router       /api/routes/{id} [get]
func (h *RouteHandler) GetRoute(c *gin.Context) {
	route, err := h.routeService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, route))
}

// ListMembers returns the facilities due on the route in the given period
// @Summary      Facilities scheduled on a route
// @Tags         routes
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Route ID"
// @Param        month  query     string  false  "Ethiopian month (default: current)"
// @Param        year   query     int     false  "Ethiopian year (default: current)"
// @Success      200    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /api/routes/{id}/facilities [get]
func (h *RouteHandler) ListMembers(c *gin.Context) {
	p, ok := queryPeriod(c, h.clock)
	if !ok {
		return
	}

	facilities, err := h.routeService.Members(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"period":     p.String(),
		"parity":     p.Parity(),
		"facilities": facilities,
	}))
}

// CreateRoute
// @Summary      Create route
// @Tags         routes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RouteRequest  true  "Route payload"
// @Success      201      {object}  response.Response{data=model.Route}
// @Failure      400      {object}  response.Response
// @Router       /api/routes [post]
func (h *RouteHandler) CreateRoute(c *gin.Context) {
	var req service.RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	route, err := h.routeService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, route))
}

// UpdateRoute
// @Summary      Update route
// @Tags         routes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                true  "Route ID"
// @Param        payload  body      service.RouteRequest  true  "Route payload"
// @Success      200      {object}  response.Response{data=model.Route}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/routes/{id} [put]
func (h *RouteHandler) UpdateRoute(c *gin.Context) {
	var req service.RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	route, err := h.routeService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, route))
}

// DeleteRoute
// @Summary      Delete route
// @Description  Refused while facilities reference the route.
// @Tags         routes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Route ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/routes/{id} [delete]
func (h *RouteHandler) DeleteRoute(c *gin.Context) {
	if err := h.routeService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Route deleted successfully"}))
}
