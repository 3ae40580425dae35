package handler

import (
	"net/http"

	"logistics/internal/middleware"
	"logistics/internal/service"
	"logistics/pkg/pagination"
	"logistics/pkg/response"

	"github.com/gin-gonic/gin"
)

type FacilityHandler struct {
	facilityService service.FacilityService
}

func NewFacilityHandler(facilityService service.FacilityService) *FacilityHandler {
	return &FacilityHandler{facilityService: facilityService}
}

func (h *FacilityHandler) RegisterRoutes(router *gin.RouterGroup) {
	facilities := router.Group("/api/facilities")
	{
		facilities.GET("", middleware.RequireRole(anyRole...), h.ListFacilities)
		facilities.GET("/:id", middleware.RequireRole(anyRole...), h.GetFacility)
		facilities.POST("", middleware.RequireRole(adminRoles...), h.CreateFacility)
		facilities.PUT("/:id", middleware.RequireRole(adminRoles...), h.UpdateFacility)
		facilities.DELETE("/:id", middleware.RequireRole(adminRoles...), h.DeleteFacility)
	}
}

// ListFacilities returns paginated facilities with optional route/period/search filter
// @Summary      List facilities
// @Tags         facilities
// @Security     BearerAuth
// @Produce      json
// @Param        route_id  query     string  false  "Route ID"
// @Param        period    query     string  false  "Odd, Even or Monthly"
// @Param        search    query     string  false  "Search by name or code"
// @Param        page      query     int     false  "Page number (default: 1)"
// @Param        limit     query     int     false  "Items per page (default: 20)"
// @Success      200       {object}  response.Response
// @Router       /api/facilities [get]
func (h *FacilityHandler) ListFacilities(c *gin.Context) {
	pg := pagination.Parse(c)

	facilities, total, err := h.facilityService.List(c.Request.Context(), service.FacilityListQuery{
		RouteID: c.Query("route_id"),
		Period:  c.Query("period"),
		Search:  c.Query("search"),
		Page:    pg.Page,
		Limit:   pg.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, facilities, pg.Page, pg.Limit, total))
}

// GetFacility
// @Summary      Get facility
// @Tags         facilities
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Facility ID"
// @Success      200  {object}  response.Response{data=model.Facility}
// @Failure      404  {object}  response.Response
// @Router       /api/facilities/{id} [get]
func (h *FacilityHandler) GetFacility(c *gin.Context) {
	facility, err := h.facilityService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, facility))
}

// CreateFacility
// @Summary      Create facility
// @Tags         facilities
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.FacilityRequest  true  "Facility payload"
// @Success      201      {object}  response.Response{data=model.Facility}
// @Failure      400      {object}  response.Response
// @Router       /api/facilities [post]
func (h *FacilityHandler) CreateFacility(c *gin.Context) {
	var req service.FacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	facility, err := h.facilityService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, facility))
}

// UpdateFacility
// @Summary      Update facility
// @Tags         facilities
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Facility ID"
// @Param        payload  body      service.FacilityRequest  true  "Facility payload"
// @Success      200      {object}  response.Response{data=model.Facility}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/facilities/{id} [put]
func (h *FacilityHandler) UpdateFacility(c *gin.Context) {
	var req service.FacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	facility, err := h.facilityService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, facility))
}

// DeleteFacility
// @Summary      Delete facility
// @Description  Refused while the facility has processes.
// @Tags         facilities
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Facility ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/facilities/{id} [delete]
func (h *FacilityHandler) DeleteFacility(c *gin.Context) {
	if err := h.facilityService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Facility deleted successfully"}))
}
