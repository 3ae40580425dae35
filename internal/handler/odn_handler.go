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

type ODNHandler struct {
	odnService service.ODNService
	clock      period.Clock
}

func NewODNHandler(odnService service.ODNService, clock period.Clock) *ODNHandler {
	return &ODNHandler{odnService: odnService, clock: clock}
}

func (h *ODNHandler) RegisterRoutes(router *gin.RouterGroup) {
	odns := router.Group("/api/odns")
	{
		odns.GET("", middleware.RequireRole(anyRole...), h.ListODNs)

		odns.PUT("/bulk-pod-confirmation", middleware.RequireRole(dispatchRoles...), h.BulkConfirmPOD)
		odns.PUT("/:id/pod-confirmation", middleware.RequireRole(dispatchRoles...), h.ConfirmPOD)

		odns.PUT("/bulk-followup", middleware.RequireRole(followupRoles...), h.BulkUpdateFollowup)
		odns.PUT("/:id/followup", middleware.RequireRole(followupRoles...), h.UpdateFollowup)

		odns.PUT("/bulk-quality-evaluation", middleware.RequireRole(qualityRoles...), h.BulkEvaluateQuality)
		odns.PUT("/:id/quality-evaluation", middleware.RequireRole(qualityRoles...), h.EvaluateQuality)
	}
}

// ListODNs returns the period's ODNs, optionally narrowed to one checklist stage
// @Summary      List ODNs
// @Tags         odns
// @Security     BearerAuth
// @Produce      json
// @Param        month     query     string  false  "Ethiopian month (default: current)"
// @Param        year      query     int     false  "Ethiopian year (default: current)"
// @Param        stage     query     string  false  "pod, followup or quality"
// @Param        route_id  query     string  false  "Route ID"
// @Param        page      query     int     false  "Page number (default: 1)"
// @Param        limit     query     int     false  "Items per page (default: 20)"
// @Success      200       {object}  response.Response
// @Router       /api/odns [get]
func (h *ODNHandler) ListODNs(c *gin.Context) {
	p, ok := queryPeriod(c, h.clock)
	if !ok {
		return
	}
	pg := pagination.Parse(c)

	odns, total, err := h.odnService.List(c.Request.Context(), service.ODNListQuery{
		Period:  p,
		Stage:   c.Query("stage"),
		RouteID: c.Query("route_id"),
		Page:    pg.Page,
		Limit:   pg.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, odns, pg.Page, pg.Limit, total))
}

// ConfirmPOD
// @Summary      Confirm proof of delivery
// @Description  Allowed once the route's latest assignment is Completed.
// @Tags         odns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "ODN ID"
// @Param        payload  body      service.PODConfirmation  true  "POD payload"
// @Success      200      {object}  response.Response{data=model.ODN}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/odns/{id}/pod-confirmation [put]
func (h *ODNHandler) ConfirmPOD(c *gin.Context) {
	var req service.PODConfirmation
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.ODNID = c.Param("id")

	odn, err := h.odnService.ConfirmPOD(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, odn))
}

// BulkConfirmPOD applies each update independently; failures are reported per item
// @Summary      Bulk confirm proof of delivery
// @Tags         odns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BulkPODRequest  true  "POD updates"
// @Success      200      {object}  response.Response{data=service.BulkResult}
// @Failure      400      {object}  response.Response
// @Router       /api/odns/bulk-pod-confirmation [put]
func (h *ODNHandler) BulkConfirmPOD(c *gin.Context) {
	var req service.BulkPODRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result := h.odnService.BulkConfirmPOD(c.Request.Context(), currentUserID(c), req)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UpdateFollowup
// @Summary      Record document follow-up
// @Description  Requires POD confirmed.
// @Tags         odns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "ODN ID"
// @Param        payload  body      service.FollowupUpdate  true  "Follow-up payload"
// @Success      200      {object}  response.Response{data=model.ODN}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/odns/{id}/followup [put]
func (h *ODNHandler) UpdateFollowup(c *gin.Context) {
	var req service.FollowupUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.ODNID = c.Param("id")

	odn, err := h.odnService.UpdateFollowup(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, odn))
}

// BulkUpdateFollowup
// @Summary      Bulk record document follow-up
// @Tags         odns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BulkFollowupRequest  true  "Follow-up updates"
// @Success      200      {object}  response.Response{data=service.BulkResult}
// @Failure      400      {object}  response.Response
// @Router       /api/odns/bulk-followup [put]
func (h *ODNHandler) BulkUpdateFollowup(c *gin.Context) {
	var req service.BulkFollowupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result := h.odnService.BulkUpdateFollowup(c.Request.Context(), currentUserID(c), req)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// EvaluateQuality
// @Summary      Record quality evaluation
// @Description  Requires documents signed and handed over.
// @Tags         odns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "ODN ID"
// @Param        payload  body      service.QualityEvaluation  true  "Quality payload"
// @Success      200      {object}  response.Response{data=model.ODN}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/odns/{id}/quality-evaluation [put]
func (h *ODNHandler) EvaluateQuality(c *gin.Context) {
	var req service.QualityEvaluation
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.ODNID = c.Param("id")

	odn, err := h.odnService.EvaluateQuality(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, odn))
}

// BulkEvaluateQuality
// @Summary      Bulk record quality evaluation
// @Tags         odns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BulkQualityRequest  true  "Quality updates"
// @Success      200      {object}  response.Response{data=service.BulkResult}
// @Failure      400      {object}  response.Response
// @Router       /api/odns/bulk-quality-evaluation [put]
func (h *ODNHandler) BulkEvaluateQuality(c *gin.Context) {
	var req service.BulkQualityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result := h.odnService.BulkEvaluateQuality(c.Request.Context(), currentUserID(c), req)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
