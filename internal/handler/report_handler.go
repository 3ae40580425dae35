package handler

import (
	"net/http"

	"logistics/internal/middleware"
	"logistics/internal/period"
	"logistics/internal/service"
	"logistics/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
	clock         period.Clock
}

func NewReportHandler(reportService service.ReportService, clock period.Clock) *ReportHandler {
	return &ReportHandler{reportService: reportService, clock: clock}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	api.Use(middleware.RequireRole(anyRole...))
	{
		api.GET("/reports/odn-summary", h.ODNSummary)
		api.GET("/period/current", h.CurrentPeriod)
	}
}

// ODNSummary
// @Summary      ODN delivery summary per route
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        month  query     string  false  "Ethiopian month (default: current)"
// @Param        year   query     int     false  "Ethiopian year (default: current)"
// @Success      200    {object}  response.Response{data=model.ODNSummary}
// @Router       /api/reports/odn-summary [get]
func (h *ReportHandler) ODNSummary(c *gin.Context) {
	p, ok := queryPeriod(c, h.clock)
	if !ok {
		return
	}

	summary, err := h.reportService.ODNSummary(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// CurrentPeriod
// @Summary      Current Ethiopian reporting period
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/period/current [get]
func (h *ReportHandler) CurrentPeriod(c *gin.Context) {
	p := period.Current(h.clock)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"month":  p.MonthName(),
		"year":   p.Year,
		"period": p.String(),
		"parity": p.Parity(),
	}))
}
