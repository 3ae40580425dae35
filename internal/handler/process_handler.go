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

type ProcessHandler struct {
	processService service.ProcessService
	clock          period.Clock
}

func NewProcessHandler(processService service.ProcessService, clock period.Clock) *ProcessHandler {
	return &ProcessHandler{processService: processService, clock: clock}
}

func (h *ProcessHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	{
		api.POST("/start-process", middleware.RequireRole(o2cRoles...), h.StartProcess)
		api.POST("/complete-process", middleware.RequireRole(o2cRoles...), h.CompleteProcess)
		api.POST("/ewm-complete-process", middleware.RequireRole(ewmRoles...), h.EWMCompleteProcess)
		api.POST("/ewm-revert-process", middleware.RequireRole(ewmRoles...), h.EWMRevertProcess)

		api.GET("/processes", middleware.RequireRole(anyRole...), h.ListProcesses)
		api.GET("/processes/:id", middleware.RequireRole(anyRole...), h.GetProcess)
		api.DELETE("/processes/:id", middleware.RequireRole(adminRoles...), h.DeleteProcess)
		api.POST("/processes/:id/odns", middleware.RequireRole(o2cRoles...), h.AddODNs)
		api.DELETE("/odns/:id", middleware.RequireRole(o2cRoles...), h.DeleteODN)
	}
}

// StartProcess opens a facility's process for a reporting period
// @Summary      Start process
// @Description  Creates the facility's process in o2c_started. Month/year default to the current period.
// @Tags         processes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.StartProcessRequest  true  "Start payload"
// @Success      201      {object}  response.Response{data=model.Process}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/start-process [post]
func (h *ProcessHandler) StartProcess(c *gin.Context) {
	var req service.StartProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	process, err := h.processService.Start(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, process))
}

// CompleteProcess marks O2C intake done, attaching any ODN numbers given
// @Summary      Complete process (O2C)
// @Tags         processes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CompleteProcessRequest  true  "Complete payload"
// @Success      200      {object}  response.Response{data=model.Process}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/complete-process [post]
func (h *ProcessHandler) CompleteProcess(c *gin.Context) {
	var req service.CompleteProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	process, err := h.processService.Complete(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, process))
}

// EWMCompleteProcess
// @Summary      Complete process (EWM)
// @Description  Requires the process to be O2C completed.
// @Tags         processes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ProcessActionRequest  true  "Process id"
// @Success      200      {object}  response.Response{data=model.Process}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/ewm-complete-process [post]
func (h *ProcessHandler) EWMCompleteProcess(c *gin.Context) {
	var req service.ProcessActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	process, err := h.processService.EWMComplete(c.Request.Context(), currentUserID(c), req.ProcessID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, process))
}

// EWMRevertProcess
// @Summary      Revert process to o2c_started
// @Tags         processes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ProcessActionRequest  true  "Process id"
// @Success      200      {object}  response.Response{data=model.Process}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/ewm-revert-process [post]
func (h *ProcessHandler) EWMRevertProcess(c *gin.Context) {
	var req service.ProcessActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	process, err := h.processService.EWMRevert(c.Request.Context(), currentUserID(c), req.ProcessID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, process))
}

// ListProcesses
// @Summary      List processes
// @Tags         processes
// @Security     BearerAuth
// @Produce      json
// @Param        month        query     string  false  "Ethiopian month (default: current)"
// @Param        year         query     int     false  "Ethiopian year (default: current)"
// @Param        status       query     string  false  "o2c_started, completed, ewm_completed, vehicle_requested"
// @Param        facility_id  query     string  false  "Facility ID"
// @Param        page         query     int     false  "Page number (default: 1)"
// @Param        limit        query     int     false  "Items per page (default: 20)"
// @Success      200          {object}  response.Response
// @Router       /api/processes [get]
func (h *ProcessHandler) ListProcesses(c *gin.Context) {
	p, ok := queryPeriod(c, h.clock)
	if !ok {
		return
	}
	pg := pagination.Parse(c)

	processes, total, err := h.processService.List(c.Request.Context(), service.ProcessListQuery{
		Period:     p,
		Status:     c.Query("status"),
		FacilityID: c.Query("facility_id"),
		Page:       pg.Page,
		Limit:      pg.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, processes, pg.Page, pg.Limit, total))
}

// GetProcess
// @Summary      Get process with its ODNs
// @Tags         processes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Process ID"
// @Success      200  {object}  response.Response{data=model.Process}
// @Failure      404  {object}  response.Response
// @Router       /api/processes/{id} [get]
func (h *ProcessHandler) GetProcess(c *gin.Context) {
	process, err := h.processService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, process))
}

// DeleteProcess hard-deletes a process and its ODNs
// @Summary      Delete process
// @Tags         processes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Process ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/processes/{id} [delete]
func (h *ProcessHandler) DeleteProcess(c *gin.Context) {
	if err := h.processService.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Process deleted successfully"}))
}

// AddODNs
// @Summary      Add ODN numbers to a process
// @Tags         processes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Process ID"
// @Param        payload  body      service.AddODNsRequest  true  "ODN numbers"
// @Success      200      {object}  response.Response{data=model.Process}
// @Failure      400      {object}  response.Response
// @Router       /api/processes/{id}/odns [post]
func (h *ProcessHandler) AddODNs(c *gin.Context) {
	var req service.AddODNsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	process, err := h.processService.AddODNs(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, process))
}

// DeleteODN
// @Summary      Remove an ODN from its process
// @Tags         processes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "ODN ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/odns/{id} [delete]
func (h *ProcessHandler) DeleteODN(c *gin.Context) {
	if err := h.processService.DeleteODN(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "ODN deleted successfully"}))
}
