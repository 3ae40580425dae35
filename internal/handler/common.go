package handler

import (
	"errors"
	"net/http"

	"logistics/internal/model"
	"logistics/internal/period"
	"logistics/internal/service"
	"logistics/pkg/response"

	"github.com/gin-gonic/gin"
)

// Role groups guarding each pipeline stage. Admin may act everywhere.
var (
	anyRole       = model.AllRoles
	o2cRoles      = []string{model.RoleO2COfficer, model.RoleAdmin}
	ewmRoles      = []string{model.RoleEWMOfficer, model.RoleAdmin}
	piRoles       = []string{model.RolePIOfficer, model.RoleAdmin}
	dispatchRoles = []string{model.RoleDispatcher, model.RoleAdmin}
	followupRoles = []string{model.RoleDocumentationOfficer, model.RoleAdmin}
	qualityRoles  = []string{model.RoleQualityOfficer, model.RoleAdmin}
	adminRoles    = []string{model.RoleAdmin}
)

// respondError maps service error kinds onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrPrecondition),
		errors.Is(err, service.ErrConflict):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	}
	_ = c.Error(err)

	if details := service.DetailsOf(err); details != nil {
		c.JSON(status, response.ErrorWithDetails(status, err.Error(), details))
		return
	}
	c.JSON(status, response.Error(status, err.Error()))
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

// currentUserID returns the authenticated user's id, or "" when absent.
func currentUserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// queryPeriod resolves ?month=&year=, defaulting to the current period.
// It writes the 400 itself and returns false on bad input.
func queryPeriod(c *gin.Context, clock period.Clock) (period.ReportingPeriod, bool) {
	p, err := period.FromQuery(c.Query("month"), c.Query("year"), clock)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return period.ReportingPeriod{}, false
	}
	return p, true
}
