package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"logistics/internal/lock"
	"logistics/internal/model"
	"logistics/internal/period"
	"logistics/internal/repository"
	"logistics/internal/service"
	"logistics/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var tahsas = period.ReportingPeriod{Month: period.Tahsas, Year: 2018}

type testServer struct {
	db     *gorm.DB
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zaptest.NewLogger(t)
	clock := testutil.FixedClock(testutil.Tahsas2018)

	txManager := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	routeRepo := repository.NewRouteRepository(db)
	facilityRepo := repository.NewFacilityRepository(db)
	processRepo := repository.NewProcessRepository(db)
	odnRepo := repository.NewODNRepository(db)
	requestRepo := repository.NewVehicleRequestRepository(db)
	assignmentRepo := repository.NewRouteAssignmentRepository(db)

	processService := service.NewProcessService(processRepo, facilityRepo, odnRepo, auditRepo, txManager, nil, clock, log)
	requestService := service.NewVehicleRequestService(routeRepo, facilityRepo, processRepo, requestRepo, auditRepo, txManager, lock.NopLocker{}, nil, log)
	odnService := service.NewODNService(odnRepo, assignmentRepo, txManager, nil, log)

	r := testutil.SetupRouter()
	api := r.Group("")
	NewProcessHandler(processService, clock).RegisterRoutes(api)
	NewVehicleRequestHandler(requestService, clock).RegisterRoutes(api)
	NewODNHandler(odnService, clock).RegisterRoutes(api)

	return &testServer{db: db, router: r}
}

func (s *testServer) token(t *testing.T, role string) string {
	t.Helper()
	u := testutil.CreateUser(t, s.db, role)
	return testutil.GenerateTestToken(t, u.ID.String(), role)
}

func TestStartProcessRoleGuard(t *testing.T) {
	s := newTestServer(t)
	facility := testutil.CreateFacility(t, s.db, "Arada HC", nil, model.FacilityPeriodOdd)
	body := service.StartProcessRequest{FacilityID: facility.ID.String()}

	w := testutil.DoRequest(t, s.router, http.MethodPost, "/api/start-process", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.DoRequest(t, s.router, http.MethodPost, "/api/start-process", s.token(t, model.RoleDispatcher), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.DoRequest(t, s.router, http.MethodPost, "/api/start-process", s.token(t, model.RoleO2COfficer), body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var process model.Process
	require.NoError(t, json.Unmarshal(testutil.ParseResponse(t, w).Data, &process))
	assert.Equal(t, model.ProcessStatusO2CStarted, process.Status)
	assert.Equal(t, "Tahsas 2018", process.ReportingMonth)

	w = testutil.DoRequest(t, s.router, http.MethodPost, "/api/start-process", s.token(t, model.RoleAdmin), body)
	assert.Equal(t, http.StatusBadRequest, w.Code, "second start in the same period")
}

func TestSubmitVehicleRequestReportsReadiness(t *testing.T) {
	s := newTestServer(t)
	route := testutil.CreateRoute(t, s.db, "AD-R-2")
	ready := testutil.CreateFacility(t, s.db, "Arada HC", route, model.FacilityPeriodOdd)
	pending := testutil.CreateFacility(t, s.db, "Kirkos HC", route, model.FacilityPeriodOdd)
	testutil.CreateProcess(t, s.db, ready, tahsas, model.ProcessStatusEWMCompleted, "ODN-1")
	testutil.CreateProcess(t, s.db, pending, tahsas, model.ProcessStatusCompleted, "ODN-2")

	body := service.SubmitVehicleRequest{RouteID: route.ID.String(), Month: "Tahsas", Year: 2018}
	w := testutil.DoRequest(t, s.router, http.MethodPost, "/api/pi-vehicle-requests/request", s.token(t, model.RolePIOfficer), body)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	env := testutil.ParseResponse(t, w)
	assert.Equal(t, "error", env.Status)
	var details map[string]int
	require.NoError(t, json.Unmarshal(env.Details, &details))
	assert.Equal(t, 2, details["totalFacilities"])
	assert.Equal(t, 1, details["ewmCompletedCount"])
	assert.Equal(t, 1, details["pendingCount"])
}

func TestBulkPODReturnsPartialResults(t *testing.T) {
	s := newTestServer(t)
	route := testutil.CreateRoute(t, s.db, "AD-R-3")
	facility := testutil.CreateFacility(t, s.db, "Arada HC", route, model.FacilityPeriodOdd)
	process := testutil.CreateProcess(t, s.db, facility, tahsas, model.ProcessStatusVehicleRequested, "ODN-1", "ODN-2")
	testutil.CreateVehicleRequest(t, s.db, route, tahsas)
	testutil.CreateAssignment(t, s.db, route, tahsas, model.AssignmentStatusCompleted)

	confirmed, missingReason := true, false
	body := service.BulkPODRequest{Updates: []service.PODConfirmation{
		{ODNID: process.ODNs[0].ID.String(), PODConfirmed: &confirmed},
		{ODNID: process.ODNs[1].ID.String(), PODConfirmed: &missingReason},
	}}
	w := testutil.DoRequest(t, s.router, http.MethodPut, "/api/odns/bulk-pod-confirmation", s.token(t, model.RoleDispatcher), body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res service.BulkResult
	require.NoError(t, json.Unmarshal(testutil.ParseResponse(t, w).Data, &res))
	assert.Equal(t, 2, res.TotalProcessed)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 1, res.Failed)
	assert.NotEmpty(t, res.Results[1].Error)

	w = testutil.DoRequest(t, s.router, http.MethodPut, "/api/odns/bulk-pod-confirmation", s.token(t, model.RoleDispatcher),
		service.BulkPODRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty batch")
}

func TestSingleChecklistErrors(t *testing.T) {
	s := newTestServer(t)
	facility := testutil.CreateFacility(t, s.db, "Arada HC", nil, model.FacilityPeriodOdd)
	process := testutil.CreateProcess(t, s.db, facility, tahsas, model.ProcessStatusEWMCompleted, "ODN-1")
	confirmed := true

	w := testutil.DoRequest(t, s.router, http.MethodPut, "/api/odns/"+process.ODNs[0].ID.String()+"/followup",
		s.token(t, model.RoleDocumentationOfficer), service.FollowupUpdate{DocumentsSigned: &confirmed})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = testutil.DoRequest(t, s.router, http.MethodPut, "/api/odns/"+process.ODNs[0].ID.String()+"/quality-evaluation",
		s.token(t, model.RoleDocumentationOfficer), service.QualityEvaluation{QualityConfirmed: &confirmed})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.DoRequest(t, s.router, http.MethodPut, "/api/odns/00000000-0000-0000-0000-000000000000/pod-confirmation",
		s.token(t, model.RoleDispatcher), service.PODConfirmation{PODConfirmed: &confirmed})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQueryPeriodValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, model.RoleAdmin)

	w := testutil.DoRequest(t, s.router, http.MethodGet, "/api/odns?month=Genbot&year=2018", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoRequest(t, s.router, http.MethodGet, "/api/odns?month=Smarch", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(t, s.router, http.MethodGet, "/api/pi-vehicle-requests?year=-4", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(t, s.router, http.MethodGet, "/api/odns?stage=shipping", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
