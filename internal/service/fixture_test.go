package service

import (
	"sync"
	"testing"

	"logistics/internal/lock"
	"logistics/internal/period"
	"logistics/internal/repository"
	"logistics/internal/testutil"

	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// tahsas is the Odd period pinned by testutil.Tahsas2018.
var tahsas = period.ReportingPeriod{Month: period.Tahsas, Year: 2018}

type recordedEvent struct {
	Name string
	Data interface{}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) Publish(event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Name: event, Data: data})
}

func (r *eventRecorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

type fixture struct {
	db          *gorm.DB
	events      *eventRecorder
	processes   ProcessService
	requests    VehicleRequestService
	odns        ODNService
	assignments RouteAssignmentService
	reports     ReportService
	facilities  FacilityService
	routes      RouteService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zaptest.NewLogger(t)
	events := &eventRecorder{}
	clock := testutil.FixedClock(testutil.Tahsas2018)

	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	routeRepo := repository.NewRouteRepository(db)
	facilityRepo := repository.NewFacilityRepository(db)
	processRepo := repository.NewProcessRepository(db)
	odnRepo := repository.NewODNRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	requestRepo := repository.NewVehicleRequestRepository(db)
	assignmentRepo := repository.NewRouteAssignmentRepository(db)

	return &fixture{
		db:          db,
		events:      events,
		processes:   NewProcessService(processRepo, facilityRepo, odnRepo, auditRepo, txManager, events, clock, log),
		requests:    NewVehicleRequestService(routeRepo, facilityRepo, processRepo, requestRepo, auditRepo, txManager, lock.NopLocker{}, events, log),
		odns:        NewODNService(odnRepo, assignmentRepo, txManager, events, log),
		assignments: NewRouteAssignmentService(assignmentRepo, routeRepo, vehicleRepo, userRepo, requestRepo, auditRepo, txManager, events, log),
		reports:     NewReportService(repository.NewReportRepository(db)),
		facilities:  NewFacilityService(facilityRepo, routeRepo, processRepo),
		routes:      NewRouteService(routeRepo, facilityRepo),
	}
}

func boolPtr(b bool) *bool { return &b }
