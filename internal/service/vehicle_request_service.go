package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"logistics/internal/lock"
	"logistics/internal/model"
	"logistics/internal/period"
	"logistics/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FacilityStatusPending stands in for a facility with no process in the period.
const FacilityStatusPending = "pending"

type SubmitVehicleRequest struct {
	RouteID     string `json:"route_id" binding:"required"`
	Month       string `json:"month" binding:"required"`
	Year        int    `json:"year" binding:"required,gt=0"`
	RequestedBy string `json:"requested_by"`
}

type FacilityReadiness struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Code      string      `json:"code"`
	Period    *string     `json:"period"`
	ProcessID *uuid.UUID  `json:"processId"`
	Status    string      `json:"status"`
	ODNs      []model.ODN `json:"odns"`
}

// RouteReadiness is the evaluation of one route for one period.
type RouteReadiness struct {
	RouteID               uuid.UUID           `json:"routeId"`
	RouteName             string              `json:"routeName"`
	Month                 string              `json:"month"`
	Year                  int                 `json:"year"`
	TotalFacilities       int                 `json:"totalFacilities"`
	EWMCompletedCount     int                 `json:"ewmCompletedCount"`
	VehicleRequestedCount int                 `json:"vehicleRequestedCount"`
	PendingCount          int                 `json:"pendingCount"`
	IsReady               bool                `json:"isReady"`
	AlreadyRequested      bool                `json:"alreadyRequested"`
	RequestedAt           *time.Time          `json:"requestedAt,omitempty"`
	Facilities            []FacilityReadiness `json:"facilities"`
}

type VehicleRequestStats struct {
	TotalRoutes     int `json:"totalRoutes"`
	RequestedRoutes int `json:"requestedRoutes"`
}

type VehicleRequestListQuery struct {
	Period period.ReportingPeriod
	Search string
	Page   int
	Limit  int
}

// VehicleRequestService aggregates process status across a route's member
// facilities and gates the vehicle request on the whole route.
type VehicleRequestService interface {
	Evaluate(ctx context.Context, routeID string, p period.ReportingPeriod) (*RouteReadiness, error)
	ListReady(ctx context.Context, q VehicleRequestListQuery) ([]RouteReadiness, int64, error)
	Stats(ctx context.Context, p period.ReportingPeriod) (*VehicleRequestStats, error)
	Submit(ctx context.Context, userID string, req SubmitVehicleRequest) (*model.PIVehicleRequest, error)
	Delete(ctx context.Context, userID string, routeID string, p period.ReportingPeriod) error
}

type vehicleRequestService struct {
	routeRepo    repository.RouteRepository
	facilityRepo repository.FacilityRepository
	processRepo  repository.ProcessRepository
	requestRepo  repository.VehicleRequestRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	locker       lock.Locker
	events       EventPublisher
	log          *zap.Logger
}

func NewVehicleRequestService(
	routeRepo repository.RouteRepository,
	facilityRepo repository.FacilityRepository,
	processRepo repository.ProcessRepository,
	requestRepo repository.VehicleRequestRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	locker lock.Locker,
	events EventPublisher,
	log *zap.Logger,
) VehicleRequestService {
	if locker == nil {
		locker = lock.NopLocker{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &vehicleRequestService{
		routeRepo:    routeRepo,
		facilityRepo: facilityRepo,
		processRepo:  processRepo,
		requestRepo:  requestRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		locker:       locker,
		events:       publisherOrNop(events),
		log:          log,
	}
}

// evaluateReadiness is the pure aggregation over one route's members.
// A route is ready only when every member is ewm_completed or every member
// is vehicle_requested; any mix, or an empty route, is not ready.
func evaluateReadiness(route model.Route, p period.ReportingPeriod, members []model.Facility,
	processes map[uuid.UUID]model.Process, request *model.PIVehicleRequest) RouteReadiness {

	r := RouteReadiness{
		RouteID:    route.ID,
		RouteName:  route.Name,
		Month:      p.MonthName(),
		Year:       p.Year,
		Facilities: make([]FacilityReadiness, 0, len(members)),
	}

	for _, f := range members {
		fr := FacilityReadiness{
			ID:     f.ID,
			Name:   f.Name,
			Code:   f.Code,
			Period: f.Period,
			Status: FacilityStatusPending,
			ODNs:   []model.ODN{},
		}
		if proc, ok := processes[f.ID]; ok {
			id := proc.ID
			fr.ProcessID = &id
			fr.Status = proc.Status
			if proc.ODNs != nil {
				fr.ODNs = proc.ODNs
			}
		}

		switch fr.Status {
		case model.ProcessStatusEWMCompleted:
			r.EWMCompletedCount++
		case model.ProcessStatusVehicleRequested:
			r.VehicleRequestedCount++
		default:
			r.PendingCount++
		}
		r.Facilities = append(r.Facilities, fr)
	}

	r.TotalFacilities = len(members)
	r.IsReady = r.TotalFacilities > 0 &&
		(r.EWMCompletedCount == r.TotalFacilities || r.VehicleRequestedCount == r.TotalFacilities)
	r.AlreadyRequested = request != nil || r.VehicleRequestedCount > 0
	if request != nil {
		at := request.RequestedAt
		r.RequestedAt = &at
	}
	return r
}

// evaluateRoutes loads members, processes and requests for all routes with
// a fixed number of queries and evaluates each route.
func (s *vehicleRequestService) evaluateRoutes(ctx context.Context, routes []model.Route, p period.ReportingPeriod) ([]RouteReadiness, error) {
	if len(routes) == 0 {
		return []RouteReadiness{}, nil
	}

	routeIDs := make([]uuid.UUID, 0, len(routes))
	for _, r := range routes {
		routeIDs = append(routeIDs, r.ID)
	}

	members, err := s.facilityRepo.ListRouteMembers(ctx, routeIDs, p.Parity())
	if err != nil {
		return nil, fmt.Errorf("failed to load route members: %w", err)
	}
	membersByRoute := make(map[uuid.UUID][]model.Facility, len(routes))
	facilityIDs := make([]uuid.UUID, 0, len(members))
	for _, f := range members {
		if f.RouteID == nil {
			continue
		}
		membersByRoute[*f.RouteID] = append(membersByRoute[*f.RouteID], f)
		facilityIDs = append(facilityIDs, f.ID)
	}

	processes, err := s.processRepo.ListByFacilities(ctx, facilityIDs, p.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load processes: %w", err)
	}
	byFacility := make(map[uuid.UUID]model.Process, len(processes))
	for _, proc := range processes {
		byFacility[proc.FacilityID] = proc
	}

	requests, err := s.requestRepo.ListForPeriod(ctx, p.MonthName(), p.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicle requests: %w", err)
	}
	byRoute := make(map[uuid.UUID]*model.PIVehicleRequest, len(requests))
	for i := range requests {
		byRoute[requests[i].RouteID] = &requests[i]
	}

	out := make([]RouteReadiness, 0, len(routes))
	for _, route := range routes {
		out = append(out, evaluateReadiness(route, p, membersByRoute[route.ID], byFacility, byRoute[route.ID]))
	}
	return out, nil
}

func (s *vehicleRequestService) Evaluate(ctx context.Context, id string, p period.ReportingPeriod) (*RouteReadiness, error) {
	routeID, err := parseID("route", id)
	if err != nil {
		return nil, err
	}
	route, err := s.routeRepo.GetByID(ctx, routeID)
	if err != nil {
		return nil, lookupError(err, "route")
	}
	res, err := s.evaluateRoutes(ctx, []model.Route{*route}, p)
	if err != nil {
		return nil, err
	}
	return &res[0], nil
}

// ListReady returns only the actionable routes; pagination applies after
// readiness filtering.
func (s *vehicleRequestService) ListReady(ctx context.Context, q VehicleRequestListQuery) ([]RouteReadiness, int64, error) {
	ready, err := s.readyRoutes(ctx, q.Period, q.Search)
	if err != nil {
		return nil, 0, err
	}

	total := int64(len(ready))
	if q.Limit <= 0 {
		return ready, total, nil
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * q.Limit
	if start >= len(ready) {
		return []RouteReadiness{}, total, nil
	}
	end := start + q.Limit
	if end > len(ready) {
		end = len(ready)
	}
	return ready[start:end], total, nil
}

func (s *vehicleRequestService) Stats(ctx context.Context, p period.ReportingPeriod) (*VehicleRequestStats, error) {
	ready, err := s.readyRoutes(ctx, p, "")
	if err != nil {
		return nil, err
	}
	stats := &VehicleRequestStats{TotalRoutes: len(ready)}
	for _, r := range ready {
		if r.AlreadyRequested {
			stats.RequestedRoutes++
		}
	}
	return stats, nil
}

func (s *vehicleRequestService) readyRoutes(ctx context.Context, p period.ReportingPeriod, search string) ([]RouteReadiness, error) {
	routes, _, err := s.routeRepo.List(ctx, search, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}
	all, err := s.evaluateRoutes(ctx, routes, p)
	if err != nil {
		return nil, err
	}
	ready := make([]RouteReadiness, 0, len(all))
	for _, r := range all {
		if r.IsReady {
			ready = append(ready, r)
		}
	}
	return ready, nil
}

func (s *vehicleRequestService) Submit(ctx context.Context, userID string, req SubmitVehicleRequest) (*model.PIVehicleRequest, error) {
	routeID, err := parseID("route", req.RouteID)
	if err != nil {
		return nil, err
	}
	p, err := resolvePeriod(req.Month, req.Year)
	if err != nil {
		return nil, err
	}
	requestedBy := actorID(userID)
	if req.RequestedBy != "" {
		id, err := parseID("requested_by", req.RequestedBy)
		if err != nil {
			return nil, err
		}
		requestedBy = &id
	}

	release, err := s.locker.Acquire(ctx, routeLockKey(routeID, p))
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, conflictError("a vehicle request for this route and period is already being processed")
		}
		return nil, fmt.Errorf("failed to acquire route lock: %w", err)
	}
	defer release()

	var request *model.PIVehicleRequest
	var transitioned int64
	var routeName string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.txManager.AdvisoryLock(txCtx, routeLockKey(routeID, p)); err != nil {
			return fmt.Errorf("failed to lock route: %w", err)
		}

		route, err := s.routeRepo.GetByID(txCtx, routeID)
		if err != nil {
			return lookupError(err, "route")
		}
		routeName = route.Name

		if _, err := s.requestRepo.Find(txCtx, routeID, p.MonthName(), p.Year); err == nil {
			return conflictError("Vehicle already requested for route %s in %s", route.Name, p)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check existing vehicle request: %w", err)
		}

		evals, err := s.evaluateRoutes(txCtx, []model.Route{*route}, p)
		if err != nil {
			return err
		}
		eval := evals[0]
		if eval.TotalFacilities == 0 || eval.EWMCompletedCount != eval.TotalFacilities {
			return preconditionError(map[string]interface{}{
				"totalFacilities":       eval.TotalFacilities,
				"ewmCompletedCount":     eval.EWMCompletedCount,
				"vehicleRequestedCount": eval.VehicleRequestedCount,
				"pendingCount":          eval.TotalFacilities - eval.EWMCompletedCount,
			}, "Not all facilities are EWM completed: %d of %d ready, %d facility(ies) pending",
				eval.EWMCompletedCount, eval.TotalFacilities, eval.TotalFacilities-eval.EWMCompletedCount)
		}

		ids := processIDs(eval)
		request = &model.PIVehicleRequest{
			RouteID:     routeID,
			Month:       p.MonthName(),
			Year:        p.Year,
			RequestedBy: requestedBy,
			ProcessIDs:  ids,
			RequestedAt: time.Now(),
		}
		if err := s.requestRepo.Create(txCtx, request); err != nil {
			return fmt.Errorf("failed to create vehicle request: %w", err)
		}

		transitioned, err = s.processRepo.BulkTransition(txCtx, ids,
			model.ProcessStatusEWMCompleted, model.ProcessStatusVehicleRequested)
		if err != nil {
			return fmt.Errorf("failed to transition processes: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, userID, model.ActionSubmitVehicleRequest, request.ID.String(), route.Name,
			map[string]interface{}{"period": p.String(), "processes": transitioned})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("vehicle request submitted",
		zap.String("route", routeName),
		zap.String("period", p.String()),
		zap.Int64("processes", transitioned))
	s.events.Publish(EventVehicleRequested, map[string]interface{}{
		"route_id": routeID, "route_name": routeName, "month": p.MonthName(), "year": p.Year,
	})
	return request, nil
}

// Delete removes the route's request and returns its vehicle_requested
// processes to ewm_completed.
func (s *vehicleRequestService) Delete(ctx context.Context, userID string, id string, p period.ReportingPeriod) error {
	routeID, err := parseID("route", id)
	if err != nil {
		return err
	}

	release, err := s.locker.Acquire(ctx, routeLockKey(routeID, p))
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return conflictError("a vehicle request for this route and period is already being processed")
		}
		return fmt.Errorf("failed to acquire route lock: %w", err)
	}
	defer release()

	var reverted int64
	var routeName string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.txManager.AdvisoryLock(txCtx, routeLockKey(routeID, p)); err != nil {
			return fmt.Errorf("failed to lock route: %w", err)
		}

		route, err := s.routeRepo.GetByID(txCtx, routeID)
		if err != nil {
			return lookupError(err, "route")
		}
		routeName = route.Name

		request, err := s.requestRepo.Find(txCtx, routeID, p.MonthName(), p.Year)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("no vehicle request for route %s in %s", route.Name, p)
			}
			return fmt.Errorf("failed to load vehicle request: %w", err)
		}
		if err := s.requestRepo.Delete(txCtx, request.ID); err != nil {
			return fmt.Errorf("failed to delete vehicle request: %w", err)
		}

		// Revert what the request recorded plus anything still requested
		// on the route.
		onRoute, err := s.processRepo.ListIDsOnRoute(txCtx, routeID, p.String(), model.ProcessStatusVehicleRequested)
		if err != nil {
			return fmt.Errorf("failed to load requested processes: %w", err)
		}
		reverted, err = s.processRepo.BulkTransition(txCtx, mergeIDs(request.ProcessIDs, onRoute),
			model.ProcessStatusVehicleRequested, model.ProcessStatusEWMCompleted)
		if err != nil {
			return fmt.Errorf("failed to revert processes: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, userID, model.ActionDeleteVehicleRequest, request.ID.String(), route.Name,
			map[string]interface{}{"period": p.String(), "processes": reverted})
	})
	if err != nil {
		return err
	}

	s.log.Info("vehicle request deleted",
		zap.String("route", routeName),
		zap.String("period", p.String()),
		zap.Int64("processes", reverted))
	s.events.Publish(EventVehicleRequestDeleted, map[string]interface{}{
		"route_id": routeID, "route_name": routeName, "month": p.MonthName(), "year": p.Year,
	})
	return nil
}

func processIDs(r RouteReadiness) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Facilities))
	for _, f := range r.Facilities {
		if f.ProcessID != nil {
			ids = append(ids, *f.ProcessID)
		}
	}
	return ids
}

func mergeIDs(a, b []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(a)+len(b))
	out := make([]uuid.UUID, 0, len(a)+len(b))
	for _, list := range [][]uuid.UUID{a, b} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
