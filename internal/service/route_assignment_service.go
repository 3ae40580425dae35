package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"logistics/internal/model"
	"logistics/internal/period"
	"logistics/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateRouteAssignmentRequest struct {
	RouteID            string           `json:"route_id" binding:"required"`
	VehicleID          string           `json:"vehicle_id" binding:"required"`
	DriverID           string           `json:"driver_id" binding:"required"`
	DelivererID        string           `json:"deliverer_id"`
	Month              string           `json:"month" binding:"required"`
	Year               int              `json:"year" binding:"required,gt=0"`
	DepartureKilometer *decimal.Decimal `json:"departure_kilometer"`
}

type UpdateAssignmentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Assigned 'In Progress' Completed Cancelled Delayed"`
}

type RouteAssignmentListQuery struct {
	Period  period.ReportingPeriod
	Status  string
	RouteID string
	Page    int
	Limit   int
}

type RouteAssignmentService interface {
	Create(ctx context.Context, userID string, req CreateRouteAssignmentRequest) (*model.RouteAssignment, error)
	Get(ctx context.Context, id string) (*model.RouteAssignment, error)
	List(ctx context.Context, q RouteAssignmentListQuery) ([]model.RouteAssignment, int64, error)
	UpdateStatus(ctx context.Context, userID string, id string, req UpdateAssignmentStatusRequest) (*model.RouteAssignment, error)
	Delete(ctx context.Context, userID string, id string) error
}

type routeAssignmentService struct {
	assignmentRepo repository.RouteAssignmentRepository
	routeRepo      repository.RouteRepository
	vehicleRepo    repository.VehicleRepository
	userRepo       repository.UserRepository
	requestRepo    repository.VehicleRequestRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	events         EventPublisher
	log            *zap.Logger
}

func NewRouteAssignmentService(
	assignmentRepo repository.RouteAssignmentRepository,
	routeRepo repository.RouteRepository,
	vehicleRepo repository.VehicleRepository,
	userRepo repository.UserRepository,
	requestRepo repository.VehicleRequestRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
	log *zap.Logger,
) RouteAssignmentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &routeAssignmentService{
		assignmentRepo: assignmentRepo,
		routeRepo:      routeRepo,
		vehicleRepo:    vehicleRepo,
		userRepo:       userRepo,
		requestRepo:    requestRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		events:         publisherOrNop(events),
		log:            log,
	}
}

// Create dispatches a vehicle on a route. The route must already hold a
// vehicle request for the period.
func (s *routeAssignmentService) Create(ctx context.Context, userID string, req CreateRouteAssignmentRequest) (*model.RouteAssignment, error) {
	routeID, err := parseID("route", req.RouteID)
	if err != nil {
		return nil, err
	}
	vehicleID, err := parseID("vehicle", req.VehicleID)
	if err != nil {
		return nil, err
	}
	driverID, err := parseID("driver", req.DriverID)
	if err != nil {
		return nil, err
	}
	p, err := resolvePeriod(req.Month, req.Year)
	if err != nil {
		return nil, err
	}

	assignment := &model.RouteAssignment{
		RouteID:        routeID,
		VehicleID:      vehicleID,
		DriverID:       driverID,
		EthiopianMonth: p.String(),
		Status:         model.AssignmentStatusAssigned,
		AssignedBy:     actorID(userID),
	}
	if req.DepartureKilometer != nil {
		if req.DepartureKilometer.IsNegative() {
			return nil, validationError("departure_kilometer must not be negative")
		}
		assignment.DepartureKilometer = decimal.NewNullDecimal(*req.DepartureKilometer)
	}
	if req.DelivererID != "" {
		delivererID, err := parseID("deliverer", req.DelivererID)
		if err != nil {
			return nil, err
		}
		assignment.DelivererID = &delivererID
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		route, err := s.routeRepo.GetByID(txCtx, routeID)
		if err != nil {
			return lookupError(err, "route")
		}
		if _, err := s.requestRepo.Find(txCtx, routeID, p.MonthName(), p.Year); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return preconditionError(nil, "route %s has no vehicle request for %s", route.Name, p)
			}
			return fmt.Errorf("failed to check vehicle request: %w", err)
		}

		vehicle, err := s.vehicleRepo.GetByID(txCtx, vehicleID)
		if err != nil {
			return lookupError(err, "vehicle")
		}
		if vehicle.Status != model.VehicleStatusAvailable {
			return preconditionError(map[string]interface{}{"vehicle_status": vehicle.Status},
				"vehicle %s is not available (%s)", vehicle.PlateNumber, vehicle.Status)
		}
		if err := s.requireRole(txCtx, driverID, model.RoleDriver, "driver"); err != nil {
			return err
		}
		if assignment.DelivererID != nil {
			if err := s.requireRole(txCtx, *assignment.DelivererID, model.RoleDeliverer, "deliverer"); err != nil {
				return err
			}
		}

		if err := s.assignmentRepo.Create(txCtx, assignment); err != nil {
			return fmt.Errorf("failed to create route assignment: %w", err)
		}
		if err := s.vehicleRepo.UpdateStatus(txCtx, vehicleID, model.VehicleStatusInUse); err != nil {
			return fmt.Errorf("failed to update vehicle status: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreateAssignment, assignment.ID.String(), route.Name,
			map[string]interface{}{"period": p.String(), "vehicle": vehicle.PlateNumber})
	})
	if err != nil {
		return nil, err
	}

	return s.reloadAndPublish(ctx, assignment.ID.String())
}

func (s *routeAssignmentService) requireRole(ctx context.Context, id uuid.UUID, role, kind string) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return lookupError(err, kind)
	}
	if user.Role != role {
		return validationError("user %s is not a %s", user.Username, kind)
	}
	return nil
}

func (s *routeAssignmentService) Get(ctx context.Context, id string) (*model.RouteAssignment, error) {
	assignmentID, err := parseID("route assignment", id)
	if err != nil {
		return nil, err
	}
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, lookupError(err, "route assignment")
	}
	return assignment, nil
}

func (s *routeAssignmentService) List(ctx context.Context, q RouteAssignmentListQuery) ([]model.RouteAssignment, int64, error) {
	if q.Status != "" && !model.IsValidAssignmentStatus(q.Status) {
		return nil, 0, validationError("invalid status %q", q.Status)
	}
	filter := repository.RouteAssignmentFilter{
		EthiopianMonth: q.Period.String(),
		Status:         q.Status,
		Page:           q.Page,
		Limit:          q.Limit,
	}
	if q.RouteID != "" {
		routeID, err := parseID("route", q.RouteID)
		if err != nil {
			return nil, 0, err
		}
		filter.RouteID = &routeID
	}
	return s.assignmentRepo.List(ctx, filter)
}

// UpdateStatus stamps dispatched_at on In Progress and completed_at on
// Completed. Completed and Cancelled are final and free the vehicle.
func (s *routeAssignmentService) UpdateStatus(ctx context.Context, userID string, id string, req UpdateAssignmentStatusRequest) (*model.RouteAssignment, error) {
	assignmentID, err := parseID("route assignment", id)
	if err != nil {
		return nil, err
	}
	if !model.IsValidAssignmentStatus(req.Status) {
		return nil, validationError("invalid status %q", req.Status)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		assignment, err := s.assignmentRepo.GetByID(txCtx, assignmentID)
		if err != nil {
			return lookupError(err, "route assignment")
		}
		if !model.CanTransitionAssignment(assignment.Status, req.Status) {
			return preconditionError(map[string]interface{}{"from": assignment.Status, "to": req.Status},
				"route assignment cannot move from %s to %s", assignment.Status, req.Status)
		}

		now := time.Now()
		fields := map[string]interface{}{"status": req.Status}
		switch req.Status {
		case model.AssignmentStatusInProgress:
			if assignment.DispatchedAt == nil {
				fields["dispatched_at"] = &now
			}
		case model.AssignmentStatusCompleted:
			fields["completed_at"] = &now
		}
		if err := s.assignmentRepo.UpdateFields(txCtx, assignmentID, fields); err != nil {
			return fmt.Errorf("failed to update route assignment: %w", err)
		}

		if model.IsFinalAssignmentStatus(req.Status) {
			if err := s.releaseVehicle(txCtx, assignment); err != nil {
				return err
			}
		}

		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdateAssignment, assignment.ID.String(), assignment.EthiopianMonth,
			map[string]interface{}{"from": assignment.Status, "to": req.Status})
	})
	if err != nil {
		return nil, err
	}

	return s.reloadAndPublish(ctx, id)
}

func (s *routeAssignmentService) Delete(ctx context.Context, userID string, id string) error {
	assignmentID, err := parseID("route assignment", id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		assignment, err := s.assignmentRepo.GetByID(txCtx, assignmentID)
		if err != nil {
			return lookupError(err, "route assignment")
		}
		if err := s.assignmentRepo.Delete(txCtx, assignmentID); err != nil {
			return fmt.Errorf("failed to delete route assignment: %w", err)
		}
		if !model.IsFinalAssignmentStatus(assignment.Status) {
			if err := s.releaseVehicle(txCtx, assignment); err != nil {
				return err
			}
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionDeleteAssignment, assignment.ID.String(), assignment.EthiopianMonth,
			map[string]interface{}{"status": assignment.Status})
	})
}

// releaseVehicle frees the assignment's vehicle unless another assignment
// still holds it.
func (s *routeAssignmentService) releaseVehicle(ctx context.Context, assignment *model.RouteAssignment) error {
	others, err := s.assignmentRepo.CountActiveForVehicle(ctx, assignment.VehicleID, assignment.ID)
	if err != nil {
		return fmt.Errorf("failed to check vehicle assignments: %w", err)
	}
	if others > 0 {
		return nil
	}
	if err := s.vehicleRepo.UpdateStatus(ctx, assignment.VehicleID, model.VehicleStatusAvailable); err != nil {
		return fmt.Errorf("failed to release vehicle: %w", err)
	}
	return nil
}

func (s *routeAssignmentService) reloadAndPublish(ctx context.Context, id string) (*model.RouteAssignment, error) {
	assignment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("route assignment updated",
		zap.String("assignment_id", assignment.ID.String()),
		zap.String("status", assignment.Status),
		zap.String("period", assignment.EthiopianMonth))
	s.events.Publish(EventAssignmentUpdated, assignment)
	return assignment, nil
}
