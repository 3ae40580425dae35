package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"logistics/internal/model"
	"logistics/internal/period"
	"logistics/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type StartProcessRequest struct {
	FacilityID string   `json:"facility_id" binding:"required"`
	Month      string   `json:"month"`
	Year       int      `json:"year"`
	ODNNumbers []string `json:"odn_numbers"`
}

type CompleteProcessRequest struct {
	ProcessID  string   `json:"process_id" binding:"required"`
	ODNNumbers []string `json:"odn_numbers"`
}

type ProcessActionRequest struct {
	ProcessID string `json:"process_id" binding:"required"`
}

type AddODNsRequest struct {
	ODNNumbers []string `json:"odn_numbers" binding:"required,min=1"`
}

type ProcessListQuery struct {
	Period     period.ReportingPeriod
	Status     string
	FacilityID string
	Page       int
	Limit      int
}

// ProcessService drives a facility's per-period process through
// o2c_started, completed and ewm_completed. The vehicle_requested stage
// is owned by VehicleRequestService.
type ProcessService interface {
	Start(ctx context.Context, userID string, req StartProcessRequest) (*model.Process, error)
	Complete(ctx context.Context, userID string, req CompleteProcessRequest) (*model.Process, error)
	EWMComplete(ctx context.Context, userID string, processID string) (*model.Process, error)
	EWMRevert(ctx context.Context, userID string, processID string) (*model.Process, error)
	Delete(ctx context.Context, userID string, processID string) error
	Get(ctx context.Context, processID string) (*model.Process, error)
	List(ctx context.Context, q ProcessListQuery) ([]model.Process, int64, error)
	AddODNs(ctx context.Context, userID string, processID string, req AddODNsRequest) (*model.Process, error)
	DeleteODN(ctx context.Context, userID string, odnID string) error
}

type processService struct {
	processRepo  repository.ProcessRepository
	facilityRepo repository.FacilityRepository
	odnRepo      repository.ODNRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	events       EventPublisher
	clock        period.Clock
	log          *zap.Logger
}

func NewProcessService(
	processRepo repository.ProcessRepository,
	facilityRepo repository.FacilityRepository,
	odnRepo repository.ODNRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
	clock period.Clock,
	log *zap.Logger,
) ProcessService {
	if log == nil {
		log = zap.NewNop()
	}
	return &processService{
		processRepo:  processRepo,
		facilityRepo: facilityRepo,
		odnRepo:      odnRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		events:       publisherOrNop(events),
		clock:        clock,
		log:          log,
	}
}

// periodOrCurrent treats a blank month and year as "now".
func periodOrCurrent(clock period.Clock, month string, year int) (period.ReportingPeriod, error) {
	if strings.TrimSpace(month) == "" && year == 0 {
		return period.Current(clock), nil
	}
	return resolvePeriod(month, year)
}

func (s *processService) Start(ctx context.Context, userID string, req StartProcessRequest) (*model.Process, error) {
	facilityID, err := parseID("facility", req.FacilityID)
	if err != nil {
		return nil, err
	}
	p, err := periodOrCurrent(s.clock, req.Month, req.Year)
	if err != nil {
		return nil, err
	}
	numbers, err := normalizeODNNumbers(req.ODNNumbers)
	if err != nil {
		return nil, err
	}

	process := &model.Process{
		FacilityID:     facilityID,
		ReportingMonth: p.String(),
		Status:         model.ProcessStatusO2CStarted,
		StartedBy:      actorID(userID),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		facility, err := s.facilityRepo.GetByID(txCtx, facilityID)
		if err != nil {
			return lookupError(err, "facility")
		}

		if _, err := s.processRepo.FindByFacilityMonth(txCtx, facilityID, process.ReportingMonth); err == nil {
			return conflictError("process already exists for %s in %s", facility.Name, process.ReportingMonth)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check existing process: %w", err)
		}

		if err := s.processRepo.Create(txCtx, process); err != nil {
			return fmt.Errorf("failed to create process: %w", err)
		}
		if err := s.odnRepo.CreateBatch(txCtx, buildODNs(process.ID, numbers)); err != nil {
			return fmt.Errorf("failed to create odns: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionStartProcess, process.ID.String(), facility.Name,
			map[string]interface{}{"reporting_month": process.ReportingMonth, "odn_count": len(numbers)})
	})
	if err != nil {
		return nil, err
	}

	return s.reloadAndPublish(ctx, process.ID)
}

func (s *processService) Complete(ctx context.Context, userID string, req CompleteProcessRequest) (*model.Process, error) {
	processID, err := parseID("process", req.ProcessID)
	if err != nil {
		return nil, err
	}
	numbers, err := normalizeODNNumbers(req.ODNNumbers)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		process, err := s.processRepo.GetByIDForUpdate(txCtx, processID)
		if err != nil {
			return lookupError(err, "process")
		}
		if process.Status == model.ProcessStatusVehicleRequested {
			return preconditionError(map[string]interface{}{"current_status": process.Status},
				"Process already has a vehicle requested and cannot be re-completed")
		}

		if err := s.attachODNs(txCtx, process.ID, numbers); err != nil {
			return err
		}
		count, err := s.odnRepo.CountByProcess(txCtx, process.ID)
		if err != nil {
			return fmt.Errorf("failed to count odns: %w", err)
		}
		if count == 0 {
			return validationError("at least one ODN number (or %q) is required to complete a process", model.RRFNotSent)
		}

		now := time.Now()
		if err := s.processRepo.UpdateFields(txCtx, process.ID, map[string]interface{}{
			"status":           model.ProcessStatusCompleted,
			"o2c_completed_by": actorID(userID),
			"o2c_completed_at": &now,
		}); err != nil {
			return fmt.Errorf("failed to complete process: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCompleteProcess, process.ID.String(), process.ReportingMonth,
			map[string]interface{}{"from": process.Status, "odn_count": count})
	})
	if err != nil {
		return nil, err
	}

	return s.reloadAndPublish(ctx, processID)
}

func (s *processService) EWMComplete(ctx context.Context, userID string, id string) (*model.Process, error) {
	processID, err := parseID("process", id)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		process, err := s.processRepo.GetByIDForUpdate(txCtx, processID)
		if err != nil {
			return lookupError(err, "process")
		}
		if process.Status != model.ProcessStatusCompleted {
			return preconditionError(map[string]interface{}{"current_status": process.Status},
				"Process must be O2C completed before EWM completion")
		}

		now := time.Now()
		if err := s.processRepo.UpdateFields(txCtx, process.ID, map[string]interface{}{
			"status":           model.ProcessStatusEWMCompleted,
			"ewm_completed_by": actorID(userID),
			"ewm_completed_at": &now,
		}); err != nil {
			return fmt.Errorf("failed to ewm-complete process: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionEWMCompleteProcess, process.ID.String(), process.ReportingMonth, nil)
	})
	if err != nil {
		return nil, err
	}

	return s.reloadAndPublish(ctx, processID)
}

// EWMRevert sends a process back to o2c_started. A process already in a
// vehicle request must leave it through the request's deletion first.
func (s *processService) EWMRevert(ctx context.Context, userID string, id string) (*model.Process, error) {
	processID, err := parseID("process", id)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		process, err := s.processRepo.GetByIDForUpdate(txCtx, processID)
		if err != nil {
			return lookupError(err, "process")
		}
		if process.Status == model.ProcessStatusVehicleRequested {
			return preconditionError(map[string]interface{}{"current_status": process.Status},
				"Process is part of a vehicle request; delete the route's vehicle request before reverting")
		}

		if err := s.processRepo.UpdateFields(txCtx, process.ID, map[string]interface{}{
			"status":           model.ProcessStatusO2CStarted,
			"ewm_completed_by": nil,
			"ewm_completed_at": nil,
		}); err != nil {
			return fmt.Errorf("failed to revert process: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionEWMRevertProcess, process.ID.String(), process.ReportingMonth,
			map[string]interface{}{"from": process.Status})
	})
	if err != nil {
		return nil, err
	}

	return s.reloadAndPublish(ctx, processID)
}

func (s *processService) Delete(ctx context.Context, userID string, id string) error {
	processID, err := parseID("process", id)
	if err != nil {
		return err
	}

	var reportingMonth string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		process, err := s.processRepo.GetByIDForUpdate(txCtx, processID)
		if err != nil {
			return lookupError(err, "process")
		}
		reportingMonth = process.ReportingMonth

		if err := s.processRepo.Delete(txCtx, process.ID); err != nil {
			return fmt.Errorf("failed to delete process: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionDeleteProcess, process.ID.String(), process.ReportingMonth,
			map[string]interface{}{"facility_id": process.FacilityID, "status": process.Status})
	})
	if err != nil {
		return err
	}

	s.log.Info("process deleted", zap.String("process_id", id), zap.String("reporting_month", reportingMonth))
	s.events.Publish(EventProcessDeleted, map[string]interface{}{"id": processID, "reporting_month": reportingMonth})
	return nil
}

func (s *processService) Get(ctx context.Context, id string) (*model.Process, error) {
	processID, err := parseID("process", id)
	if err != nil {
		return nil, err
	}
	process, err := s.processRepo.GetByID(ctx, processID)
	if err != nil {
		return nil, lookupError(err, "process")
	}
	return process, nil
}

func (s *processService) List(ctx context.Context, q ProcessListQuery) ([]model.Process, int64, error) {
	filter := repository.ProcessFilter{
		ReportingMonth: q.Period.String(),
		Status:         q.Status,
		Page:           q.Page,
		Limit:          q.Limit,
	}
	if q.FacilityID != "" {
		facilityID, err := parseID("facility", q.FacilityID)
		if err != nil {
			return nil, 0, err
		}
		filter.FacilityID = &facilityID
	}
	return s.processRepo.List(ctx, filter)
}

func (s *processService) AddODNs(ctx context.Context, userID string, id string, req AddODNsRequest) (*model.Process, error) {
	processID, err := parseID("process", id)
	if err != nil {
		return nil, err
	}
	numbers, err := normalizeODNNumbers(req.ODNNumbers)
	if err != nil {
		return nil, err
	}
	if len(numbers) == 0 {
		return nil, validationError("odn_numbers must not be empty")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		process, err := s.processRepo.GetByIDForUpdate(txCtx, processID)
		if err != nil {
			return lookupError(err, "process")
		}
		if process.Status == model.ProcessStatusVehicleRequested {
			return preconditionError(map[string]interface{}{"current_status": process.Status},
				"ODNs cannot be added after a vehicle has been requested")
		}
		return s.attachODNs(txCtx, process.ID, numbers)
	})
	if err != nil {
		return nil, err
	}

	return s.reloadAndPublish(ctx, processID)
}

func (s *processService) DeleteODN(ctx context.Context, userID string, id string) error {
	odnID, err := parseID("odn", id)
	if err != nil {
		return err
	}

	var processID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		odn, err := s.odnRepo.GetByIDForUpdate(txCtx, odnID)
		if err != nil {
			return lookupError(err, "odn")
		}
		if odn.Process.Status == model.ProcessStatusVehicleRequested {
			return preconditionError(map[string]interface{}{"current_status": odn.Process.Status},
				"ODNs cannot be removed after a vehicle has been requested")
		}
		processID = odn.ProcessID
		return s.odnRepo.Delete(txCtx, odn.ID)
	})
	if err != nil {
		return err
	}

	_, err = s.reloadAndPublish(ctx, processID)
	return err
}

// attachODNs adds numbers not yet on the process. The "RRF not sent"
// placeholder may not coexist with real ODN numbers.
func (s *processService) attachODNs(ctx context.Context, processID uuid.UUID, numbers []string) error {
	if len(numbers) == 0 {
		return nil
	}
	existing, err := s.odnRepo.ListNumbers(ctx, processID)
	if err != nil {
		return fmt.Errorf("failed to load odns: %w", err)
	}

	seen := make(map[string]bool, len(existing))
	for _, n := range existing {
		seen[n] = true
	}
	fresh := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if !seen[n] {
			fresh = append(fresh, n)
		}
	}
	if _, err := normalizeODNNumbers(append(existing, fresh...)); err != nil {
		return err
	}

	if err := s.odnRepo.CreateBatch(ctx, buildODNs(processID, fresh)); err != nil {
		return fmt.Errorf("failed to create odns: %w", err)
	}
	return nil
}

func (s *processService) reloadAndPublish(ctx context.Context, id uuid.UUID) (*model.Process, error) {
	process, err := s.processRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "process")
	}
	s.log.Info("process updated",
		zap.String("process_id", process.ID.String()),
		zap.String("status", process.Status),
		zap.String("reporting_month", process.ReportingMonth))
	s.events.Publish(EventProcessUpdated, process)
	return process, nil
}

// normalizeODNNumbers trims and de-duplicates ODN numbers, keeping order.
func normalizeODNNumbers(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	hasSentinel := false
	for _, n := range raw {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, validationError("ODN number must not be blank")
		}
		if strings.EqualFold(n, model.RRFNotSent) {
			n = model.RRFNotSent
			hasSentinel = true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	if hasSentinel && len(out) > 1 {
		return nil, validationError("%q cannot be combined with real ODN numbers", model.RRFNotSent)
	}
	return out, nil
}

func buildODNs(processID uuid.UUID, numbers []string) []model.ODN {
	odns := make([]model.ODN, 0, len(numbers))
	for _, n := range numbers {
		odns = append(odns, model.ODN{ProcessID: processID, ODNNumber: n, Status: model.ODNStatusPending})
	}
	return odns
}
