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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Checklist item payloads. Bulk items are validated one by one in the
// service, so they carry no binding tags.
type PODConfirmation struct {
	ODNID            string           `json:"odn_id"`
	PODConfirmed     *bool            `json:"pod_confirmed"`
	PODReason        string           `json:"pod_reason"`
	PODNumber        string           `json:"pod_number"`
	ArrivalKilometer *decimal.Decimal `json:"arrival_kilometer"`
}

type FollowupUpdate struct {
	ODNID             string `json:"odn_id"`
	DocumentsSigned   *bool  `json:"documents_signed"`
	DocumentsHandover *bool  `json:"documents_handover"`
}

type QualityEvaluation struct {
	ODNID            string `json:"odn_id"`
	QualityConfirmed *bool  `json:"quality_confirmed"`
	QualityFeedback  string `json:"quality_feedback"`
}

type BulkPODRequest struct {
	Updates []PODConfirmation `json:"updates" binding:"required,min=1"`
}

type BulkFollowupRequest struct {
	Updates []FollowupUpdate `json:"updates" binding:"required,min=1"`
}

type BulkQualityRequest struct {
	Updates []QualityEvaluation `json:"updates" binding:"required,min=1"`
}

type BulkItemResult struct {
	ODNID   string     `json:"odn_id"`
	Success bool       `json:"success"`
	Error   string     `json:"error,omitempty"`
	ODN     *model.ODN `json:"odn,omitempty"`
}

type BulkResult struct {
	Results        []BulkItemResult `json:"results"`
	TotalProcessed int              `json:"total_processed"`
	Successful     int              `json:"successful"`
	Failed         int              `json:"failed"`
}

type ODNListQuery struct {
	Period  period.ReportingPeriod
	Stage   string
	RouteID string
	Page    int
	Limit   int
}

// ODNService runs the per-ODN checklist: POD confirmation, then document
// follow-up, then quality evaluation.
type ODNService interface {
	List(ctx context.Context, q ODNListQuery) ([]model.ODN, int64, error)
	ConfirmPOD(ctx context.Context, userID string, item PODConfirmation) (*model.ODN, error)
	UpdateFollowup(ctx context.Context, userID string, item FollowupUpdate) (*model.ODN, error)
	EvaluateQuality(ctx context.Context, userID string, item QualityEvaluation) (*model.ODN, error)
	BulkConfirmPOD(ctx context.Context, userID string, req BulkPODRequest) BulkResult
	BulkUpdateFollowup(ctx context.Context, userID string, req BulkFollowupRequest) BulkResult
	BulkEvaluateQuality(ctx context.Context, userID string, req BulkQualityRequest) BulkResult
}

type odnService struct {
	odnRepo        repository.ODNRepository
	assignmentRepo repository.RouteAssignmentRepository
	txManager      repository.TransactionManager
	events         EventPublisher
	log            *zap.Logger
}

func NewODNService(
	odnRepo repository.ODNRepository,
	assignmentRepo repository.RouteAssignmentRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
	log *zap.Logger,
) ODNService {
	if log == nil {
		log = zap.NewNop()
	}
	return &odnService{
		odnRepo:        odnRepo,
		assignmentRepo: assignmentRepo,
		txManager:      txManager,
		events:         publisherOrNop(events),
		log:            log,
	}
}

func (s *odnService) List(ctx context.Context, q ODNListQuery) ([]model.ODN, int64, error) {
	switch q.Stage {
	case "", repository.StagePOD, repository.StageFollowup, repository.StageQuality:
	default:
		return nil, 0, validationError("invalid stage %q: must be pod, followup or quality", q.Stage)
	}
	filter := repository.ODNFilter{
		ReportingMonth: q.Period.String(),
		Stage:          q.Stage,
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
	return s.odnRepo.List(ctx, filter)
}

// loadChecklistODN locks the ODN and rejects the "RRF not sent" placeholder.
func (s *odnService) loadChecklistODN(ctx context.Context, rawID string) (*model.ODN, error) {
	id, err := parseID("odn", rawID)
	if err != nil {
		return nil, err
	}
	odn, err := s.odnRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, lookupError(err, "odn")
	}
	if odn.IsSentinel() {
		return nil, validationError("%q placeholder has no delivery checklist", model.RRFNotSent)
	}
	return odn, nil
}

// podGate requires the parent process to be vehicle_requested and the
// route's latest assignment for the period to be Completed. Every checklist
// stage passes through it.
func (s *odnService) podGate(ctx context.Context, odn *model.ODN) (*model.RouteAssignment, error) {
	process := odn.Process
	if process.Status != model.ProcessStatusVehicleRequested {
		return nil, preconditionError(map[string]interface{}{"process_status": process.Status},
			"the delivery checklist applies only once a vehicle has been requested for the process")
	}
	if process.Facility == nil || process.Facility.RouteID == nil {
		return nil, preconditionError(nil, "facility is not assigned to a route")
	}

	assignment, err := s.assignmentRepo.FindLatestForRoutePeriod(ctx, *process.Facility.RouteID, process.ReportingMonth)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, preconditionError(nil, "no route assignment exists for this route in %s", process.ReportingMonth)
		}
		return nil, fmt.Errorf("failed to load route assignment: %w", err)
	}
	if assignment.Status != model.AssignmentStatusCompleted {
		return nil, preconditionError(map[string]interface{}{"assignment_status": assignment.Status},
			"route assignment must be Completed before the delivery checklist (currently %s)", assignment.Status)
	}
	return assignment, nil
}

// confirmPOD applies one POD item inside the caller's transaction.
// kmWritten tracks assignments whose arrival kilometer was already set in
// this batch; the returned id is non-nil when this item wrote it.
func (s *odnService) confirmPOD(ctx context.Context, userID string, item PODConfirmation, kmWritten map[uuid.UUID]bool) (*uuid.UUID, error) {
	if item.PODConfirmed == nil {
		return nil, validationError("pod_confirmed is required")
	}
	reason := strings.TrimSpace(item.PODReason)
	if !*item.PODConfirmed && reason == "" {
		return nil, validationError("pod_reason is required when POD is not confirmed")
	}

	odn, err := s.loadChecklistODN(ctx, item.ODNID)
	if err != nil {
		return nil, err
	}
	assignment, err := s.podGate(ctx, odn)
	if err != nil {
		return nil, err
	}
	if !*item.PODConfirmed && (odn.DocumentsSigned || odn.DocumentsHandover) {
		return nil, preconditionError(nil, "POD cannot be withdrawn after documents were signed or handed over")
	}

	status := model.ODNStatusDelivered
	if !*item.PODConfirmed {
		status = model.ODNStatusNotDelivered
	}
	now := time.Now()
	if err := s.odnRepo.UpdateFields(ctx, odn.ID, map[string]interface{}{
		"status":           status,
		"pod_confirmed":    *item.PODConfirmed,
		"pod_reason":       reason,
		"pod_number":       strings.TrimSpace(item.PODNumber),
		"pod_confirmed_by": actorID(userID),
		"pod_confirmed_at": &now,
	}); err != nil {
		return nil, fmt.Errorf("failed to update POD: %w", err)
	}

	if item.ArrivalKilometer == nil || kmWritten[assignment.ID] {
		return nil, nil
	}
	if item.ArrivalKilometer.IsNegative() {
		return nil, validationError("arrival_kilometer must not be negative")
	}
	if assignment.DepartureKilometer.Valid && item.ArrivalKilometer.LessThan(assignment.DepartureKilometer.Decimal) {
		return nil, validationError("arrival_kilometer %s is below departure_kilometer %s",
			item.ArrivalKilometer.String(), assignment.DepartureKilometer.Decimal.String())
	}
	if err := s.assignmentRepo.UpdateFields(ctx, assignment.ID, map[string]interface{}{
		"arrival_kilometer": decimal.NewNullDecimal(*item.ArrivalKilometer),
	}); err != nil {
		return nil, fmt.Errorf("failed to record arrival kilometer: %w", err)
	}
	return &assignment.ID, nil
}

func (s *odnService) updateFollowup(ctx context.Context, userID string, item FollowupUpdate) error {
	if item.DocumentsSigned == nil && item.DocumentsHandover == nil {
		return validationError("documents_signed or documents_handover is required")
	}
	odn, err := s.loadChecklistODN(ctx, item.ODNID)
	if err != nil {
		return err
	}
	if _, err := s.podGate(ctx, odn); err != nil {
		return err
	}
	if !odn.PODConfirmed {
		return preconditionError(map[string]interface{}{"pod_confirmed": false},
			"documents can only be updated after POD is confirmed")
	}

	signed, handover := odn.DocumentsSigned, odn.DocumentsHandover
	if item.DocumentsSigned != nil {
		signed = *item.DocumentsSigned
	}
	if item.DocumentsHandover != nil {
		handover = *item.DocumentsHandover
	}
	if odn.QualityEvaluatedAt != nil && !(signed && handover) {
		return preconditionError(nil, "documents cannot be withdrawn after quality was evaluated")
	}

	now := time.Now()
	return s.odnRepo.UpdateFields(ctx, odn.ID, map[string]interface{}{
		"documents_signed":      signed,
		"documents_handover":    handover,
		"followup_completed_by": actorID(userID),
		"followup_completed_at": &now,
	})
}

func (s *odnService) evaluateQuality(ctx context.Context, userID string, item QualityEvaluation) error {
	if item.QualityConfirmed == nil {
		return validationError("quality_confirmed is required")
	}
	odn, err := s.loadChecklistODN(ctx, item.ODNID)
	if err != nil {
		return err
	}
	if _, err := s.podGate(ctx, odn); err != nil {
		return err
	}
	if !odn.DocumentsSigned || !odn.DocumentsHandover {
		return preconditionError(map[string]interface{}{
			"documents_signed":   odn.DocumentsSigned,
			"documents_handover": odn.DocumentsHandover,
		}, "quality can only be evaluated after documents are signed and handed over")
	}

	now := time.Now()
	return s.odnRepo.UpdateFields(ctx, odn.ID, map[string]interface{}{
		"quality_confirmed":    *item.QualityConfirmed,
		"quality_feedback":     strings.TrimSpace(item.QualityFeedback),
		"quality_evaluated_by": actorID(userID),
		"quality_evaluated_at": &now,
	})
}

func (s *odnService) ConfirmPOD(ctx context.Context, userID string, item PODConfirmation) (*model.ODN, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		_, err := s.confirmPOD(txCtx, userID, item, map[uuid.UUID]bool{})
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.reloadAndPublish(ctx, item.ODNID)
}

func (s *odnService) UpdateFollowup(ctx context.Context, userID string, item FollowupUpdate) (*model.ODN, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.updateFollowup(txCtx, userID, item)
	})
	if err != nil {
		return nil, err
	}
	return s.reloadAndPublish(ctx, item.ODNID)
}

func (s *odnService) EvaluateQuality(ctx context.Context, userID string, item QualityEvaluation) (*model.ODN, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.evaluateQuality(txCtx, userID, item)
	})
	if err != nil {
		return nil, err
	}
	return s.reloadAndPublish(ctx, item.ODNID)
}

// BulkConfirmPOD writes an assignment's arrival kilometer at most once per
// call, from the first successful item that carries it.
func (s *odnService) BulkConfirmPOD(ctx context.Context, userID string, req BulkPODRequest) BulkResult {
	kmWritten := make(map[uuid.UUID]bool)
	ids := make([]string, len(req.Updates))
	for i, u := range req.Updates {
		ids[i] = u.ODNID
	}
	return s.runBulk(ctx, "pod", ids, func(txCtx context.Context, i int) (func(), error) {
		written, err := s.confirmPOD(txCtx, userID, req.Updates[i], kmWritten)
		if err != nil || written == nil {
			return nil, err
		}
		return func() { kmWritten[*written] = true }, nil
	})
}

func (s *odnService) BulkUpdateFollowup(ctx context.Context, userID string, req BulkFollowupRequest) BulkResult {
	ids := make([]string, len(req.Updates))
	for i, u := range req.Updates {
		ids[i] = u.ODNID
	}
	return s.runBulk(ctx, "followup", ids, func(txCtx context.Context, i int) (func(), error) {
		return nil, s.updateFollowup(txCtx, userID, req.Updates[i])
	})
}

func (s *odnService) BulkEvaluateQuality(ctx context.Context, userID string, req BulkQualityRequest) BulkResult {
	ids := make([]string, len(req.Updates))
	for i, u := range req.Updates {
		ids[i] = u.ODNID
	}
	return s.runBulk(ctx, "quality", ids, func(txCtx context.Context, i int) (func(), error) {
		return nil, s.evaluateQuality(txCtx, userID, req.Updates[i])
	})
}

// runBulk applies fn to each item in its own transaction. A failing item
// is reported and skipped; onCommit runs only after the item committed.
func (s *odnService) runBulk(ctx context.Context, stage string, ids []string, fn func(txCtx context.Context, i int) (onCommit func(), err error)) BulkResult {
	res := BulkResult{Results: make([]BulkItemResult, 0, len(ids))}

	for i, id := range ids {
		var onCommit func()
		err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			var err error
			onCommit, err = fn(txCtx, i)
			return err
		})

		item := BulkItemResult{ODNID: id}
		if err != nil {
			item.Error = err.Error()
			res.Failed++
		} else {
			if onCommit != nil {
				onCommit()
			}
			item.Success = true
			if odn, err := s.reload(ctx, id); err == nil {
				item.ODN = odn
			}
			res.Successful++
		}
		res.Results = append(res.Results, item)
	}
	res.TotalProcessed = len(ids)

	s.log.Info("bulk checklist update",
		zap.String("stage", stage),
		zap.Int("total", res.TotalProcessed),
		zap.Int("successful", res.Successful),
		zap.Int("failed", res.Failed))
	if res.Successful > 0 {
		s.events.Publish(EventODNUpdated, map[string]interface{}{"stage": stage, "successful": res.Successful})
	}
	return res
}

func (s *odnService) reload(ctx context.Context, rawID string) (*model.ODN, error) {
	id, err := parseID("odn", rawID)
	if err != nil {
		return nil, err
	}
	odn, err := s.odnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "odn")
	}
	return odn, nil
}

func (s *odnService) reloadAndPublish(ctx context.Context, rawID string) (*model.ODN, error) {
	odn, err := s.reload(ctx, rawID)
	if err != nil {
		return nil, err
	}
	s.events.Publish(EventODNUpdated, odn)
	return odn, nil
}
