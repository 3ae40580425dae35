package repository

import (
	"context"

	"logistics/internal/model"
	"logistics/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Checklist stages an ODN listing can be filtered to.
const (
	StagePOD      = "pod"
	StageFollowup = "followup"
	StageQuality  = "quality"
)

type ODNFilter struct {
	ReportingMonth string
	Stage          string
	RouteID        *uuid.UUID
	Page           int
	Limit          int
}

type ODNRepository interface {
	CreateBatch(ctx context.Context, odns []model.ODN) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ODN, error)
	// GetByIDForUpdate row-locks the ODN and loads its process and facility.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ODN, error)
	ListNumbers(ctx context.Context, processID uuid.UUID) ([]string, error)
	CountByProcess(ctx context.Context, processID uuid.UUID) (int64, error)
	List(ctx context.Context, filter ODNFilter) ([]model.ODN, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type odnRepository struct {
	db *gorm.DB
}

func NewODNRepository(db *gorm.DB) ODNRepository {
	return &odnRepository{db: db}
}

func (r *odnRepository) CreateBatch(ctx context.Context, odns []model.ODN) error {
	if len(odns) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Omit("Process").Create(&odns).Error
}

func (r *odnRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ODN, error) {
	var odn model.ODN
	if err := GetDB(ctx, r.db).Preload("Process.Facility").First(&odn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &odn, nil
}

func (r *odnRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ODN, error) {
	var odn model.ODN
	if err := forUpdate(GetDB(ctx, r.db)).First(&odn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	var process model.Process
	if err := GetDB(ctx, r.db).Preload("Facility").First(&process, "id = ?", odn.ProcessID).Error; err != nil {
		return nil, err
	}
	odn.Process = &process
	return &odn, nil
}

func (r *odnRepository) ListNumbers(ctx context.Context, processID uuid.UUID) ([]string, error) {
	var numbers []string
	err := GetDB(ctx, r.db).Model(&model.ODN{}).Where("process_id = ?", processID).Pluck("odn_number", &numbers).Error
	return numbers, err
}

func (r *odnRepository) CountByProcess(ctx context.Context, processID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.ODN{}).Where("process_id = ?", processID).Count(&count).Error
	return count, err
}

// latestAssignmentInStatusSQL holds when the newest assignment for the
// facility's route in the process period is in the given status.
const latestAssignmentInStatusSQL = `EXISTS (
	SELECT 1 FROM route_assignments ra
	WHERE ra.route_id = facilities.route_id
	  AND ra.ethiopian_month = processes.reporting_month
	  AND ra.status = ?
	  AND NOT EXISTS (
		SELECT 1 FROM route_assignments newer
		WHERE newer.route_id = ra.route_id
		  AND newer.ethiopian_month = ra.ethiopian_month
		  AND newer.created_at > ra.created_at
	  )
)`

// List never returns "RRF not sent" placeholders. A stage filter lists only
// ODNs that pass the checklist gate.
func (r *odnRepository) List(ctx context.Context, filter ODNFilter) ([]model.ODN, int64, error) {
	var odns []model.ODN
	var total int64

	query := GetDB(ctx, r.db).Model(&model.ODN{}).
		Joins("JOIN processes ON processes.id = odns.process_id").
		Joins("JOIN facilities ON facilities.id = processes.facility_id").
		Where("odns.odn_number <> ?", model.RRFNotSent)
	if filter.ReportingMonth != "" {
		query = query.Where("processes.reporting_month = ?", filter.ReportingMonth)
	}
	if filter.RouteID != nil {
		query = query.Where("facilities.route_id = ?", *filter.RouteID)
	}

	if filter.Stage != "" {
		query = query.Where("processes.status = ?", model.ProcessStatusVehicleRequested).
			Where(latestAssignmentInStatusSQL, model.AssignmentStatusCompleted)
	}
	switch filter.Stage {
	case StageFollowup:
		query = query.Where("odns.pod_confirmed = ?", true)
	case StageQuality:
		query = query.Where("odns.documents_signed = ? AND odns.documents_handover = ?", true, true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := pagination.New(filter.Page, filter.Limit).Apply(query).
		Preload("Process.Facility").
		Order("odns.created_at asc").
		Find(&odns).Error
	if err != nil {
		return nil, 0, err
	}
	return odns, total, nil
}

func (r *odnRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return GetDB(ctx, r.db).Model(&model.ODN{}).Where("id = ?", id).Updates(fields).Error
}

func (r *odnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ODN{}).Error
}
