package repository

import (
	"context"

	"logistics/internal/model"
	"logistics/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProcessFilter struct {
	ReportingMonth string
	Status         string
	FacilityID     *uuid.UUID
	Page           int
	Limit          int
}

type ProcessRepository interface {
	Create(ctx context.Context, process *model.Process) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Process, error)
	// GetByIDForUpdate row-locks the process for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Process, error)
	FindByFacilityMonth(ctx context.Context, facilityID uuid.UUID, reportingMonth string) (*model.Process, error)
	ListByFacilities(ctx context.Context, facilityIDs []uuid.UUID, reportingMonth string) ([]model.Process, error)
	List(ctx context.Context, filter ProcessFilter) ([]model.Process, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	// BulkTransition moves every process in ids that is currently in from
	// to to, returning the affected row count.
	BulkTransition(ctx context.Context, ids []uuid.UUID, from, to string) (int64, error)
	// ListIDsOnRoute returns the ids of reportingMonth processes in status
	// whose facility is on the route, whatever the facility's cycle.
	ListIDsOnRoute(ctx context.Context, routeID uuid.UUID, reportingMonth, status string) ([]uuid.UUID, error)
	// Delete removes the process and all of its ODNs.
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsForFacility(ctx context.Context, facilityID uuid.UUID) (bool, error)
	ExistsForFacilityInStatus(ctx context.Context, facilityID uuid.UUID, status string) (bool, error)
}

type processRepository struct {
	db *gorm.DB
}

func NewProcessRepository(db *gorm.DB) ProcessRepository {
	return &processRepository{db: db}
}

func (r *processRepository) Create(ctx context.Context, process *model.Process) error {
	return GetDB(ctx, r.db).Omit("Facility", "ODNs").Create(process).Error
}

func (r *processRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Process, error) {
	var process model.Process
	err := GetDB(ctx, r.db).
		Preload("Facility").
		Preload("ODNs", func(db *gorm.DB) *gorm.DB { return db.Order("odn_number asc") }).
		First(&process, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &process, nil
}

func (r *processRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Process, error) {
	var process model.Process
	if err := forUpdate(GetDB(ctx, r.db)).First(&process, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &process, nil
}

func (r *processRepository) FindByFacilityMonth(ctx context.Context, facilityID uuid.UUID, reportingMonth string) (*model.Process, error) {
	var process model.Process
	err := GetDB(ctx, r.db).
		Where("facility_id = ? AND reporting_month = ?", facilityID, reportingMonth).
		First(&process).Error
	if err != nil {
		return nil, err
	}
	return &process, nil
}

func (r *processRepository) ListByFacilities(ctx context.Context, facilityIDs []uuid.UUID, reportingMonth string) ([]model.Process, error) {
	var processes []model.Process
	if len(facilityIDs) == 0 {
		return processes, nil
	}
	err := GetDB(ctx, r.db).
		Preload("ODNs", func(db *gorm.DB) *gorm.DB { return db.Order("odn_number asc") }).
		Where("facility_id IN ? AND reporting_month = ?", facilityIDs, reportingMonth).
		Find(&processes).Error
	return processes, err
}

func (r *processRepository) List(ctx context.Context, filter ProcessFilter) ([]model.Process, int64, error) {
	var processes []model.Process
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Process{})
	if filter.ReportingMonth != "" {
		query = query.Where("reporting_month = ?", filter.ReportingMonth)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.FacilityID != nil {
		query = query.Where("facility_id = ?", *filter.FacilityID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := pagination.New(filter.Page, filter.Limit).Apply(query).
		Preload("Facility").
		Order("created_at desc").
		Find(&processes).Error
	if err != nil {
		return nil, 0, err
	}
	return processes, total, nil
}

func (r *processRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return GetDB(ctx, r.db).Model(&model.Process{}).Where("id = ?", id).Updates(fields).Error
}

func (r *processRepository) BulkTransition(ctx context.Context, ids []uuid.UUID, from, to string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := GetDB(ctx, r.db).Model(&model.Process{}).
		Where("id IN ? AND status = ?", ids, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (r *processRepository) ListIDsOnRoute(ctx context.Context, routeID uuid.UUID, reportingMonth, status string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.Process{}).
		Joins("JOIN facilities ON facilities.id = processes.facility_id").
		Where("facilities.route_id = ? AND processes.reporting_month = ? AND processes.status = ?", routeID, reportingMonth, status).
		Pluck("processes.id", &ids).Error
	return ids, err
}

func (r *processRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("process_id = ?", id).Delete(&model.ODN{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Process{}).Error
}

func (r *processRepository) ExistsForFacility(ctx context.Context, facilityID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Process{}).Where("facility_id = ?", facilityID).Count(&count).Error
	return count > 0, err
}

func (r *processRepository) ExistsForFacilityInStatus(ctx context.Context, facilityID uuid.UUID, status string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Process{}).
		Where("facility_id = ? AND status = ?", facilityID, status).
		Count(&count).Error
	return count > 0, err
}
