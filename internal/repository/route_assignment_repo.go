package repository

import (
	"context"

	"logistics/internal/model"
	"logistics/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RouteAssignmentFilter struct {
	EthiopianMonth string
	Status         string
	RouteID        *uuid.UUID
	Page           int
	Limit          int
}

type RouteAssignmentRepository interface {
	Create(ctx context.Context, assignment *model.RouteAssignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RouteAssignment, error)
	List(ctx context.Context, filter RouteAssignmentFilter) ([]model.RouteAssignment, int64, error)
	// FindLatestForRoutePeriod returns the most recently created assignment
	// for the route in the given period.
	FindLatestForRoutePeriod(ctx context.Context, routeID uuid.UUID, ethiopianMonth string) (*model.RouteAssignment, error)
	// CountActiveForVehicle counts assignments other than excludeID that
	// still hold the vehicle (neither Completed nor Cancelled).
	CountActiveForVehicle(ctx context.Context, vehicleID, excludeID uuid.UUID) (int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type routeAssignmentRepository struct {
	db *gorm.DB
}

func NewRouteAssignmentRepository(db *gorm.DB) RouteAssignmentRepository {
	return &routeAssignmentRepository{db: db}
}

func (r *routeAssignmentRepository) Create(ctx context.Context, assignment *model.RouteAssignment) error {
	return GetDB(ctx, r.db).Omit("Route", "Vehicle", "Driver", "Deliverer").Create(assignment).Error
}

func (r *routeAssignmentRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Route").Preload("Vehicle").Preload("Driver").Preload("Deliverer")
}

func (r *routeAssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RouteAssignment, error) {
	var assignment model.RouteAssignment
	if err := r.withRelations(GetDB(ctx, r.db)).First(&assignment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *routeAssignmentRepository) List(ctx context.Context, filter RouteAssignmentFilter) ([]model.RouteAssignment, int64, error) {
	var assignments []model.RouteAssignment
	var total int64

	query := GetDB(ctx, r.db).Model(&model.RouteAssignment{})
	if filter.EthiopianMonth != "" {
		query = query.Where("ethiopian_month = ?", filter.EthiopianMonth)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.RouteID != nil {
		query = query.Where("route_id = ?", *filter.RouteID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.withRelations(pagination.New(filter.Page, filter.Limit).Apply(query)).Order("created_at desc").Find(&assignments).Error; err != nil {
		return nil, 0, err
	}
	return assignments, total, nil
}

func (r *routeAssignmentRepository) FindLatestForRoutePeriod(ctx context.Context, routeID uuid.UUID, ethiopianMonth string) (*model.RouteAssignment, error) {
	var assignment model.RouteAssignment
	err := GetDB(ctx, r.db).
		Where("route_id = ? AND ethiopian_month = ?", routeID, ethiopianMonth).
		Order("created_at desc").
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *routeAssignmentRepository) CountActiveForVehicle(ctx context.Context, vehicleID, excludeID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.RouteAssignment{}).
		Where("vehicle_id = ? AND id <> ? AND status NOT IN ?", vehicleID, excludeID,
			[]string{model.AssignmentStatusCompleted, model.AssignmentStatusCancelled}).
		Count(&count).Error
	return count, err
}

func (r *routeAssignmentRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return GetDB(ctx, r.db).Model(&model.RouteAssignment{}).Where("id = ?", id).Updates(fields).Error
}

func (r *routeAssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.RouteAssignment{}).Error
}
