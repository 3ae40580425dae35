package repository

import (
	"context"
	"strings"

	"logistics/internal/model"
	"logistics/internal/period"
	"logistics/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FacilityFilter struct {
	RouteID *uuid.UUID
	Period  string
	Search  string
	Page    int
	Limit   int
}

// FacilityRepository defines data access for facilities and route membership.
type FacilityRepository interface {
	Create(ctx context.Context, facility *model.Facility) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Facility, error)
	List(ctx context.Context, filter FacilityFilter) ([]model.Facility, int64, error)
	Update(ctx context.Context, facility *model.Facility) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListRouteMembers returns the facilities due in a period of the given
	// parity on any of routeIDs: Monthly ones plus those matching parity.
	ListRouteMembers(ctx context.Context, routeIDs []uuid.UUID, parity period.Parity) ([]model.Facility, error)
	CountByRoute(ctx context.Context, routeID uuid.UUID) (int64, error)
}

type facilityRepository struct {
	db *gorm.DB
}

func NewFacilityRepository(db *gorm.DB) FacilityRepository {
	return &facilityRepository{db: db}
}

func (r *facilityRepository) Create(ctx context.Context, facility *model.Facility) error {
	return GetDB(ctx, r.db).Create(facility).Error
}

func (r *facilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Facility, error) {
	var facility model.Facility
	if err := GetDB(ctx, r.db).Preload("Route").First(&facility, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &facility, nil
}

func (r *facilityRepository) List(ctx context.Context, filter FacilityFilter) ([]model.Facility, int64, error) {
	var facilities []model.Facility
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Facility{})
	if filter.RouteID != nil {
		query = query.Where("route_id = ?", *filter.RouteID)
	}
	if filter.Period != "" {
		query = query.Where("period = ?", filter.Period)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := pagination.New(filter.Page, filter.Limit).Apply(query).Preload("Route").Order("name asc").Find(&facilities).Error; err != nil {
		return nil, 0, err
	}
	return facilities, total, nil
}

func (r *facilityRepository) Update(ctx context.Context, facility *model.Facility) error {
	return GetDB(ctx, r.db).Omit("Route").Save(facility).Error
}

func (r *facilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Facility{}).Error
}

func (r *facilityRepository) ListRouteMembers(ctx context.Context, routeIDs []uuid.UUID, parity period.Parity) ([]model.Facility, error) {
	var facilities []model.Facility
	if len(routeIDs) == 0 {
		return facilities, nil
	}
	err := GetDB(ctx, r.db).
		Where("route_id IN ?", routeIDs).
		Where("period = ? OR period = ?", model.FacilityPeriodMonthly, string(parity)).
		Order("name asc").
		Find(&facilities).Error
	return facilities, err
}

func (r *facilityRepository) CountByRoute(ctx context.Context, routeID uuid.UUID) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Facility{}).Where("route_id = ?", routeID).Count(&total).Error
	return total, err
}
