package repository

import (
	"context"
	"strings"

	"logistics/internal/model"
	"logistics/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RouteRepository interface {
	Create(ctx context.Context, route *model.Route) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Route, error)
	GetByName(ctx context.Context, name string) (*model.Route, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Route, int64, error)
	Update(ctx context.Context, route *model.Route) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type routeRepository struct {
	db *gorm.DB
}

func NewRouteRepository(db *gorm.DB) RouteRepository {
	return &routeRepository{db: db}
}

func (r *routeRepository) Create(ctx context.Context, route *model.Route) error {
	return GetDB(ctx, r.db).Create(route).Error
}

func (r *routeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Route, error) {
	var route model.Route
	if err := GetDB(ctx, r.db).First(&route, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &route, nil
}

func (r *routeRepository) GetByName(ctx context.Context, name string) (*model.Route, error) {
	var route model.Route
	if err := GetDB(ctx, r.db).First(&route, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &route, nil
}

// List orders by name; limit <= 0 returns every matching route.
func (r *routeRepository) List(ctx context.Context, search string, page, limit int) ([]model.Route, int64, error) {
	var routes []model.Route
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Route{})
	if s := strings.TrimSpace(search); s != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := pagination.New(page, limit).Apply(query).Order("name asc").Find(&routes).Error; err != nil {
		return nil, 0, err
	}
	return routes, total, nil
}

func (r *routeRepository) Update(ctx context.Context, route *model.Route) error {
	return GetDB(ctx, r.db).Omit("Facilities").Save(route).Error
}

func (r *routeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Route{}).Error
}
