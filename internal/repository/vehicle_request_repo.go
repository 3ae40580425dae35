package repository

import (
	"context"

	"logistics/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VehicleRequestRepository interface {
	Create(ctx context.Context, request *model.PIVehicleRequest) error
	Find(ctx context.Context, routeID uuid.UUID, month string, year int) (*model.PIVehicleRequest, error)
	ListForPeriod(ctx context.Context, month string, year int) ([]model.PIVehicleRequest, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type vehicleRequestRepository struct {
	db *gorm.DB
}

func NewVehicleRequestRepository(db *gorm.DB) VehicleRequestRepository {
	return &vehicleRequestRepository{db: db}
}

func (r *vehicleRequestRepository) Create(ctx context.Context, request *model.PIVehicleRequest) error {
	return GetDB(ctx, r.db).Omit("Route", "Requester").Create(request).Error
}

func (r *vehicleRequestRepository) Find(ctx context.Context, routeID uuid.UUID, month string, year int) (*model.PIVehicleRequest, error) {
	var request model.PIVehicleRequest
	err := GetDB(ctx, r.db).
		Where("route_id = ? AND month = ? AND year = ?", routeID, month, year).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *vehicleRequestRepository) ListForPeriod(ctx context.Context, month string, year int) ([]model.PIVehicleRequest, error) {
	var requests []model.PIVehicleRequest
	err := GetDB(ctx, r.db).Where("month = ? AND year = ?", month, year).Find(&requests).Error
	return requests, err
}

func (r *vehicleRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.PIVehicleRequest{}).Error
}
