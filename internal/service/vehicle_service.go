package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"logistics/internal/model"
	"logistics/internal/repository"

	"gorm.io/gorm"
)

type VehicleRequest struct {
	PlateNumber string `json:"plate_number" binding:"required"`
	Model       string `json:"model"`
	Capacity    string `json:"capacity"`
	Status      string `json:"status" binding:"omitempty,oneof=available in_use maintenance"`
}

type VehicleService interface {
	Create(ctx context.Context, req VehicleRequest) (*model.Vehicle, error)
	Get(ctx context.Context, id string) (*model.Vehicle, error)
	List(ctx context.Context, status, search string, page, limit int) ([]model.Vehicle, int64, error)
	Update(ctx context.Context, id string, req VehicleRequest) (*model.Vehicle, error)
	Delete(ctx context.Context, id string) error
}

type vehicleService struct {
	repo repository.VehicleRepository
}

func NewVehicleService(repo repository.VehicleRepository) VehicleService {
	return &vehicleService{repo: repo}
}

func (s *vehicleService) Create(ctx context.Context, req VehicleRequest) (*model.Vehicle, error) {
	plate := strings.ToUpper(strings.TrimSpace(req.PlateNumber))
	if plate == "" {
		return nil, validationError("plate_number is required")
	}
	if _, err := s.repo.GetByPlate(ctx, plate); err == nil {
		return nil, conflictError("vehicle %s already exists", plate)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check plate number: %w", err)
	}

	status := req.Status
	if status == "" {
		status = model.VehicleStatusAvailable
	}
	vehicle := &model.Vehicle{PlateNumber: plate, Model: req.Model, Capacity: req.Capacity, Status: status}
	if err := s.repo.Create(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}
	return vehicle, nil
}

func (s *vehicleService) Get(ctx context.Context, id string) (*model.Vehicle, error) {
	vehicleID, err := parseID("vehicle", id)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.repo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, lookupError(err, "vehicle")
	}
	return vehicle, nil
}

func (s *vehicleService) List(ctx context.Context, status, search string, page, limit int) ([]model.Vehicle, int64, error) {
	return s.repo.List(ctx, status, search, page, limit)
}

func (s *vehicleService) Update(ctx context.Context, id string, req VehicleRequest) (*model.Vehicle, error) {
	vehicle, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	plate := strings.ToUpper(strings.TrimSpace(req.PlateNumber))
	if plate == "" {
		return nil, validationError("plate_number is required")
	}
	if plate != vehicle.PlateNumber {
		if _, err := s.repo.GetByPlate(ctx, plate); err == nil {
			return nil, conflictError("vehicle %s already exists", plate)
		}
	}
	vehicle.PlateNumber = plate
	vehicle.Model = req.Model
	vehicle.Capacity = req.Capacity
	if req.Status != "" {
		vehicle.Status = req.Status
	}
	if err := s.repo.Update(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}
	return vehicle, nil
}

func (s *vehicleService) Delete(ctx context.Context, id string) error {
	vehicle, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if vehicle.Status == model.VehicleStatusInUse {
		return conflictError("vehicle %s is on a route and cannot be deleted", vehicle.PlateNumber)
	}
	return s.repo.Delete(ctx, vehicle.ID)
}
