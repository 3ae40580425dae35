package service

import (
	"context"
	"fmt"
	"strings"

	"logistics/internal/model"
	"logistics/internal/repository"

	"github.com/google/uuid"
)

type FacilityRequest struct {
	Name    string  `json:"name" binding:"required"`
	Code    string  `json:"code"`
	Region  string  `json:"region"`
	Zone    string  `json:"zone"`
	Woreda  string  `json:"woreda"`
	RouteID *string `json:"route_id"`
	Period  *string `json:"period" binding:"omitempty,oneof=Odd Even Monthly"`
}

type FacilityListQuery struct {
	RouteID string
	Period  string
	Search  string
	Page    int
	Limit   int
}

type FacilityService interface {
	Create(ctx context.Context, req FacilityRequest) (*model.Facility, error)
	Get(ctx context.Context, id string) (*model.Facility, error)
	List(ctx context.Context, q FacilityListQuery) ([]model.Facility, int64, error)
	Update(ctx context.Context, id string, req FacilityRequest) (*model.Facility, error)
	Delete(ctx context.Context, id string) error
}

type facilityService struct {
	facilityRepo repository.FacilityRepository
	routeRepo    repository.RouteRepository
	processRepo  repository.ProcessRepository
}

func NewFacilityService(facilityRepo repository.FacilityRepository, routeRepo repository.RouteRepository, processRepo repository.ProcessRepository) FacilityService {
	return &facilityService{facilityRepo: facilityRepo, routeRepo: routeRepo, processRepo: processRepo}
}

func (s *facilityService) apply(ctx context.Context, f *model.Facility, req FacilityRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return validationError("name is required")
	}
	f.Name = name
	f.Code = strings.TrimSpace(req.Code)
	f.Region = req.Region
	f.Zone = req.Zone
	f.Woreda = req.Woreda

	f.Period = nil
	if req.Period != nil && *req.Period != "" {
		if !model.IsValidFacilityPeriod(*req.Period) {
			return validationError("invalid period %q: must be Odd, Even or Monthly", *req.Period)
		}
		p := *req.Period
		f.Period = &p
	}

	f.RouteID = nil
	f.Route = nil
	if req.RouteID != nil && *req.RouteID != "" {
		routeID, err := parseID("route", *req.RouteID)
		if err != nil {
			return err
		}
		if _, err := s.routeRepo.GetByID(ctx, routeID); err != nil {
			return lookupError(err, "route")
		}
		f.RouteID = &routeID
	}
	return nil
}

func (s *facilityService) Create(ctx context.Context, req FacilityRequest) (*model.Facility, error) {
	facility := &model.Facility{}
	if err := s.apply(ctx, facility, req); err != nil {
		return nil, err
	}
	if err := s.facilityRepo.Create(ctx, facility); err != nil {
		return nil, fmt.Errorf("failed to create facility: %w", err)
	}
	return s.Get(ctx, facility.ID.String())
}

func (s *facilityService) Get(ctx context.Context, id string) (*model.Facility, error) {
	facilityID, err := parseID("facility", id)
	if err != nil {
		return nil, err
	}
	facility, err := s.facilityRepo.GetByID(ctx, facilityID)
	if err != nil {
		return nil, lookupError(err, "facility")
	}
	return facility, nil
}

func (s *facilityService) List(ctx context.Context, q FacilityListQuery) ([]model.Facility, int64, error) {
	filter := repository.FacilityFilter{Period: q.Period, Search: q.Search, Page: q.Page, Limit: q.Limit}
	if q.RouteID != "" {
		routeID, err := parseID("route", q.RouteID)
		if err != nil {
			return nil, 0, err
		}
		filter.RouteID = &routeID
	}
	return s.facilityRepo.List(ctx, filter)
}

// Update refuses to move a facility to another route or cycle while one of
// its processes is held by a vehicle request.
func (s *facilityService) Update(ctx context.Context, id string, req FacilityRequest) (*model.Facility, error) {
	facility, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldRoute, oldPeriod := facility.RouteID, facility.Period
	if err := s.apply(ctx, facility, req); err != nil {
		return nil, err
	}

	if !sameUUID(oldRoute, facility.RouteID) || !sameString(oldPeriod, facility.Period) {
		held, err := s.processRepo.ExistsForFacilityInStatus(ctx, facility.ID, model.ProcessStatusVehicleRequested)
		if err != nil {
			return nil, fmt.Errorf("failed to check facility processes: %w", err)
		}
		if held {
			return nil, preconditionError(map[string]interface{}{"process_status": model.ProcessStatusVehicleRequested},
				"facility %s is part of a vehicle request; delete the route's vehicle request before changing its route or period", facility.Name)
		}
	}
	if err := s.facilityRepo.Update(ctx, facility); err != nil {
		return nil, fmt.Errorf("failed to update facility: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete refuses facilities that any process still references.
func (s *facilityService) Delete(ctx context.Context, id string) error {
	facility, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	used, err := s.processRepo.ExistsForFacility(ctx, facility.ID)
	if err != nil {
		return fmt.Errorf("failed to check facility processes: %w", err)
	}
	if used {
		return conflictError("facility %s has processes and cannot be deleted", facility.Name)
	}
	return s.facilityRepo.Delete(ctx, facility.ID)
}


func sameUUID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
