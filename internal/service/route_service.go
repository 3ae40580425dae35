package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"logistics/internal/model"
	"logistics/internal/period"
	"logistics/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RouteRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type RouteService interface {
	Create(ctx context.Context, req RouteRequest) (*model.Route, error)
	Get(ctx context.Context, id string) (*model.Route, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Route, int64, error)
	Update(ctx context.Context, id string, req RouteRequest) (*model.Route, error)
	Delete(ctx context.Context, id string) error
	// Members lists the facilities due on the route in period p.
	Members(ctx context.Context, id string, p period.ReportingPeriod) ([]model.Facility, error)
}

type routeService struct {
	routeRepo    repository.RouteRepository
	facilityRepo repository.FacilityRepository
}

func NewRouteService(routeRepo repository.RouteRepository, facilityRepo repository.FacilityRepository) RouteService {
	return &routeService{routeRepo: routeRepo, facilityRepo: facilityRepo}
}

func (s *routeService) ensureUniqueName(ctx context.Context, name string, self *model.Route) error {
	existing, err := s.routeRepo.GetByName(ctx, name)
	if err == nil {
		if self == nil || existing.ID != self.ID {
			return conflictError("route %q already exists", name)
		}
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return fmt.Errorf("failed to check route name: %w", err)
}

func (s *routeService) Create(ctx context.Context, req RouteRequest) (*model.Route, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	if err := s.ensureUniqueName(ctx, name, nil); err != nil {
		return nil, err
	}
	route := &model.Route{Name: name, Description: req.Description}
	if err := s.routeRepo.Create(ctx, route); err != nil {
		return nil, fmt.Errorf("failed to create route: %w", err)
	}
	return route, nil
}

func (s *routeService) Get(ctx context.Context, id string) (*model.Route, error) {
	routeID, err := parseID("route", id)
	if err != nil {
		return nil, err
	}
	route, err := s.routeRepo.GetByID(ctx, routeID)
	if err != nil {
		return nil, lookupError(err, "route")
	}
	return route, nil
}

func (s *routeService) List(ctx context.Context, search string, page, limit int) ([]model.Route, int64, error) {
	return s.routeRepo.List(ctx, search, page, limit)
}

func (s *routeService) Update(ctx context.Context, id string, req RouteRequest) (*model.Route, error) {
	route, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	if err := s.ensureUniqueName(ctx, name, route); err != nil {
		return nil, err
	}
	route.Name = name
	route.Description = req.Description
	if err := s.routeRepo.Update(ctx, route); err != nil {
		return nil, fmt.Errorf("failed to update route: %w", err)
	}
	return route, nil
}

// Delete refuses routes that still have facilities.
func (s *routeService) Delete(ctx context.Context, id string) error {
	route, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.facilityRepo.CountByRoute(ctx, route.ID)
	if err != nil {
		return fmt.Errorf("failed to count route facilities: %w", err)
	}
	if count > 0 {
		return conflictError("route %s still has %d facility(ies)", route.Name, count)
	}
	return s.routeRepo.Delete(ctx, route.ID)
}

func (s *routeService) Members(ctx context.Context, id string, p period.ReportingPeriod) ([]model.Facility, error) {
	route, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := s.facilityRepo.ListRouteMembers(ctx, []uuid.UUID{route.ID}, p.Parity())
	if err != nil {
		return nil, fmt.Errorf("failed to load route members: %w", err)
	}
	return members, nil
}
