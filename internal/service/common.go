package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"logistics/internal/model"
	"logistics/internal/period"
	"logistics/internal/repository"

	"github.com/google/uuid"
)

// EventPublisher pushes workflow events to connected clients.
type EventPublisher interface {
	Publish(event string, data interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// Websocket event names.
const (
	EventProcessUpdated        = "process_updated"
	EventProcessDeleted        = "process_deleted"
	EventVehicleRequested      = "vehicle_requested"
	EventVehicleRequestDeleted = "vehicle_request_deleted"
	EventODNUpdated            = "odn_updated"
	EventAssignmentUpdated     = "route_assignment_updated"
)

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, validationError("invalid %s id: %q", kind, raw)
	}
	return id, nil
}

// actorID parses the authenticated user id; an empty or malformed id yields nil.
func actorID(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}

// resolvePeriod validates an explicit month name and year.
func resolvePeriod(month string, year int) (period.ReportingPeriod, error) {
	p, err := period.New(month, year)
	if err != nil {
		return period.ReportingPeriod{}, validationError("%s", err.Error())
	}
	return p, nil
}

func writeAudit(ctx context.Context, repo repository.AuditRepository, userID, action, entityID, entityName string, details interface{}) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}
	entry := &model.AuditLog{
		UserID:     actorID(userID),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    raw,
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func routeLockKey(routeID uuid.UUID, p period.ReportingPeriod) string {
	return "route:" + routeID.String() + ":" + p.MonthName() + ":" + strconv.Itoa(p.Year)
}
