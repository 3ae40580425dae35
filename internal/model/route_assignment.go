package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AssignmentStatusAssigned   = "Assigned"
	AssignmentStatusInProgress = "In Progress"
	AssignmentStatusCompleted  = "Completed"
	AssignmentStatusCancelled  = "Cancelled"
	AssignmentStatusDelayed    = "Delayed"
)

// AssignmentStatuses is the full status enum.
var AssignmentStatuses = []string{
	AssignmentStatusAssigned, AssignmentStatusInProgress, AssignmentStatusCompleted,
	AssignmentStatusCancelled, AssignmentStatusDelayed,
}

// RouteAssignment is the physical dispatch of a vehicle along a route for a period.
type RouteAssignment struct {
	ID                 uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	RouteID            uuid.UUID           `gorm:"type:uuid;not null;index" json:"route_id"`
	Route              *Route              `gorm:"foreignKey:RouteID" json:"route,omitempty"`
	VehicleID          uuid.UUID           `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle            *Vehicle            `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	DriverID           uuid.UUID           `gorm:"type:uuid;not null" json:"driver_id"`
	Driver             *User               `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
	DelivererID        *uuid.UUID          `gorm:"type:uuid" json:"deliverer_id"`
	Deliverer          *User               `gorm:"foreignKey:DelivererID" json:"deliverer,omitempty"`
	EthiopianMonth     string              `gorm:"type:varchar(30);not null;index" json:"ethiopian_month"`
	Status             string              `gorm:"type:varchar(20);not null;index" json:"status"`
	DepartureKilometer decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"departure_kilometer"`
	ArrivalKilometer   decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"arrival_kilometer"`
	DispatchedAt       *time.Time          `json:"dispatched_at"`
	CompletedAt        *time.Time          `json:"completed_at"`
	AssignedBy         *uuid.UUID          `gorm:"type:uuid" json:"assigned_by"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// assignmentTransitions lists where each status may move. Completed and
// Cancelled are final.
var assignmentTransitions = map[string][]string{
	AssignmentStatusAssigned:   {AssignmentStatusInProgress, AssignmentStatusDelayed, AssignmentStatusCancelled},
	AssignmentStatusInProgress: {AssignmentStatusCompleted, AssignmentStatusDelayed, AssignmentStatusCancelled},
	AssignmentStatusDelayed:    {AssignmentStatusInProgress, AssignmentStatusCompleted, AssignmentStatusCancelled},
}

// IsFinalAssignmentStatus reports whether s releases the vehicle for good.
func IsFinalAssignmentStatus(s string) bool {
	return s == AssignmentStatusCompleted || s == AssignmentStatusCancelled
}

func CanTransitionAssignment(from, to string) bool {
	for _, next := range assignmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsValidAssignmentStatus checks s against AssignmentStatuses.
func IsValidAssignmentStatus(s string) bool {
	for _, v := range AssignmentStatuses {
		if v == s {
			return true
		}
	}
	return false
}
