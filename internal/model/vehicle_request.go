package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PIVehicleRequest records that a PI officer asked for a vehicle once every
// facility on the route finished EWM for the period. ProcessIDs holds the
// processes the request moved to vehicle_requested.
type PIVehicleRequest struct {
	ID          uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	RouteID     uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex:idx_vehicle_request_route_period" json:"route_id"`
	Route       *Route                         `gorm:"foreignKey:RouteID" json:"route,omitempty"`
	Month       string                         `gorm:"type:varchar(20);not null;uniqueIndex:idx_vehicle_request_route_period" json:"month"`
	Year        int                            `gorm:"not null;uniqueIndex:idx_vehicle_request_route_period" json:"year"`
	RequestedBy *uuid.UUID                     `gorm:"type:uuid" json:"requested_by"`
	Requester   *User                          `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	ProcessIDs  datatypes.JSONSlice[uuid.UUID] `gorm:"column:process_ids" json:"process_ids"`
	RequestedAt time.Time                      `gorm:"not null" json:"requested_at"`
	CreatedAt   time.Time                      `json:"created_at"`
}

func (PIVehicleRequest) TableName() string { return "pi_vehicle_requests" }
