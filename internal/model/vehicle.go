package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	VehicleStatusAvailable   = "available"
	VehicleStatusInUse       = "in_use"
	VehicleStatusMaintenance = "maintenance"
)

// Vehicle is a fleet truck used for route dispatch.
type Vehicle struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PlateNumber string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"plate_number"`
	Model       string    `gorm:"type:varchar(100)" json:"model"`
	Capacity    string    `gorm:"type:varchar(50)" json:"capacity"`
	Status      string    `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
