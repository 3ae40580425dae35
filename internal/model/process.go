package model

import (
	"time"

	"github.com/google/uuid"
)

// Process pipeline states, in happy-path order.
const (
	ProcessStatusO2CStarted       = "o2c_started"
	ProcessStatusCompleted        = "completed"
	ProcessStatusEWMCompleted     = "ewm_completed"
	ProcessStatusVehicleRequested = "vehicle_requested"
)

// Process is one facility's order fulfilment for one reporting period.
type Process struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_process_facility_month" json:"facility_id"`
	Facility       *Facility  `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	ReportingMonth string     `gorm:"type:varchar(30);not null;uniqueIndex:idx_process_facility_month;index" json:"reporting_month"`
	Status         string     `gorm:"type:varchar(30);not null;index" json:"status"`
	StartedBy      *uuid.UUID `gorm:"type:uuid" json:"started_by"`
	O2CCompletedBy *uuid.UUID `gorm:"column:o2c_completed_by;type:uuid" json:"o2c_completed_by"`
	O2CCompletedAt *time.Time `gorm:"column:o2c_completed_at" json:"o2c_completed_at"`
	EWMCompletedBy *uuid.UUID `gorm:"column:ewm_completed_by;type:uuid" json:"ewm_completed_by"`
	EWMCompletedAt *time.Time `gorm:"column:ewm_completed_at" json:"ewm_completed_at"`
	ODNs           []ODN      `gorm:"foreignKey:ProcessID" json:"odns,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
