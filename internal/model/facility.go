package model

import (
	"time"

	"github.com/google/uuid"
)

// Facility ordering cycles. Monthly facilities are due every period.
const (
	FacilityPeriodOdd     = "Odd"
	FacilityPeriodEven    = "Even"
	FacilityPeriodMonthly = "Monthly"
)

// Facility is a health facility served by a delivery route.
type Facility struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	Code      string     `gorm:"type:varchar(50);index" json:"code"`
	Region    string     `gorm:"type:varchar(100)" json:"region"`
	Zone      string     `gorm:"type:varchar(100)" json:"zone"`
	Woreda    string     `gorm:"type:varchar(100)" json:"woreda"`
	RouteID   *uuid.UUID `gorm:"type:uuid;index" json:"route_id"`
	Route     *Route     `gorm:"foreignKey:RouteID" json:"route,omitempty"`
	Period    *string    `gorm:"type:varchar(10);index" json:"period"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsValidFacilityPeriod accepts the three cycles; nil means unscheduled.
func IsValidFacilityPeriod(p string) bool {
	return p == FacilityPeriodOdd || p == FacilityPeriodEven || p == FacilityPeriodMonthly
}
