package model

import (
	"time"

	"github.com/google/uuid"
)

// Route groups the facilities one vehicle serves in a dispatch run.
type Route struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Facilities  []Facility `gorm:"foreignKey:RouteID" json:"facilities,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
