package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles recognised by the workflow. Each officer role owns one pipeline stage.
const (
	RoleAdmin                = "admin"
	RoleO2COfficer           = "o2c_officer"
	RoleEWMOfficer           = "ewm_officer"
	RolePIOfficer            = "pi_officer"
	RoleDispatcher           = "dispatcher"
	RoleDocumentationOfficer = "documentation_officer"
	RoleQualityOfficer       = "quality_officer"
	RoleDriver               = "driver"
	RoleDeliverer            = "deliverer"
)

// AllRoles lists every assignable role.
var AllRoles = []string{
	RoleAdmin, RoleO2COfficer, RoleEWMOfficer, RolePIOfficer, RoleDispatcher,
	RoleDocumentationOfficer, RoleQualityOfficer, RoleDriver, RoleDeliverer,
}

// User is a staff account; drivers and deliverers are users too.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	FullName  string         `gorm:"type:varchar(255)" json:"full_name"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string         `gorm:"type:varchar(20)" json:"phone"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-"`
	Role      string         `gorm:"type:varchar(50);not null;index" json:"role"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsValidRole reports whether role is one of AllRoles.
func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
