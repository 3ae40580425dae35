package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActionStartProcess         = "START_PROCESS"
	ActionCompleteProcess      = "COMPLETE_PROCESS"
	ActionEWMCompleteProcess   = "EWM_COMPLETE_PROCESS"
	ActionEWMRevertProcess     = "EWM_REVERT_PROCESS"
	ActionDeleteProcess        = "DELETE_PROCESS"
	ActionSubmitVehicleRequest = "SUBMIT_VEHICLE_REQUEST"
	ActionDeleteVehicleRequest = "DELETE_VEHICLE_REQUEST"
	ActionCreateAssignment     = "CREATE_ROUTE_ASSIGNMENT"
	ActionUpdateAssignment     = "UPDATE_ROUTE_ASSIGNMENT_STATUS"
	ActionDeleteAssignment     = "DELETE_ROUTE_ASSIGNMENT"
)

// AuditLog tracks who did what to which workflow entity.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	User       *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string         `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string         `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    datatypes.JSON `json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}
