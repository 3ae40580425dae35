package model

import (
	"time"

	"github.com/google/uuid"
)

// RRFNotSent marks a facility that submitted no requisition this period.
// Such ODNs carry no shipment and are left out of every count.
const RRFNotSent = "RRF not sent"

const (
	ODNStatusPending      = "pending"
	ODNStatusDelivered    = "delivered"
	ODNStatusNotDelivered = "not_delivered"
)

// ODN is one order delivery number shipped under a process.
type ODN struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProcessID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_odn_process_number" json:"process_id"`
	Process   *Process  `gorm:"foreignKey:ProcessID" json:"process,omitempty"`
	ODNNumber string    `gorm:"column:odn_number;type:varchar(100);not null;uniqueIndex:idx_odn_process_number" json:"odn_number"`
	Status    string    `gorm:"type:varchar(30);not null;default:'pending'" json:"status"`

	PODConfirmed   bool       `gorm:"column:pod_confirmed;default:false" json:"pod_confirmed"`
	PODReason      string     `gorm:"column:pod_reason;type:text" json:"pod_reason"`
	PODNumber      string     `gorm:"column:pod_number;type:varchar(100)" json:"pod_number"`
	PODConfirmedBy *uuid.UUID `gorm:"column:pod_confirmed_by;type:uuid" json:"pod_confirmed_by"`
	PODConfirmedAt *time.Time `gorm:"column:pod_confirmed_at" json:"pod_confirmed_at"`

	DocumentsSigned     bool       `gorm:"default:false" json:"documents_signed"`
	DocumentsHandover   bool       `gorm:"default:false" json:"documents_handover"`
	FollowupCompletedBy *uuid.UUID `gorm:"type:uuid" json:"followup_completed_by"`
	FollowupCompletedAt *time.Time `json:"followup_completed_at"`

	QualityConfirmed   bool       `gorm:"default:false" json:"quality_confirmed"`
	QualityFeedback    string     `gorm:"type:text" json:"quality_feedback"`
	QualityEvaluatedBy *uuid.UUID `gorm:"type:uuid" json:"quality_evaluated_by"`
	QualityEvaluatedAt *time.Time `json:"quality_evaluated_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ODN) TableName() string { return "odns" }

// IsSentinel reports whether the ODN is the "RRF not sent" placeholder.
func (o ODN) IsSentinel() bool { return o.ODNNumber == RRFNotSent }
