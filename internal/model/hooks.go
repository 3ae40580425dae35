package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IDs are assigned client-side so the schema does not depend on
// database-specific UUID generators.

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error { assignID(&u.ID); return nil }
func (a *AuditLog) BeforeCreate(*gorm.DB) error { assignID(&a.ID); return nil }
func (f *Facility) BeforeCreate(*gorm.DB) error { assignID(&f.ID); return nil }
func (r *Route) BeforeCreate(*gorm.DB) error { assignID(&r.ID); return nil }
func (p *Process) BeforeCreate(*gorm.DB) error { assignID(&p.ID); return nil }
func (o *ODN) BeforeCreate(*gorm.DB) error { assignID(&o.ID); return nil }
func (v *Vehicle) BeforeCreate(*gorm.DB) error { assignID(&v.ID); return nil }
func (r *RouteAssignment) BeforeCreate(*gorm.DB) error { assignID(&r.ID); return nil }
func (r *PIVehicleRequest) BeforeCreate(*gorm.DB) error { assignID(&r.ID); return nil }
