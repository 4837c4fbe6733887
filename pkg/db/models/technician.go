package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mwilachanda/aquaops-backend/pkg/types"
)

// Technician is a field worker who can hold at most one active assignment.
// Availability is never stored here; it is derived from current work order
// assignments at read time.
type Technician struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Email     string          `gorm:"column:email;not null"`
	Phone     string          `gorm:"column:phone"`
	Role      string          `gorm:"column:role;not null;default:'technician'"`
	Skills    types.SkillTags `gorm:"column:skills;type:jsonb;not null"`
	Active    bool            `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides GORM's pluralization.
func (Technician) TableName() string {
	return "technicians"
}
