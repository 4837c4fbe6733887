package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mwilachanda/aquaops-backend/pkg/enums"
)

// WorkOrderNote is one append-only entry in a work order's note trail.
// Status-change audit entries and operator comments share the table.
type WorkOrderNote struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WorkOrderID uuid.UUID       `gorm:"column:work_order_id;type:uuid;not null;index"`
	AuthorID    uuid.UUID       `gorm:"column:author_id;type:uuid;not null"`
	AuthorRole  enums.ActorRole `gorm:"column:author_role;type:text;not null"`
	Kind        enums.NoteKind  `gorm:"column:kind;type:text;not null;default:'comment'"`
	Body        string          `gorm:"column:body;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides GORM's pluralization.
func (WorkOrderNote) TableName() string {
	return "work_order_notes"
}
