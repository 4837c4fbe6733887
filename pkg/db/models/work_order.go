package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mwilachanda/aquaops-backend/pkg/enums"
	"github.com/mwilachanda/aquaops-backend/pkg/types"
)

// WorkOrder is a unit of field work tracked through the lifecycle state
// machine. Orders are never deleted; terminal statuses soft-retire them.
type WorkOrder struct {
	ID                   uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title                string                  `gorm:"column:title;not null"`
	Description          string                  `gorm:"column:description"`
	Type                 enums.WorkOrderType     `gorm:"column:type;type:text;not null"`
	Priority             enums.WorkOrderPriority `gorm:"column:priority;type:text;not null;default:'medium'"`
	Status               enums.WorkOrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	Zone                 string                  `gorm:"column:zone;not null"`
	AssigneeID           *uuid.UUID              `gorm:"column:assignee_id;type:uuid"`
	ScheduledFor         *time.Time              `gorm:"column:scheduled_for"`
	StartedAt            *time.Time              `gorm:"column:started_at"`
	CompletedAt          *time.Time              `gorm:"column:completed_at"`
	EstimatedDurationMin *int                    `gorm:"column:estimated_duration_min"`
	ActualDurationMin    *int                    `gorm:"column:actual_duration_min"`
	Materials            types.MaterialLines     `gorm:"column:materials;type:jsonb;not null"`
	SourceLeakID         *string                 `gorm:"column:source_leak_id"`
	Notes                []WorkOrderNote         `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides GORM's pluralization.
func (WorkOrder) TableName() string {
	return "work_orders"
}
