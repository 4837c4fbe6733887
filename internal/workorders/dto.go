package workorders

import (
	"time"

	"github.com/google/uuid"

	"github.com/mwilachanda/aquaops-backend/pkg/db/models"
	"github.com/mwilachanda/aquaops-backend/pkg/enums"
	"github.com/mwilachanda/aquaops-backend/pkg/types"
)

// Actor identifies who is issuing a lifecycle action.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

// CreateInput captures the fields accepted when opening a work order.
type CreateInput struct {
	Title                string
	Description          string
	Type                 enums.WorkOrderType
	Priority             enums.WorkOrderPriority
	Zone                 string
	ScheduledFor         *time.Time
	EstimatedDurationMin *int
	Materials            types.MaterialLines
	SourceLeakID         *string
	Actor                Actor
}

// TransitionInput carries a requested status move for one order. Assignee
// changes are not part of it; they belong to the assignment coordinator.
type TransitionInput struct {
	OrderID           uuid.UUID
	Target            enums.WorkOrderStatus
	ActualDurationMin *int
	Note              *string
	Actor             Actor
}

// NoteInput carries a free-form comment appended to an order's trail.
type NoteInput struct {
	OrderID uuid.UUID
	Body    string
	Actor   Actor
}

// ListFilters describe the inputs supported by the work order list.
type ListFilters struct {
	Status     *enums.WorkOrderStatus
	Priority   *enums.WorkOrderPriority
	Zone       string
	AssigneeID *uuid.UUID
	Query      string
}

// ListResult wraps the paginated orders plus the next page cursor. NoData is
// set when the store could not be reached and the list degraded to empty.
type ListResult struct {
	Orders     []models.WorkOrder `json:"orders"`
	NextCursor string             `json:"next_cursor,omitempty"`
	NoData     bool               `json:"no_data,omitempty"`
}
