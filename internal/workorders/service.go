package workorders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwilachanda/aquaops-backend/pkg/db/models"
	"github.com/mwilachanda/aquaops-backend/pkg/enums"
	pkgerrors "github.com/mwilachanda/aquaops-backend/pkg/errors"
	"github.com/mwilachanda/aquaops-backend/pkg/logger"
	"github.com/mwilachanda/aquaops-backend/pkg/pagination"
	"github.com/mwilachanda/aquaops-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines work order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.WorkOrder, error)
	Get(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error)
	Transition(ctx context.Context, input TransitionInput) (*models.WorkOrder, error)
	AddNote(ctx context.Context, input NoteInput) (*models.WorkOrderNote, error)
	Notes(ctx context.Context, orderID uuid.UUID) ([]models.WorkOrderNote, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
	now  func() time.Time
}

// Every legal edge in the lifecycle state machine. Terminal statuses have no
// outgoing edges; assigned can fall back to pending via unassignment.
var allowedTransitions = map[enums.WorkOrderStatus][]enums.WorkOrderStatus{
	enums.WorkOrderStatusPending:    {enums.WorkOrderStatusAssigned, enums.WorkOrderStatusCancelled},
	enums.WorkOrderStatusAssigned:   {enums.WorkOrderStatusInProgress, enums.WorkOrderStatusCancelled, enums.WorkOrderStatusPending},
	enums.WorkOrderStatusInProgress: {enums.WorkOrderStatusCompleted, enums.WorkOrderStatusCancelled},
	enums.WorkOrderStatusCompleted:  {},
	enums.WorkOrderStatusCancelled:  {},
}

// NewService builds a work order lifecycle service with the required dependencies.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("work orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo: repo,
		tx:   tx,
		logg: logg,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.WorkOrder, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if strings.TrimSpace(input.Zone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "zone required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid work order type")
	}
	priority := input.Priority
	if priority == "" {
		priority = enums.WorkOrderPriorityMedium
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid work order priority")
	}
	if input.EstimatedDurationMin != nil && *input.EstimatedDurationMin <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated duration must be positive")
	}
	if input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	materials := input.Materials
	if materials == nil {
		materials = types.MaterialLines{}
	}

	order := &models.WorkOrder{
		Title:                strings.TrimSpace(input.Title),
		Description:          input.Description,
		Type:                 input.Type,
		Priority:             priority,
		Status:               enums.WorkOrderStatusPending,
		Zone:                 strings.TrimSpace(input.Zone),
		ScheduledFor:         input.ScheduledFor,
		EstimatedDurationMin: input.EstimatedDurationMin,
		Materials:            materials,
		SourceLeakID:         input.SourceLeakID,
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create work order")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "work order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load work order")
	}
	return order, nil
}

// List degrades to an explicit empty result when the store is unreachable so
// dependent views render a "no data" state instead of an error page.
func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if filters.Priority != nil && !filters.Priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority filter")
	}

	orders, next, err := s.repo.List(ctx, params, filters)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "work order list degraded to empty")
		return &ListResult{Orders: []models.WorkOrder{}, NoData: true}, nil
	}

	result := &ListResult{Orders: orders}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.WorkOrder, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}
	if input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	var updated *models.WorkOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "work order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load work order")
		}

		// Re-issuing an already-applied transition returns the current
		// entity unchanged.
		if order.Status == input.Target {
			updated = order
			return nil
		}

		if !transitionAllowed(order.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot move %s to %s", order.Status, input.Target))
		}

		// Transitions never choose an assignee. Claiming an order for a
		// technician goes through the assignment coordinator, which checks
		// existence, active state, and live availability first.
		if input.Target.RequiresAssignee() && order.AssigneeID == nil {
			return pkgerrors.New(pkgerrors.CodePreconditionUnmet,
				fmt.Sprintf("assignee required before %s", input.Target))
		}

		now := s.now()
		updates := map[string]any{"status": input.Target}

		switch input.Target {
		case enums.WorkOrderStatusPending:
			updates["assignee_id"] = nil
		case enums.WorkOrderStatusInProgress:
			if order.StartedAt == nil {
				updates["started_at"] = now
			}
		case enums.WorkOrderStatusCompleted:
			if order.CompletedAt == nil {
				updates["completed_at"] = now
			}
			if input.ActualDurationMin != nil {
				updates["actual_duration_min"] = *input.ActualDurationMin
			} else if order.ActualDurationMin == nil && order.StartedAt != nil {
				minutes := int(now.Sub(*order.StartedAt).Minutes())
				if minutes < 0 {
					minutes = 0
				}
				updates["actual_duration_min"] = minutes
			}
		}

		affected, err := repo.UpdateGuarded(ctx, order.ID, order.Status, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update work order status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "work order changed concurrently")
		}

		note := &models.WorkOrderNote{
			WorkOrderID: order.ID,
			AuthorID:    input.Actor.ID,
			AuthorRole:  input.Actor.Role,
			Kind:        enums.NoteKindStatusChange,
			Body:        statusChangeBody(order.Status, input.Target, input.Note),
		}
		if err := repo.AppendNote(ctx, note); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status note")
		}

		updated, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload work order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) AddNote(ctx context.Context, input NoteInput) (*models.WorkOrderNote, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note body required")
	}
	if input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	note := &models.WorkOrderNote{
		WorkOrderID: input.OrderID,
		AuthorID:    input.Actor.ID,
		AuthorRole:  input.Actor.Role,
		Kind:        enums.NoteKindComment,
		Body:        strings.TrimSpace(input.Body),
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, input.OrderID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "work order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load work order")
		}
		if err := repo.AppendNote(ctx, note); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append note")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (s *service) Notes(ctx context.Context, orderID uuid.UUID) ([]models.WorkOrderNote, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	notes, err := s.repo.ListNotes(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notes")
	}
	return notes, nil
}

func transitionAllowed(from, to enums.WorkOrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func statusChangeBody(from, to enums.WorkOrderStatus, note *string) string {
	body := fmt.Sprintf("status changed from %s to %s", from, to)
	if note != nil && strings.TrimSpace(*note) != "" {
		body += ": " + strings.TrimSpace(*note)
	}
	return body
}
