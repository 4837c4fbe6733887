package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwilachanda/aquaops-backend/api/middleware"
	"github.com/mwilachanda/aquaops-backend/api/responses"
	"github.com/mwilachanda/aquaops-backend/api/validators"
	"github.com/mwilachanda/aquaops-backend/internal/assignment"
	"github.com/mwilachanda/aquaops-backend/internal/workorders"
	"github.com/mwilachanda/aquaops-backend/pkg/enums"
	pkgerrors "github.com/mwilachanda/aquaops-backend/pkg/errors"
	"github.com/mwilachanda/aquaops-backend/pkg/logger"
	"github.com/mwilachanda/aquaops-backend/pkg/pagination"
	"github.com/mwilachanda/aquaops-backend/pkg/types"
)

const (
	maxTitleLen = 200
	maxZoneLen  = 80
	maxQueryLen = 120
	maxNoteLen  = 2000
)

// ListWorkOrders serves the dashboard backlog, most urgent first.
func ListWorkOrders(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work orders service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		filters, err := buildWorkOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type createWorkOrderRequest struct {
	Title                string              `json:"title" validate:"required,max=200"`
	Description          string              `json:"description,omitempty" validate:"max=4000"`
	Type                 string              `json:"type" validate:"required"`
	Priority             string              `json:"priority,omitempty"`
	Zone                 string              `json:"zone" validate:"required,max=80"`
	ScheduledFor         *time.Time          `json:"scheduled_for,omitempty"`
	EstimatedDurationMin *int                `json:"estimated_duration_min,omitempty"`
	Materials            types.MaterialLines `json:"materials,omitempty"`
	SourceLeakID         *string             `json:"source_leak_id,omitempty"`
}

// CreateWorkOrder opens a new pending order.
func CreateWorkOrder(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work orders service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createWorkOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderType, err := enums.ParseWorkOrderType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid work order type"))
			return
		}

		input := workorders.CreateInput{
			Title:                validators.SanitizeString(req.Title, maxTitleLen),
			Description:          strings.TrimSpace(req.Description),
			Type:                 orderType,
			Zone:                 validators.SanitizeString(req.Zone, maxZoneLen),
			ScheduledFor:         req.ScheduledFor,
			EstimatedDurationMin: req.EstimatedDurationMin,
			Materials:            req.Materials,
			SourceLeakID:         req.SourceLeakID,
			Actor:                actor,
		}
		if req.Priority != "" {
			priority, err := enums.ParseWorkOrderPriority(req.Priority)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority"))
				return
			}
			input.Priority = priority
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// WorkOrderDetail returns one order with its note trail.
func WorkOrderDetail(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type transitionRequest struct {
	Target            string  `json:"target" validate:"required"`
	ActualDurationMin *int    `json:"actual_duration_min,omitempty"`
	Note              *string `json:"note,omitempty"`
}

// TransitionWorkOrder moves an order to the requested lifecycle status.
func TransitionWorkOrder(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work orders service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseWorkOrderStatus(req.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		input := workorders.TransitionInput{
			OrderID:           orderID,
			Target:            target,
			ActualDurationMin: req.ActualDurationMin,
			Actor:             actor,
		}
		if req.Note != nil {
			note := validators.SanitizeString(*req.Note, maxNoteLen)
			if note != "" {
				input.Note = &note
			}
		}

		order, err := svc.Transition(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type assignRequest struct {
	TechnicianID string `json:"technician_id" validate:"required,uuid4"`
}

// AssignWorkOrder claims a pending order for a technician.
func AssignWorkOrder(svc assignment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignment service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req assignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		technicianID, err := uuid.Parse(req.TechnicianID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid technician id"))
			return
		}

		order, err := svc.Assign(r.Context(), orderID, technicianID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// UnassignWorkOrder returns an assigned order to the pending pool.
func UnassignWorkOrder(svc assignment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignment service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Unassign(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type addNoteRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

// AddWorkOrderNote appends a comment to an order's trail.
func AddWorkOrderNote(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work orders service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addNoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		note, err := svc.AddNote(r.Context(), workorders.NoteInput{
			OrderID: orderID,
			Body:    validators.SanitizeString(req.Body, maxNoteLen),
			Actor:   actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, note)
	}
}

// ListWorkOrderNotes returns the full note trail for one order.
func ListWorkOrderNotes(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notes, err := svc.Notes(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, notes)
	}
}

func buildWorkOrderFilters(r *http.Request) (workorders.ListFilters, error) {
	filters := workorders.ListFilters{
		Zone:  validators.SanitizeString(r.URL.Query().Get("zone"), maxZoneLen),
		Query: validators.SanitizeString(r.URL.Query().Get("q"), maxQueryLen),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseWorkOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("priority")); raw != "" {
		priority, err := enums.ParseWorkOrderPriority(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority filter")
		}
		filters.Priority = &priority
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("assignee_id")); raw != "" {
		assigneeID, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid assignee filter")
		}
		filters.AssigneeID = &assigneeID
	}

	return filters, nil
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}

func actorFromRequest(r *http.Request) (workorders.Actor, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return workorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return workorders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}

	role, err := enums.ParseActorRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return workorders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "unknown actor role")
	}

	return workorders.Actor{ID: actorID, Role: role}, nil
}
