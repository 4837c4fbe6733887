package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwilachanda/aquaops-backend/api/responses"
	"github.com/mwilachanda/aquaops-backend/api/validators"
	"github.com/mwilachanda/aquaops-backend/internal/technicians"
	"github.com/mwilachanda/aquaops-backend/pkg/enums"
	pkgerrors "github.com/mwilachanda/aquaops-backend/pkg/errors"
	"github.com/mwilachanda/aquaops-backend/pkg/logger"
	"github.com/mwilachanda/aquaops-backend/pkg/types"
)

const maxSkillLen = 60

// ListTechnicians returns the roster with derived availability.
func ListTechnicians(svc technicians.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "technicians service unavailable"))
			return
		}

		var filters technicians.ListFilters
		for _, raw := range r.URL.Query()["skill"] {
			if skill := validators.SanitizeString(raw, maxSkillLen); skill != "" {
				filters.Skills = append(filters.Skills, skill)
			}
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("availability")); raw != "" {
			availability, err := enums.ParseTechnicianAvailability(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid availability filter"))
				return
			}
			filters.Availability = &availability
		}

		list, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type registerTechnicianRequest struct {
	Name   string   `json:"name" validate:"required,max=120"`
	Email  string   `json:"email" validate:"required,email"`
	Phone  string   `json:"phone,omitempty" validate:"max=40"`
	Skills []string `json:"skills,omitempty"`
}

// RegisterTechnician adds a technician to the roster.
func RegisterTechnician(svc technicians.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "technicians service unavailable"))
			return
		}

		var req registerTechnicianRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		technician, err := svc.Register(r.Context(), technicians.RegisterInput{
			Name:   req.Name,
			Email:  req.Email,
			Phone:  strings.TrimSpace(req.Phone),
			Skills: types.SkillTags(req.Skills),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, technician)
	}
}

// TechnicianDetail returns one technician with derived availability.
func TechnicianDetail(svc technicians.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "technicians service unavailable"))
			return
		}

		technicianID, err := parseTechnicianID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), technicianID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// SetTechnicianActive toggles whether a technician can take assignments.
func SetTechnicianActive(svc technicians.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "technicians service unavailable"))
			return
		}

		technicianID, err := parseTechnicianID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setActiveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		technician, err := svc.SetActive(r.Context(), technicianID, *req.Active)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, technician)
	}
}

func parseTechnicianID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "technicianId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "technician id is required")
	}
	technicianID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid technician id")
	}
	return technicianID, nil
}
