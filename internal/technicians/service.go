package technicians

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/mwilachanda/aquaops-backend/pkg/db"
	"github.com/mwilachanda/aquaops-backend/pkg/db/models"
	"github.com/mwilachanda/aquaops-backend/pkg/enums"
	pkgerrors "github.com/mwilachanda/aquaops-backend/pkg/errors"
	"github.com/mwilachanda/aquaops-backend/pkg/logger"
	"github.com/mwilachanda/aquaops-backend/pkg/types"
)

// RegisterInput captures the fields accepted when enrolling a technician.
type RegisterInput struct {
	Name   string
	Email  string
	Phone  string
	Skills types.SkillTags
}

// View pairs a technician row with its derived availability.
type View struct {
	models.Technician
	Availability enums.TechnicianAvailability `json:"availability"`
}

// ListFilters describe the inputs supported by the technician list. Skills
// is a set filter: a technician matches when it holds any requested tag.
type ListFilters struct {
	Availability *enums.TechnicianAvailability
	Skills       []string
}

// ListResult wraps the projected technicians. NoData is set when the store
// could not be reached and the list degraded to empty.
type ListResult struct {
	Technicians []View `json:"technicians"`
	NoData      bool   `json:"no_data,omitempty"`
}

// Service defines technician registry operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Technician, error)
	Get(ctx context.Context, id uuid.UUID) (*View, error)
	List(ctx context.Context, filters ListFilters) (*ListResult, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Technician, error)
	Availability(ctx context.Context, tech *models.Technician) (enums.TechnicianAvailability, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds a technician registry service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("technicians repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Technician, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid email required")
	}

	skills := input.Skills
	if skills == nil {
		skills = types.SkillTags{}
	}

	tech := &models.Technician{
		Name:   name,
		Email:  email,
		Phone:  strings.TrimSpace(input.Phone),
		Role:   "technician",
		Skills: skills,
		Active: true,
	}

	created, err := s.repo.Create(ctx, tech)
	if err != nil {
		if pkgdb.IsUniqueViolation(err, "technicians_email_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create technician")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "technician id required")
	}
	tech, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "technician not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load technician")
	}

	availability, err := s.Availability(ctx, tech)
	if err != nil {
		return nil, err
	}
	return &View{Technician: *tech, Availability: availability}, nil
}

// Availability derives the projection for one technician. Inactive rows are
// offline regardless of assignment state.
func (s *service) Availability(ctx context.Context, tech *models.Technician) (enums.TechnicianAvailability, error) {
	if !tech.Active {
		return enums.TechnicianOffline, nil
	}
	busy, err := s.repo.HasActiveAssignment(ctx, tech.ID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active assignment")
	}
	if busy {
		return enums.TechnicianBusy, nil
	}
	return enums.TechnicianAvailable, nil
}

// List degrades to an explicit empty result when the store is unreachable so
// the assignment picker renders a "no data" state instead of an error page.
func (s *service) List(ctx context.Context, filters ListFilters) (*ListResult, error) {
	techs, err := s.repo.List(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "technician list degraded to empty")
		return &ListResult{Technicians: []View{}, NoData: true}, nil
	}

	counts, err := s.repo.ActiveAssignmentCounts(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "technician list degraded to empty")
		return &ListResult{Technicians: []View{}, NoData: true}, nil
	}

	views := make([]View, 0, len(techs))
	for _, tech := range techs {
		availability := enums.TechnicianAvailable
		if !tech.Active {
			availability = enums.TechnicianOffline
		} else if counts[tech.ID] > 0 {
			availability = enums.TechnicianBusy
		}

		if filters.Availability != nil && availability != *filters.Availability {
			continue
		}
		if len(filters.Skills) > 0 && !tech.Skills.Intersects(filters.Skills) {
			continue
		}
		views = append(views, View{Technician: tech, Availability: availability})
	}
	return &ListResult{Technicians: views}, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Technician, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "technician id required")
	}
	tech, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "technician not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load technician")
	}
	if tech.Active == active {
		return tech, nil
	}
	if err := s.repo.Update(ctx, id, map[string]any{"active": active}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update technician")
	}
	tech.Active = active
	return tech, nil
}
