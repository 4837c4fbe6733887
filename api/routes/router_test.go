package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mwilachanda/aquaops-backend/internal/technicians"
	"github.com/mwilachanda/aquaops-backend/internal/workorders"
	pkgAuth "github.com/mwilachanda/aquaops-backend/pkg/auth"
	"github.com/mwilachanda/aquaops-backend/pkg/config"
	"github.com/mwilachanda/aquaops-backend/pkg/db/models"
	"github.com/mwilachanda/aquaops-backend/pkg/enums"
	"github.com/mwilachanda/aquaops-backend/pkg/logger"
	"github.com/mwilachanda/aquaops-backend/pkg/pagination"
	"github.com/mwilachanda/aquaops-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubWorkOrdersService struct{}

func (stubWorkOrdersService) Create(ctx context.Context, input workorders.CreateInput) (*models.WorkOrder, error) {
	return &models.WorkOrder{ID: uuid.New(), Title: input.Title, Status: enums.WorkOrderStatusPending}, nil
}

func (stubWorkOrdersService) Get(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	return &models.WorkOrder{ID: id}, nil
}

func (stubWorkOrdersService) List(ctx context.Context, params pagination.Params, filters workorders.ListFilters) (*workorders.ListResult, error) {
	return &workorders.ListResult{Orders: []models.WorkOrder{}}, nil
}

func (stubWorkOrdersService) Transition(ctx context.Context, input workorders.TransitionInput) (*models.WorkOrder, error) {
	return &models.WorkOrder{ID: input.OrderID, Status: input.Target}, nil
}

func (stubWorkOrdersService) AddNote(ctx context.Context, input workorders.NoteInput) (*models.WorkOrderNote, error) {
	return &models.WorkOrderNote{ID: uuid.New(), WorkOrderID: input.OrderID, Body: input.Body}, nil
}

func (stubWorkOrdersService) Notes(ctx context.Context, orderID uuid.UUID) ([]models.WorkOrderNote, error) {
	return nil, nil
}

type stubTechniciansService struct{}

func (stubTechniciansService) Register(ctx context.Context, input technicians.RegisterInput) (*models.Technician, error) {
	return &models.Technician{ID: uuid.New(), Name: input.Name, Active: true}, nil
}

func (stubTechniciansService) Get(ctx context.Context, id uuid.UUID) (*technicians.View, error) {
	return &technicians.View{}, nil
}

func (stubTechniciansService) List(ctx context.Context, filters technicians.ListFilters) (*technicians.ListResult, error) {
	return &technicians.ListResult{Technicians: []technicians.View{}}, nil
}

func (stubTechniciansService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Technician, error) {
	return &models.Technician{ID: id, Active: active}, nil
}

func (stubTechniciansService) Availability(ctx context.Context, tech *models.Technician) (enums.TechnicianAvailability, error) {
	return enums.TechnicianAvailable, nil
}

type stubAssignmentService struct{}

func (stubAssignmentService) Assign(ctx context.Context, orderID, technicianID uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error) {
	return &models.WorkOrder{ID: orderID, Status: enums.WorkOrderStatusAssigned, AssigneeID: &technicianID}, nil
}

func (stubAssignmentService) Unassign(ctx context.Context, orderID uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error) {
	return &models.WorkOrder{ID: orderID, Status: enums.WorkOrderStatusPending}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "router-test-secret", Issuer: "aquaops-test", ExpirationMinutes: 30},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubWorkOrdersService{},
		stubTechniciansService{},
		stubAssignmentService{},
	)
}

func mintToken(t *testing.T, cfg *config.Config, role enums.ActorRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthEndpointsArePublic(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
		if got := resp.Header().Get("X-AquaOps-Env"); got != "test" {
			t.Fatalf("%s: expected env header, got %q", path, got)
		}
	}
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAPIRequiresAuthentication(t *testing.T) {
	router := newTestRouter(testConfig())

	paths := []string{
		"/api/v1/work-orders",
		"/api/v1/technicians",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, resp.Code)
		}
	}
}

func TestListWorkOrdersWithToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/work-orders?status=pending", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.ActorRoleTechnician))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestTechnicianCannotCreateWorkOrder(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/work-orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.ActorRoleTechnician))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestOperatorCannotRegisterTechnician(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/technicians", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.ActorRoleOperator))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestTechnicianListWithToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/technicians?availability=available", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.ActorRoleOperator))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}
