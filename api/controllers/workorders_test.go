package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwilachanda/aquaops-backend/api/middleware"
	"github.com/mwilachanda/aquaops-backend/internal/workorders"
	"github.com/mwilachanda/aquaops-backend/pkg/db/models"
	"github.com/mwilachanda/aquaops-backend/pkg/enums"
	pkgerrors "github.com/mwilachanda/aquaops-backend/pkg/errors"
	"github.com/mwilachanda/aquaops-backend/pkg/logger"
	"github.com/mwilachanda/aquaops-backend/pkg/pagination"
)

type testWorkOrdersService struct {
	createFn     func(ctx context.Context, input workorders.CreateInput) (*models.WorkOrder, error)
	getFn        func(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	listFn       func(ctx context.Context, params pagination.Params, filters workorders.ListFilters) (*workorders.ListResult, error)
	transitionFn func(ctx context.Context, input workorders.TransitionInput) (*models.WorkOrder, error)
	addNoteFn    func(ctx context.Context, input workorders.NoteInput) (*models.WorkOrderNote, error)
	notesFn      func(ctx context.Context, orderID uuid.UUID) ([]models.WorkOrderNote, error)
}

func (s *testWorkOrdersService) Create(ctx context.Context, input workorders.CreateInput) (*models.WorkOrder, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &models.WorkOrder{}, nil
}

func (s *testWorkOrdersService) Get(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return &models.WorkOrder{}, nil
}

func (s *testWorkOrdersService) List(ctx context.Context, params pagination.Params, filters workorders.ListFilters) (*workorders.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params, filters)
	}
	return &workorders.ListResult{Orders: []models.WorkOrder{}}, nil
}

func (s *testWorkOrdersService) Transition(ctx context.Context, input workorders.TransitionInput) (*models.WorkOrder, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, input)
	}
	return &models.WorkOrder{}, nil
}

func (s *testWorkOrdersService) AddNote(ctx context.Context, input workorders.NoteInput) (*models.WorkOrderNote, error) {
	if s.addNoteFn != nil {
		return s.addNoteFn(ctx, input)
	}
	return &models.WorkOrderNote{}, nil
}

func (s *testWorkOrdersService) Notes(ctx context.Context, orderID uuid.UUID) ([]models.WorkOrderNote, error) {
	if s.notesFn != nil {
		return s.notesFn(ctx, orderID)
	}
	return nil, nil
}

func testControllerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func authedRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	ctx = middleware.WithRole(ctx, string(enums.ActorRoleOperator))
	return req.WithContext(ctx)
}

func withOrderParam(req *http.Request, orderID uuid.UUID) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCreateWorkOrderSuccess(t *testing.T) {
	var captured workorders.CreateInput
	svc := &testWorkOrdersService{
		createFn: func(ctx context.Context, input workorders.CreateInput) (*models.WorkOrder, error) {
			captured = input
			return &models.WorkOrder{ID: uuid.New(), Title: input.Title, Status: enums.WorkOrderStatusPending}, nil
		},
	}

	payload := `{"title":"Repair main at junction 4","type":"leak_repair","priority":"high","zone":"Area 18"}`
	req := authedRequest(http.MethodPost, "/api/v1/work-orders", strings.NewReader(payload))
	resp := httptest.NewRecorder()
	CreateWorkOrder(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if captured.Type != enums.WorkOrderTypeLeakRepair {
		t.Fatalf("unexpected type %s", captured.Type)
	}
	if captured.Priority != enums.WorkOrderPriorityHigh {
		t.Fatalf("unexpected priority %s", captured.Priority)
	}
	if captured.Actor.Role != enums.ActorRoleOperator {
		t.Fatalf("unexpected actor role %s", captured.Actor.Role)
	}
}

func TestCreateWorkOrderRejectsUnknownType(t *testing.T) {
	svc := &testWorkOrdersService{
		createFn: func(ctx context.Context, input workorders.CreateInput) (*models.WorkOrder, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	payload := `{"title":"x","type":"paint_fence","zone":"Area 18"}`
	req := authedRequest(http.MethodPost, "/api/v1/work-orders", strings.NewReader(payload))
	resp := httptest.NewRecorder()
	CreateWorkOrder(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateWorkOrderRequiresActor(t *testing.T) {
	svc := &testWorkOrdersService{}
	payload := `{"title":"x","type":"inspection","zone":"Area 18"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/work-orders", strings.NewReader(payload))
	resp := httptest.NewRecorder()
	CreateWorkOrder(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestListWorkOrdersPassesFilters(t *testing.T) {
	var captured workorders.ListFilters
	svc := &testWorkOrdersService{
		listFn: func(ctx context.Context, params pagination.Params, filters workorders.ListFilters) (*workorders.ListResult, error) {
			captured = filters
			return &workorders.ListResult{Orders: []models.WorkOrder{}}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/work-orders?status=pending&priority=critical&zone=Area+25&q=burst", nil)
	resp := httptest.NewRecorder()
	ListWorkOrders(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if captured.Status == nil || *captured.Status != enums.WorkOrderStatusPending {
		t.Fatalf("status filter not forwarded: %+v", captured)
	}
	if captured.Priority == nil || *captured.Priority != enums.WorkOrderPriorityCritical {
		t.Fatalf("priority filter not forwarded: %+v", captured)
	}
	if captured.Zone != "Area 25" || captured.Query != "burst" {
		t.Fatalf("text filters not forwarded: %+v", captured)
	}
}

func TestListWorkOrdersRejectsBadStatus(t *testing.T) {
	svc := &testWorkOrdersService{}
	req := authedRequest(http.MethodGet, "/api/v1/work-orders?status=bogus", nil)
	resp := httptest.NewRecorder()
	ListWorkOrders(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestTransitionWorkOrderConflictSurfacesCode(t *testing.T) {
	orderID := uuid.New()
	svc := &testWorkOrdersService{
		transitionFn: func(ctx context.Context, input workorders.TransitionInput) (*models.WorkOrder, error) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "cannot move completed order")
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/work-orders/"+orderID.String()+"/transition", strings.NewReader(`{"target":"in_progress"}`))
	req = withOrderParam(req, orderID)
	resp := httptest.NewRecorder()
	TransitionWorkOrder(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInvalidTransition) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
	if envelope.Error.Message != "cannot move completed order" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestTransitionWorkOrderRejectsAssigneePayload(t *testing.T) {
	orderID := uuid.New()
	assigneeID := uuid.New()
	called := false
	svc := &testWorkOrdersService{
		transitionFn: func(ctx context.Context, input workorders.TransitionInput) (*models.WorkOrder, error) {
			called = true
			return &models.WorkOrder{ID: orderID, Status: input.Target}, nil
		},
	}

	payload := `{"target":"assigned","assignee_id":"` + assigneeID.String() + `"}`
	req := authedRequest(http.MethodPost, "/api/v1/work-orders/"+orderID.String()+"/transition", strings.NewReader(payload))
	req = withOrderParam(req, orderID)
	resp := httptest.NewRecorder()
	TransitionWorkOrder(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
	if called {
		t.Fatal("service must not run when the payload tries to set an assignee")
	}
}

func TestAddWorkOrderNoteSuccess(t *testing.T) {
	orderID := uuid.New()
	var captured workorders.NoteInput
	svc := &testWorkOrdersService{
		addNoteFn: func(ctx context.Context, input workorders.NoteInput) (*models.WorkOrderNote, error) {
			captured = input
			return &models.WorkOrderNote{ID: uuid.New(), WorkOrderID: input.OrderID, Body: input.Body}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/work-orders/"+orderID.String()+"/notes", strings.NewReader(`{"body":"valve box flooded"}`))
	req = withOrderParam(req, orderID)
	resp := httptest.NewRecorder()
	AddWorkOrderNote(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if captured.OrderID != orderID {
		t.Fatalf("unexpected order id %s", captured.OrderID)
	}
	if captured.Body != "valve box flooded" {
		t.Fatalf("unexpected body %q", captured.Body)
	}
}

func TestWorkOrderDetailInvalidID(t *testing.T) {
	svc := &testWorkOrdersService{}
	req := authedRequest(http.MethodGet, "/api/v1/work-orders/not-a-uuid", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	resp := httptest.NewRecorder()
	WorkOrderDetail(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
