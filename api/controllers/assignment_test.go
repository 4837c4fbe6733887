package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mwilachanda/aquaops-backend/internal/workorders"
	"github.com/mwilachanda/aquaops-backend/pkg/db/models"
	"github.com/mwilachanda/aquaops-backend/pkg/enums"
	pkgerrors "github.com/mwilachanda/aquaops-backend/pkg/errors"
)

type testAssignmentService struct {
	assignFn   func(ctx context.Context, orderID, technicianID uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error)
	unassignFn func(ctx context.Context, orderID uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error)
}

func (s *testAssignmentService) Assign(ctx context.Context, orderID, technicianID uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error) {
	if s.assignFn != nil {
		return s.assignFn(ctx, orderID, technicianID, actor)
	}
	return &models.WorkOrder{}, nil
}

func (s *testAssignmentService) Unassign(ctx context.Context, orderID uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error) {
	if s.unassignFn != nil {
		return s.unassignFn(ctx, orderID, actor)
	}
	return &models.WorkOrder{}, nil
}

func TestAssignWorkOrderSuccess(t *testing.T) {
	orderID := uuid.New()
	technicianID := uuid.New()
	svc := &testAssignmentService{
		assignFn: func(ctx context.Context, oid, tid uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error) {
			if oid != orderID {
				t.Fatalf("unexpected order %s", oid)
			}
			if tid != technicianID {
				t.Fatalf("unexpected technician %s", tid)
			}
			return &models.WorkOrder{ID: oid, Status: enums.WorkOrderStatusAssigned, AssigneeID: &tid}, nil
		},
	}

	payload := `{"technician_id":"` + technicianID.String() + `"}`
	req := authedRequest(http.MethodPost, "/api/v1/work-orders/"+orderID.String()+"/assign", strings.NewReader(payload))
	req = withOrderParam(req, orderID)
	resp := httptest.NewRecorder()
	AssignWorkOrder(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAssignWorkOrderConflict(t *testing.T) {
	orderID := uuid.New()
	technicianID := uuid.New()
	svc := &testAssignmentService{
		assignFn: func(ctx context.Context, oid, tid uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error) {
			return nil, pkgerrors.New(pkgerrors.CodeAssignmentConflict, "work order was claimed concurrently")
		},
	}

	payload := `{"technician_id":"` + technicianID.String() + `"}`
	req := authedRequest(http.MethodPost, "/api/v1/work-orders/"+orderID.String()+"/assign", strings.NewReader(payload))
	req = withOrderParam(req, orderID)
	resp := httptest.NewRecorder()
	AssignWorkOrder(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeAssignmentConflict) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}

func TestAssignWorkOrderRejectsMissingTechnician(t *testing.T) {
	orderID := uuid.New()
	svc := &testAssignmentService{
		assignFn: func(ctx context.Context, oid, tid uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/work-orders/"+orderID.String()+"/assign", strings.NewReader(`{}`))
	req = withOrderParam(req, orderID)
	resp := httptest.NewRecorder()
	AssignWorkOrder(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUnassignWorkOrderSuccess(t *testing.T) {
	orderID := uuid.New()
	called := false
	svc := &testAssignmentService{
		unassignFn: func(ctx context.Context, oid uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error) {
			called = true
			return &models.WorkOrder{ID: oid, Status: enums.WorkOrderStatusPending}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/work-orders/"+orderID.String()+"/unassign", nil)
	req = withOrderParam(req, orderID)
	resp := httptest.NewRecorder()
	UnassignWorkOrder(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
}
