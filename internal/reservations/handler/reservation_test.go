package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"fleetbook/internal/reservations/validator"
	apperrors "fleetbook/pkg/errors"
	"fleetbook/pkg/logger"
	"fleetbook/pkg/model"
)

// mockService implements service.ReservationService with overridable funcs.
type mockService struct {
	createFn   func(ctx context.Context, req *validator.CreateReservationRequest) (*model.Reservation, error)
	getFn      func(ctx context.Context, id string) (*model.Reservation, error)
	approveFn  func(ctx context.Context, id, operatorID string) (*model.Reservation, error)
	cancelFn   func(ctx context.Context, id, actorID string) (*model.Reservation, error)
	completeFn func(ctx context.Context, id, actorID string, force bool) (*model.Reservation, error)
	activeFn   func(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, int64, error)
	historyFn  func(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, int64, error)
	calendarFn func(ctx context.Context, vehicleID string) ([]*model.Reservation, error)
}

func (m *mockService) Create(ctx context.Context, req *validator.CreateReservationRequest) (*model.Reservation, error) {
	return m.createFn(ctx, req)
}

func (m *mockService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	return m.getFn(ctx, id)
}

func (m *mockService) Approve(ctx context.Context, id, operatorID string) (*model.Reservation, error) {
	return m.approveFn(ctx, id, operatorID)
}

func (m *mockService) Cancel(ctx context.Context, id, actorID string) (*model.Reservation, error) {
	return m.cancelFn(ctx, id, actorID)
}

func (m *mockService) Complete(ctx context.Context, id, actorID string, force bool) (*model.Reservation, error) {
	return m.completeFn(ctx, id, actorID, force)
}

func (m *mockService) ListActive(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	return m.activeFn(ctx, requesterID, limit, offset)
}

func (m *mockService) ListHistory(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	return m.historyFn(ctx, requesterID, limit, offset)
}

func (m *mockService) VehicleCalendar(ctx context.Context, vehicleID string) ([]*model.Reservation, error) {
	return m.calendarFn(ctx, vehicleID)
}

func (m *mockService) CompleteElapsed(context.Context, time.Time) (int, error) { return 0, nil }
func (m *mockService) ExpirePending(context.Context, time.Time) (int, error)  { return 0, nil }
func (m *mockService) WarmAvailability(context.Context) error                 { return nil }

func newRouter(svc *mockService) *httprouter.Router {
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	router := httprouter.New()
	NewReservationHandler(svc, validator.NewReservationValidator(), log).RegisterRoutes(router)
	return router
}

func sampleReservation() *model.Reservation {
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	return &model.Reservation{
		ID:              "res-1",
		VehicleID:       "veh-1",
		RequesterID:     "acc-1",
		Kind:            model.KindDaily,
		Window:          model.TimeWindow{Start: start, End: start.Add(24 * time.Hour)},
		TotalPriceCents: 100000,
		Status:          model.StatusPending,
	}
}

func TestCreateEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &mockService{
			createFn: func(_ context.Context, req *validator.CreateReservationRequest) (*model.Reservation, error) {
				if req.VehicleID != "veh-1" {
					t.Errorf("vehicle_id = %s, want veh-1", req.VehicleID)
				}
				return sampleReservation(), nil
			},
		}
		body := `{
			"vehicle_id": "veh-1",
			"requester_id": "acc-1",
			"kind": "daily",
			"start_time": "2025-06-02T09:00:00Z",
			"end_time": "2025-06-03T09:00:00Z"
		}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
		newRouter(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := &mockService{}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader("{"))
		newRouter(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("conflict maps to 409", func(t *testing.T) {
		svc := &mockService{
			createFn: func(context.Context, *validator.CreateReservationRequest) (*model.Reservation, error) {
				return nil, apperrors.Conflict("vehicle is already reserved for an overlapping window")
			},
		}
		body := `{"vehicle_id":"veh-1","requester_id":"acc-1","kind":"daily","start_time":"2025-06-02T09:00:00Z","end_time":"2025-06-03T09:00:00Z"}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
		newRouter(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
		var resp struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Code != apperrors.CodeConflict {
			t.Errorf("code = %s, want %s", resp.Code, apperrors.CodeConflict)
		}
	})
}

func TestTransitionEndpoints(t *testing.T) {
	t.Run("cancel", func(t *testing.T) {
		svc := &mockService{
			cancelFn: func(_ context.Context, id, actorID string) (*model.Reservation, error) {
				if id != "res-1" || actorID != "acc-1" {
					t.Errorf("cancel(%s, %s), want (res-1, acc-1)", id, actorID)
				}
				r := sampleReservation()
				r.Status = model.StatusCancelled
				return r, nil
			},
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/id/res-1/cancel",
			strings.NewReader(`{"actor_id":"acc-1"}`))
		newRouter(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("complete with force", func(t *testing.T) {
		forced := false
		svc := &mockService{
			completeFn: func(_ context.Context, _, _ string, force bool) (*model.Reservation, error) {
				forced = force
				r := sampleReservation()
				r.Status = model.StatusCompleted
				return r, nil
			},
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/id/res-1/complete",
			strings.NewReader(`{"actor_id":"op-1","force":true}`))
		newRouter(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !forced {
			t.Error("force flag not forwarded")
		}
	})

	t.Run("missing actor_id", func(t *testing.T) {
		svc := &mockService{}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/id/res-1/approve",
			strings.NewReader(`{}`))
		newRouter(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
	})

	t.Run("terminal state maps to 409", func(t *testing.T) {
		svc := &mockService{
			approveFn: func(context.Context, string, string) (*model.Reservation, error) {
				return nil, apperrors.TerminalState("cancelled")
			},
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/id/res-1/approve",
			strings.NewReader(`{"actor_id":"op-1"}`))
		newRouter(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
	})
}

func TestListEndpoints(t *testing.T) {
	t.Run("active requires requester_id", func(t *testing.T) {
		svc := &mockService{}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/active", nil)
		newRouter(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("history paginates", func(t *testing.T) {
		svc := &mockService{
			historyFn: func(_ context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, int64, error) {
				if requesterID != "acc-1" || limit != 5 || offset != 10 {
					t.Errorf("history(%s, %d, %d), want (acc-1, 5, 10)", requesterID, limit, offset)
				}
				return []*model.Reservation{sampleReservation()}, 11, nil
			},
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/history?requester_id=acc-1&limit=5&offset=10", nil)
		newRouter(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp struct {
			TotalCount int64 `json:"total_count"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.TotalCount != 11 {
			t.Errorf("total_count = %d, want 11", resp.TotalCount)
		}
	})

	t.Run("vehicle calendar", func(t *testing.T) {
		svc := &mockService{
			calendarFn: func(_ context.Context, vehicleID string) ([]*model.Reservation, error) {
				if vehicleID != "veh-1" {
					t.Errorf("vehicleID = %s, want veh-1", vehicleID)
				}
				return []*model.Reservation{sampleReservation()}, nil
			},
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/vehicle/veh-1", nil)
		newRouter(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})
}

func TestGetEndpoint(t *testing.T) {
	svc := &mockService{
		getFn: func(_ context.Context, id string) (*model.Reservation, error) {
			if id == "res-1" {
				return sampleReservation(), nil
			}
			return nil, apperrors.NotFoundWithID("reservation", id)
		},
	}
	router := newRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reservations/id/res-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reservations/id/res-9", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
