package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"fleetbook/internal/reservations/service"
	"fleetbook/internal/reservations/validator"
	apperrors "fleetbook/pkg/errors"
	pkghttp "fleetbook/pkg/http"
	"fleetbook/pkg/logger"
	"fleetbook/pkg/model"
)

type ReservationHandler struct {
	service   service.ReservationService
	validator *validator.ReservationValidator
	log       *logger.Logger
}

func NewReservationHandler(svc service.ReservationService, v *validator.ReservationValidator, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{service: svc, validator: v, log: log}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Create)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.POST("/api/v1/reservations/id/:id/approve", h.Approve)
	router.POST("/api/v1/reservations/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/reservations/id/:id/complete", h.Complete)
	router.GET("/api/v1/reservations/active", h.ListActive)
	router.GET("/api/v1/reservations/history", h.ListHistory)
	router.GET("/api/v1/reservations/vehicle/:id", h.VehicleCalendar)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req validator.CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperrors.InvalidInput("invalid request body"))
		return
	}

	reservation, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = pkghttp.WriteCreated(w, reservation)
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = pkghttp.WriteSuccess(w, reservation)
}

func (h *ReservationHandler) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, func(id string, req *validator.ActionRequest) (any, error) {
		return h.service.Approve(r.Context(), id, req.ActorID)
	})
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, func(id string, req *validator.ActionRequest) (any, error) {
		return h.service.Cancel(r.Context(), id, req.ActorID)
	})
}

func (h *ReservationHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, func(id string, req *validator.ActionRequest) (any, error) {
		return h.service.Complete(r.Context(), id, req.ActorID, req.Force)
	})
}

func (h *ReservationHandler) transition(w http.ResponseWriter, r *http.Request, ps httprouter.Params, apply func(id string, req *validator.ActionRequest) (any, error)) {
	var req validator.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperrors.InvalidInput("invalid request body"))
		return
	}
	if err := h.validator.ValidateAction(&req); err != nil {
		h.writeError(w, r, err)
		return
	}

	reservation, err := apply(ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = pkghttp.WriteSuccess(w, reservation)
}

func (h *ReservationHandler) ListActive(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.list(w, r, h.service.ListActive)
}

func (h *ReservationHandler) ListHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.list(w, r, h.service.ListHistory)
}

func (h *ReservationHandler) list(w http.ResponseWriter, r *http.Request, query func(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, int64, error)) {
	requesterID := r.URL.Query().Get("requester_id")
	if requesterID == "" {
		h.writeError(w, r, apperrors.InvalidInput("requester_id query parameter is required"))
		return
	}

	limit, offset, err := pkghttp.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	reservations, total, err := query(r.Context(), requesterID, limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = pkghttp.WritePaginated(w, reservations, total, limit, offset)
}

func (h *ReservationHandler) VehicleCalendar(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservations, err := h.service.VehicleCalendar(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = pkghttp.WriteSuccess(w, reservations)
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		h.log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", appErr.Code,
			"error", appErr.Error(),
		)
	}
	_ = pkghttp.WriteError(w, err)
}
