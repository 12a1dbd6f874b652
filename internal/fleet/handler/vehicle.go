package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"fleetbook/internal/fleet/repository"
	"fleetbook/internal/fleet/service"
	apperrors "fleetbook/pkg/errors"
	pkghttp "fleetbook/pkg/http"
	"fleetbook/pkg/logger"
	"fleetbook/pkg/model"
)

type VehicleHandler struct {
	service service.VehicleService
	log     *logger.Logger
}

func NewVehicleHandler(svc service.VehicleService, log *logger.Logger) *VehicleHandler {
	return &VehicleHandler{service: svc, log: log}
}

func (h *VehicleHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/vehicles", h.Register)
	router.GET("/api/v1/vehicles", h.List)
	router.GET("/api/v1/vehicles/id/:id", h.GetByID)
	router.GET("/api/v1/vehicles/slug/:slug", h.GetBySlug)
}

func (h *VehicleHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var vehicle model.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&vehicle); err != nil {
		_ = pkghttp.WriteError(w, apperrors.InvalidInput("invalid request body"))
		return
	}

	created, err := h.service.Register(r.Context(), &vehicle)
	if err != nil {
		_ = pkghttp.WriteError(w, err)
		return
	}
	_ = pkghttp.WriteCreated(w, created)
}

func (h *VehicleHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	vehicle, err := h.service.GetVehicle(r.Context(), ps.ByName("id"))
	if err != nil {
		_ = pkghttp.WriteError(w, err)
		return
	}
	_ = pkghttp.WriteSuccess(w, vehicle)
}

func (h *VehicleHandler) GetBySlug(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	vehicle, err := h.service.GetBySlug(r.Context(), ps.ByName("slug"))
	if err != nil {
		_ = pkghttp.WriteError(w, err)
		return
	}
	_ = pkghttp.WriteSuccess(w, vehicle)
}

func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := pkghttp.ExtractLimitOffset(r)
	if err != nil {
		_ = pkghttp.WriteError(w, err)
		return
	}

	query := r.URL.Query()
	filter := repository.VehicleFilter{
		Status:       model.VehicleStatus(query.Get("status")),
		Brand:        query.Get("brand"),
		Transmission: query.Get("transmission"),
	}

	vehicles, total, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		_ = pkghttp.WriteError(w, err)
		return
	}
	_ = pkghttp.WritePaginated(w, vehicles, total, limit, offset)
}
