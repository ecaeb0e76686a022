package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/go-chi/chi/v5"
)

type ServiceUsecase interface {
	CreateService(ctx context.Context, actor entity.Identity, req *entity.CreateServiceRequest) (*entity.Service, error)
	GetService(ctx context.Context, id string) (*entity.Service, error)
	ListServices(ctx context.Context, includeDeleted bool) ([]entity.Service, error)
	UpdateService(ctx context.Context, actor entity.Identity, id string, req *entity.UpdateServiceRequest) (*entity.Service, error)
	DeleteService(ctx context.Context, actor entity.Identity, id string) error
}

type ServiceHandler struct {
	registry ServiceUsecase
}

func NewServiceHandler(registry ServiceUsecase) *ServiceHandler {
	return &ServiceHandler{registry: registry}
}

// ListServices - удаленные отделы только по include_deleted=true
func (h *ServiceHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	includeDeleted, _ := strconv.ParseBool(r.URL.Query().Get("include_deleted"))

	services, err := h.registry.ListServices(r.Context(), includeDeleted)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *ServiceHandler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.registry.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (h *ServiceHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req entity.CreateServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	svc, err := h.registry.CreateService(r.Context(), actor(r), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (h *ServiceHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var req entity.UpdateServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	svc, err := h.registry.UpdateService(r.Context(), actor(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (h *ServiceHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.DeleteService(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
