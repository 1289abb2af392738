package patients

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/villahermosa/clinic-platform/internal/api/respond"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

// Handler exposes patient records over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Post("/{id}/dependents", h.addDependent)
	r.Put("/{id}/password", h.changePassword)
	r.Post("/{id}/balance/recompute", h.recomputeBalance)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("list patients failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch patients")
		return
	}
	respond.JSON(w, http.StatusOK, records, "")
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	patient, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch patient")
		return
	}
	respond.JSON(w, http.StatusOK, patient, "")
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	patient, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create patient")
		return
	}
	respond.JSON(w, http.StatusCreated, patient, "Patient created successfully")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	patient, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, err, "Failed to update patient")
		return
	}
	respond.JSON(w, http.StatusOK, patient, "Patient updated successfully")
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err, "Failed to delete patient")
		return
	}
	respond.JSON(w, http.StatusOK, nil, "Patient deleted successfully")
}

func (h *Handler) addDependent(w http.ResponseWriter, r *http.Request) {
	var dep Dependent
	if err := json.NewDecoder(r.Body).Decode(&dep); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	patient, err := h.service.AddDependent(r.Context(), chi.URLParam(r, "id"), dep)
	if err != nil {
		h.writeServiceError(w, err, "Failed to add dependent")
		return
	}
	respond.JSON(w, http.StatusCreated, patient, "Dependent added successfully")
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	err := h.service.ChangePassword(r.Context(), chi.URLParam(r, "id"), body.CurrentPassword, body.NewPassword)
	if err != nil {
		h.writeServiceError(w, err, "Failed to change password")
		return
	}
	respond.JSON(w, http.StatusOK, nil, "Password updated successfully")
}

func (h *Handler) recomputeBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.service.RecomputeBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to recompute balance")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"balance": balance}, "Balance recomputed")
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Patient not found")
	case errors.Is(err, ErrMissingFields):
		respond.Error(w, http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, ErrBadPassword):
		respond.Error(w, http.StatusUnauthorized, "Current password is incorrect")
	default:
		h.logger.Error("patient operation failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, fallback)
	}
}
