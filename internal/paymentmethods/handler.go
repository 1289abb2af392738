package paymentmethods

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/villahermosa/clinic-platform/internal/api/respond"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

// Handler exposes the payment method list over HTTP.
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
	r.Put("/{id}/enabled", h.setEnabled)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	methods, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list payment methods failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch payment methods")
		return
	}
	respond.JSON(w, http.StatusOK, methods, "")
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	method, err := h.service.Create(r.Context(), body.Name)
	switch {
	case errors.Is(err, ErrMissingName):
		respond.Error(w, http.StatusBadRequest, "Payment method name is required")
	case errors.Is(err, ErrDuplicate):
		respond.Error(w, http.StatusConflict, "Payment method already exists")
	case err != nil:
		h.logger.Error("create payment method failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to create payment method")
	default:
		respond.JSON(w, http.StatusCreated, method, "Payment method created successfully")
	}
}

func (h *Handler) setEnabled(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	method, err := h.service.SetEnabled(r.Context(), chi.URLParam(r, "id"), body.Enabled)
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Payment method not found")
	case err != nil:
		h.logger.Error("toggle payment method failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to update payment method")
	default:
		respond.JSON(w, http.StatusOK, method, "Payment method updated")
	}
}
