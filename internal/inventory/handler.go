package inventory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/villahermosa/clinic-platform/internal/api/respond"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

// Handler exposes the supply inventory over HTTP.
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
	r.Get("/low-stock", h.lowStock)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Post("/{id}/adjust", h.adjust)
	r.Delete("/{id}", h.remove)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.logger.Error("list inventory failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch inventory")
		return
	}
	respond.JSON(w, http.StatusOK, items, "")
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LowStock(r.Context())
	if err != nil {
		h.logger.Error("low stock lookup failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch low stock items")
		return
	}
	respond.JSON(w, http.StatusOK, items, "")
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch item")
		return
	}
	respond.JSON(w, http.StatusOK, item, "")
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	item, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create item")
		return
	}
	respond.JSON(w, http.StatusCreated, item, "Inventory item created successfully")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	item, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, err, "Failed to update item")
		return
	}
	respond.JSON(w, http.StatusOK, item, "Inventory item updated successfully")
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	item, err := h.service.AdjustQuantity(r.Context(), chi.URLParam(r, "id"), body.Delta)
	if err != nil {
		h.writeServiceError(w, err, "Failed to adjust quantity")
		return
	}
	respond.JSON(w, http.StatusOK, item, "Quantity adjusted")
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err, "Failed to delete item")
		return
	}
	respond.JSON(w, http.StatusOK, nil, "Inventory item deleted successfully")
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Inventory item not found")
	case errors.Is(err, ErrMissingFields):
		respond.Error(w, http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, ErrBadQuantity):
		respond.Error(w, http.StatusBadRequest, "Quantity cannot be negative")
	default:
		h.logger.Error("inventory operation failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, fallback)
	}
}
