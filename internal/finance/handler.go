package finance

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/villahermosa/clinic-platform/internal/api/respond"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

// Handler exposes the finance journal over HTTP.
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
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Type:      q.Get("type"),
		Category:  q.Get("category"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list finance records failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch finance records")
		return
	}
	meta := map[string]any{
		"total":        result.Total,
		"totalIncome":  result.TotalIncome,
		"totalExpense": result.TotalExpense,
	}
	if result.Limit > 0 {
		meta["page"] = result.Page
		meta["limit"] = result.Limit
	}
	respond.JSONWithMeta(w, http.StatusOK, result.Records, meta, "")
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch finance record")
		return
	}
	respond.JSON(w, http.StatusOK, rec, "")
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	rec, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create finance record")
		return
	}
	respond.JSON(w, http.StatusCreated, rec, "Finance record created successfully")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	rec, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, err, "Failed to update finance record")
		return
	}
	respond.JSON(w, http.StatusOK, rec, "Finance record updated successfully")
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err, "Failed to delete finance record")
		return
	}
	respond.JSON(w, http.StatusOK, nil, "Finance record deleted successfully")
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Finance record not found")
	case errors.Is(err, ErrInvalidRecord):
		respond.Error(w, http.StatusBadRequest, "Invalid finance record")
	default:
		h.logger.Error("finance operation failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, fallback)
	}
}
