package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/villahermosa/clinic-platform/internal/api/respond"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

// Handler exposes the appointment lifecycle over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler constructs an appointments handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns the admin-facing appointment routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	return r
}

// PublicRoutes returns the unauthenticated booking and availability routes.
func (h *Handler) PublicRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/book", h.bookPublic)
	r.Get("/availability", h.availability)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list appointments failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch appointments")
		return
	}
	respond.JSON(w, http.StatusOK, records, "")
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.Anonymize = true
	filter.PatientID = ""
	filter.Search = ""
	records, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("availability lookup failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch availability")
		return
	}
	respond.JSON(w, http.StatusOK, records, "")
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	apt, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch appointment")
		return
	}
	respond.JSON(w, http.StatusOK, apt, "")
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	apt, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create appointment")
		return
	}
	respond.JSON(w, http.StatusCreated, apt, "Appointment created successfully")
}

func (h *Handler) bookPublic(w http.ResponseWriter, r *http.Request) {
	var in PublicBookingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	apt, err := h.service.BookPublic(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err, "Failed to book appointment")
		return
	}
	respond.JSON(w, http.StatusCreated, apt, "Appointment request received")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	apt, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, err, "Failed to update appointment")
		return
	}
	respond.JSON(w, http.StatusOK, apt, "Appointment updated successfully")
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SoftDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err, "Failed to delete appointment")
		return
	}
	respond.JSON(w, http.StatusOK, nil, "Appointment deleted successfully")
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Appointment not found")
	case errors.Is(err, ErrConflict):
		respond.Error(w, http.StatusConflict, "This time slot conflicts with an existing appointment")
	case errors.Is(err, ErrMissingFields):
		respond.Error(w, http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, ErrCustomTypeRequired):
		respond.Error(w, http.StatusBadRequest, "Custom appointment type requires a description")
	case errors.Is(err, ErrInvalidStatus):
		respond.Error(w, http.StatusBadRequest, "Invalid appointment status")
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(w, http.StatusUnprocessableEntity, "Status change not allowed from the current state")
	default:
		h.logger.Error("appointment operation failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, fallback)
	}
}

func filterFromQuery(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	filter := ListFilter{
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		Date:      q.Get("date"),
		Doctor:    q.Get("doctor"),
		PatientID: q.Get("patientId"),
		Search:    q.Get("search"),
	}
	if v := q.Get("status"); v != "" {
		filter.Status = Status(v)
	}
	if v := q.Get("type"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ListFilter{}, errors.New("type must be a number")
		}
		filter.Type = &n
	}
	if v := q.Get("includeUnpaid"); v == "true" {
		filter.IncludeUnpaid = true
	}
	return filter, nil
}
