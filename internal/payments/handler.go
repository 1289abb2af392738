package payments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/villahermosa/clinic-platform/internal/api/respond"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

// Handler exposes the payment ledger over HTTP.
type Handler struct {
	ledger *Ledger
	logger *logging.Logger
}

func NewHandler(ledger *Ledger, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{ledger: ledger, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.record)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.void)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	payments, err := h.ledger.List(r.Context(), ListFilter{
		AppointmentID: q.Get("appointmentId"),
		PatientID:     q.Get("patientId"),
		Method:        q.Get("method"),
		StartDate:     q.Get("startDate"),
		EndDate:       q.Get("endDate"),
	})
	if err != nil {
		h.logger.Error("list payments failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch payments")
		return
	}
	respond.JSON(w, http.StatusOK, payments, "")
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	payment, err := h.ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch payment")
		return
	}
	respond.JSON(w, http.StatusOK, payment, "")
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var in RecordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	result, err := h.ledger.Record(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err, "Failed to record payment")
		return
	}
	if result.Duplicate {
		respond.JSON(w, http.StatusOK, result.Payment, "Payment already recorded")
		return
	}
	respond.JSON(w, http.StatusCreated, result.Payment, "Payment recorded successfully")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	payment, err := h.ledger.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, err, "Failed to update payment")
		return
	}
	respond.JSON(w, http.StatusOK, payment, "Payment updated successfully")
}

func (h *Handler) void(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Void(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err, "Failed to void payment")
		return
	}
	respond.JSON(w, http.StatusOK, nil, "Payment voided successfully")
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Payment not found")
	case errors.Is(err, ErrAppointmentNotFound):
		respond.Error(w, http.StatusNotFound, "Appointment not found")
	case errors.Is(err, ErrInvalidAmount):
		respond.Error(w, http.StatusBadRequest, "Payment amount must be a positive number")
	case errors.Is(err, ErrMissingFields):
		respond.Error(w, http.StatusBadRequest, "Missing required fields")
	default:
		h.logger.Error("payment operation failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, fallback)
	}
}
