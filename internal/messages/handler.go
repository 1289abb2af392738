package messages

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/villahermosa/clinic-platform/internal/api/respond"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

// Handler exposes the staff-to-patient message endpoint.
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
	r.Post("/", h.send)
	return r
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	var in SendInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	_, err := h.service.Send(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingMessage):
			respond.Error(w, http.StatusBadRequest, "Message content is required")
		case errors.Is(err, ErrEmailFailed):
			respond.Error(w, http.StatusInternalServerError, "Failed to send email. Please check server configuration.")
		default:
			h.logger.Error("send message failed", "error", err)
			respond.Error(w, http.StatusInternalServerError, "An error occurred while processing the message")
		}
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{
		"email": "Sent",
		"sms":   "Not configured",
	}, "Email sent successfully")
}
