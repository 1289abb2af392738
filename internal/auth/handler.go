package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/villahermosa/clinic-platform/internal/api/respond"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

// Handler exposes the login endpoints.
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
	r.Post("/login", h.adminLogin)
	r.Post("/patient/login", h.patientLogin)
	return r
}

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	token, err := h.service.LoginAdmin(body.Username, body.Password)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"token": token}, "Login successful")
}

func (h *Handler) patientLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	token, patient, err := h.service.LoginPatient(r.Context(), body.Identifier, body.Password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			respond.Error(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error("patient login failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Login failed")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"token": token, "patient": patient}, "Login successful")
}
