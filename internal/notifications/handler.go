package notifications

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/villahermosa/clinic-platform/internal/api/respond"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

// Handler handles HTTP requests for notifications
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new notifications handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes mounts the notification endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/unread-count", h.UnreadCount)
	r.Put("/mark-all-read", h.MarkAllRead)
	r.Put("/{id}/read", h.MarkRead)
	r.Delete("/{id}", h.Delete)
	return r
}

// List handles GET /api/notifications?userId=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListForUser(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		h.logger.Error("failed to list notifications", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error fetching notifications")
		return
	}
	respond.JSON(w, http.StatusOK, records, "Notifications retrieved successfully")
}

type createNotificationRequest struct {
	UserID   string    `json:"userId"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Type     Type      `json:"type"`
	Metadata *Metadata `json:"metadata"`
}

// Create handles POST /api/notifications
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" || req.Title == "" || req.Message == "" {
		respond.Error(w, http.StatusBadRequest, "Missing required fields: userId, title, message")
		return
	}
	if req.Type == "" {
		req.Type = TypeSystem
	}
	n, err := h.service.Notify(r.Context(), req.UserID, req.Title, req.Message, req.Type, req.Metadata)
	if err != nil {
		h.logger.Error("failed to create notification", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error creating notification")
		return
	}
	respond.JSON(w, http.StatusCreated, n, "Notification created successfully")
}

// UnreadCount handles GET /api/notifications/unread-count?userId=
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.UnreadCount(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		h.logger.Error("failed to count notifications", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error counting notifications")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int{"count": count}, "Unread count retrieved")
}

// MarkRead handles PUT /api/notifications/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.MarkRead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Notification not found")
			return
		}
		h.logger.Error("failed to mark notification read", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error updating notification")
		return
	}
	respond.JSON(w, http.StatusOK, n, "Notification updated successfully")
}

// MarkAllRead handles PUT /api/notifications/mark-all-read?userId=
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respond.Error(w, http.StatusBadRequest, "userId is required")
		return
	}
	if err := h.service.MarkAllRead(r.Context(), userID); err != nil {
		h.logger.Error("failed to mark all notifications read", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error updating notifications")
		return
	}
	respond.JSON(w, http.StatusOK, nil, "All notifications marked as read")
}

// Delete handles DELETE /api/notifications/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Notification not found")
			return
		}
		h.logger.Error("failed to delete notification", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error deleting notification")
		return
	}
	respond.JSON(w, http.StatusOK, nil, "Notification deleted successfully")
}
