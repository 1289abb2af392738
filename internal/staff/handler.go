package staff

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/villahermosa/clinic-platform/internal/api/respond"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

// Handler handles HTTP requests for staff management
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new staff handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes mounts the staff endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/attendance", h.GetAttendance)
	r.Post("/attendance", h.MarkAttendance)
	r.Post("/financial-records", h.CreateFinancialRecord)
	r.Get("/financial-records", h.ListFinancialRecords)
	r.Put("/financial-records/{id}/approve", h.ApproveFinancialRecord)
	r.Delete("/financial-records/{id}", h.DeleteFinancialRecord)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

type createRequest struct {
	Member
	Password string `json:"password"`
}

// Create handles POST /api/staff
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	member, err := h.service.Create(r.Context(), req.Member, req.Password)
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create staff member", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error creating staff member")
		return
	}
	member.Password = ""
	respond.JSON(w, http.StatusCreated, member, "Staff member created successfully")
}

// List handles GET /api/staff
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list staff", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error fetching staff")
		return
	}
	respond.JSON(w, http.StatusOK, members, "Staff retrieved successfully")
}

// Get handles GET /api/staff/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	member, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Staff member not found")
			return
		}
		h.logger.Error("failed to get staff member", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error fetching staff member")
		return
	}
	respond.JSON(w, http.StatusOK, member, "Staff member retrieved successfully")
}

// Update handles PUT /api/staff/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	member, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Staff member not found")
			return
		}
		h.logger.Error("failed to update staff member", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error updating staff member")
		return
	}
	respond.JSON(w, http.StatusOK, member, "Staff member updated successfully")
}

// Delete handles DELETE /api/staff/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Staff member not found")
			return
		}
		h.logger.Error("failed to delete staff member", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error deleting staff member")
		return
	}
	respond.JSON(w, http.StatusOK, nil, "Staff member deleted successfully")
}

type financialRecordRequest struct {
	StaffID           string          `json:"staffId"`
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Date              string          `json:"date"`
	Notes             string          `json:"notes"`
	RepaymentSchedule string          `json:"repaymentSchedule"`
}

// CreateFinancialRecord handles POST /api/staff/financial-records
func (h *Handler) CreateFinancialRecord(w http.ResponseWriter, r *http.Request) {
	var req financialRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	rec, err := h.service.CreateFinancialRecord(r.Context(), FinancialRecord{
		StaffID:           req.StaffID,
		Type:              req.Type,
		Amount:            req.Amount,
		Date:              req.Date,
		Notes:             req.Notes,
		RepaymentSchedule: req.RepaymentSchedule,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Staff member not found")
			return
		}
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	respond.JSON(w, http.StatusCreated, rec, "Financial record created successfully")
}

// ListFinancialRecords handles GET /api/staff/financial-records
func (h *Handler) ListFinancialRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.FinancialRecords(r.Context(), r.URL.Query().Get("staffId"))
	if err != nil {
		h.logger.Error("failed to list financial records", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error fetching financial records")
		return
	}
	respond.JSON(w, http.StatusOK, records, "Financial records retrieved successfully")
}

// ApproveFinancialRecord handles PUT /api/staff/financial-records/{id}/approve
func (h *Handler) ApproveFinancialRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.ApproveFinancialRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Financial record not found")
			return
		}
		h.logger.Error("failed to approve financial record", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error approving financial record")
		return
	}
	respond.JSON(w, http.StatusOK, rec, "Financial record approved")
}

// DeleteFinancialRecord handles DELETE /api/staff/financial-records/{id}
func (h *Handler) DeleteFinancialRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteFinancialRecord(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Financial record not found")
			return
		}
		h.logger.Error("failed to delete financial record", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error deleting financial record")
		return
	}
	respond.JSON(w, http.StatusOK, nil, "Financial record deleted successfully")
}

// GetAttendance handles GET /api/staff/attendance
func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Attendance(r.Context())
	if err != nil {
		h.logger.Error("failed to get attendance", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error fetching attendance")
		return
	}
	respond.JSON(w, http.StatusOK, records, "Attendance retrieved successfully")
}

// MarkAttendance handles POST /api/staff/attendance
func (h *Handler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	var rec Attendance
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	saved, err := h.service.MarkAttendance(r.Context(), rec)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	respond.JSON(w, http.StatusOK, saved, "Attendance recorded")
}
