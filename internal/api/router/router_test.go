package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/villahermosa/clinic-platform/internal/appointments"
	"github.com/villahermosa/clinic-platform/internal/auth"
	"github.com/villahermosa/clinic-platform/internal/patients"
	"github.com/villahermosa/clinic-platform/internal/storage"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Default()
	store := storage.NewMemStore()
	patientSvc := patients.NewService(store, logger)
	appointmentSvc := appointments.NewService(appointments.Config{
		Store:    store,
		Patients: patientSvc,
		Logger:   logger,
	})
	authSvc := auth.NewService(auth.Config{
		Secret:        "router-test-secret",
		AdminUsername: "admin",
		AdminPassword: "password",
		Patients:      patientSvc,
	})

	return New(&Config{
		Logger:              logger,
		AuthService:         authSvc,
		AuthHandler:         auth.NewHandler(authSvc, logger),
		AppointmentsHandler: appointments.NewHandler(appointmentSvc, logger),
		PatientsHandler:     patients.NewHandler(patientSvc, logger),
	})
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterRejectsStaffRoutesWithoutToken(t *testing.T) {
	router := newTestRouter(t)

	for _, route := range []string{
		"/api/appointments",
		"/api/patients",
	} {
		req := httptest.NewRequest(http.MethodGet, route, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected status %d, got %d", route, http.StatusUnauthorized, rr.Code)
		}
	}
}

func TestRouterStaffRoutesWithAdminToken(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "password"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var loginResp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&loginResp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if loginResp.Data.Token == "" {
		t.Fatal("expected a token in the login response")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Data.Token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("list appointments: expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestRouterPublicBooking(t *testing.T) {
	router := newTestRouter(t)

	serviceType := 0
	payload := map[string]any{
		"firstName": "Ana",
		"lastName":  "Reyes",
		"phone":     "09170001111",
		"date":      "2026-10-05",
		"time":      "10:00",
		"type":      serviceType,
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/api/public/appointments/book", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}

	var resp struct {
		Data appointments.Appointment `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode booking response: %v", err)
	}
	if resp.Data.Status != appointments.StatusPending {
		t.Errorf("public bookings start pending, got %q", resp.Data.Status)
	}
	if resp.Data.PatientName != "Ana Reyes" {
		t.Errorf("expected patient name on the slot, got %q", resp.Data.PatientName)
	}
}
