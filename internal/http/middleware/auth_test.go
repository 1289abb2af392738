package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/villahermosa/clinic-platform/internal/auth"
)

func newVerifier(t *testing.T) *auth.Service {
	t.Helper()
	return auth.NewService(auth.Config{
		Secret:        "test-secret",
		AdminUsername: "admin",
		AdminPassword: "password",
	})
}

func adminToken(t *testing.T, svc *auth.Service) string {
	t.Helper()
	token, err := svc.LoginAdmin("admin", "password")
	if err != nil {
		t.Fatalf("LoginAdmin: %v", err)
	}
	return token
}

func TestRequireRolePassesValidToken(t *testing.T) {
	svc := newVerifier(t)

	var gotRole string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatal("claims missing from request context")
		}
		gotRole = claims.Role
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, svc))
	rec := httptest.NewRecorder()

	RequireRole(svc, auth.RoleAdmin)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if gotRole != auth.RoleAdmin {
		t.Fatalf("expected role %q in context, got %q", auth.RoleAdmin, gotRole)
	}
}

func TestRequireRoleRejectsMissingOrBadToken(t *testing.T) {
	svc := newVerifier(t)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	})
	mw := RequireRole(svc, auth.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no header: expected %d, got %d", http.StatusUnauthorized, rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireRoleForbidsWrongRole(t *testing.T) {
	svc := newVerifier(t)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, svc))
	rec := httptest.NewRecorder()

	RequireRole(svc, auth.RolePatient)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}
