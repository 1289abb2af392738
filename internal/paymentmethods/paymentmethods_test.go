package paymentmethods

import (
	"context"
	"errors"
	"testing"

	"github.com/villahermosa/clinic-platform/internal/storage"
)

func TestListSeedsDefaultsOnce(t *testing.T) {
	svc := NewService(storage.NewMemStore(), nil)
	ctx := context.Background()

	methods, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(methods) != len(Defaults) {
		t.Fatalf("got %d methods, want %d", len(methods), len(Defaults))
	}
	for i, m := range methods {
		if m.Name != Defaults[i] {
			t.Errorf("method %d = %q, want %q", i, m.Name, Defaults[i])
		}
		if !m.Enabled {
			t.Errorf("seeded method %q should be enabled", m.Name)
		}
	}

	again, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(again) != len(Defaults) {
		t.Fatalf("second List reseeded: got %d methods", len(again))
	}
}

func TestCreateRejectsDuplicates(t *testing.T) {
	svc := NewService(storage.NewMemStore(), nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "Maya"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "MAYA"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate name: got %v, want ErrDuplicate", err)
	}
	if _, err := svc.Create(ctx, "  "); !errors.Is(err, ErrMissingName) {
		t.Fatalf("blank name: got %v, want ErrMissingName", err)
	}
}

func TestSetEnabled(t *testing.T) {
	svc := NewService(storage.NewMemStore(), nil)
	ctx := context.Background()

	method, err := svc.Create(ctx, "cheque")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.SetEnabled(ctx, method.ID, false)
	if err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if updated.Enabled {
		t.Fatal("method should be disabled")
	}

	if _, err := svc.SetEnabled(ctx, "pm_missing", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id: got %v, want ErrNotFound", err)
	}
}
