// Package paymentmethods stores the payment options the front desk can
// pick from when recording a payment.
package paymentmethods

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/villahermosa/clinic-platform/internal/storage"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

// Collection is the payment methods collection name.
const Collection = "paymentMethods"

var (
	ErrNotFound    = errors.New("paymentmethods: method not found")
	ErrDuplicate   = errors.New("paymentmethods: method already exists")
	ErrMissingName = errors.New("paymentmethods: name is required")
)

// Method is one configurable payment option.
type Method struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Defaults returned when the collection is empty.
var Defaults = []string{"cash", "card", "gcash", "bank transfer"}

// Service manages the configurable method list.
type Service struct {
	store  storage.Store
	logger *logging.Logger
}

func NewService(store storage.Store, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger}
}

// List returns the configured methods; an empty collection is seeded with
// the clinic defaults so the payment form never renders blank.
func (s *Service) List(ctx context.Context) ([]Method, error) {
	var methods []Method
	err := s.store.Update(ctx, func(ctx context.Context) error {
		if err := s.store.Load(ctx, Collection, &methods); err != nil {
			return err
		}
		if len(methods) > 0 {
			return nil
		}
		now := time.Now().UTC()
		for _, name := range Defaults {
			methods = append(methods, Method{
				ID:        "pm_" + uuid.NewString(),
				Name:      name,
				Enabled:   true,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		s.logger.Info("seeded default payment methods")
		return s.store.Save(ctx, Collection, methods)
	}, Collection)
	if err != nil {
		return nil, err
	}
	return methods, nil
}

// Create adds a method; names are unique case-insensitively.
func (s *Service) Create(ctx context.Context, name string) (*Method, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}
	now := time.Now().UTC()
	method := Method{
		ID:        "pm_" + uuid.NewString(),
		Name:      name,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.store.Update(ctx, func(ctx context.Context) error {
		var methods []Method
		if err := s.store.Load(ctx, Collection, &methods); err != nil {
			return err
		}
		for _, m := range methods {
			if strings.EqualFold(m.Name, name) {
				return ErrDuplicate
			}
		}
		methods = append(methods, method)
		return s.store.Save(ctx, Collection, methods)
	}, Collection)
	if err != nil {
		return nil, err
	}
	return &method, nil
}

// SetEnabled toggles a method without removing it, so historical payments
// keep a valid method name.
func (s *Service) SetEnabled(ctx context.Context, id string, enabled bool) (*Method, error) {
	var updated Method
	err := s.store.Update(ctx, func(ctx context.Context) error {
		var methods []Method
		if err := s.store.Load(ctx, Collection, &methods); err != nil {
			return err
		}
		for i := range methods {
			if methods[i].ID != id {
				continue
			}
			methods[i].Enabled = enabled
			methods[i].UpdatedAt = time.Now().UTC()
			updated = methods[i]
			return s.store.Save(ctx, Collection, methods)
		}
		return ErrNotFound
	}, Collection)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
