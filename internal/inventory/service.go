package inventory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/villahermosa/clinic-platform/internal/storage"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

var (
	ErrNotFound      = errors.New("inventory: item not found")
	ErrMissingFields = errors.New("inventory: missing required fields")
	ErrBadQuantity   = errors.New("inventory: quantity cannot be negative")
)

// Service manages clinic supplies.
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

// CreateInput carries the fields of a new inventory item.
type CreateInput struct {
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Quantity     int             `json:"quantity"`
	Unit         string          `json:"unit"`
	CostPerUnit  decimal.Decimal `json:"costPerUnit"`
	ReorderLevel int             `json:"reorderLevel"`
	Supplier     string          `json:"supplier"`
	ExpiryDate   string          `json:"expiryDate"`
	Notes        string          `json:"notes"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Item, error) {
	if in.Name == "" {
		return nil, ErrMissingFields
	}
	if in.Quantity < 0 {
		return nil, ErrBadQuantity
	}

	now := time.Now().UTC()
	item := Item{
		ID:           "inv_" + uuid.NewString(),
		Name:         in.Name,
		Category:     in.Category,
		Quantity:     in.Quantity,
		Unit:         in.Unit,
		CostPerUnit:  in.CostPerUnit,
		ReorderLevel: in.ReorderLevel,
		Supplier:     in.Supplier,
		ExpiryDate:   in.ExpiryDate,
		Notes:        in.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	item.Recalc()

	err := s.store.Update(ctx, func(ctx context.Context) error {
		var items []Item
		if err := s.store.Load(ctx, Collection, &items); err != nil {
			return err
		}
		items = append(items, item)
		return s.store.Save(ctx, Collection, items)
	}, Collection)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns non-deleted items, optionally filtered by category, sorted
// by name.
func (s *Service) List(ctx context.Context, category string) ([]Item, error) {
	var items []Item
	if err := s.store.Load(ctx, Collection, &items); err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Deleted {
			continue
		}
		if category != "" && it.Category != category {
			continue
		}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// LowStock returns items at or below their reorder level.
func (s *Service) LowStock(ctx context.Context) ([]Item, error) {
	items, err := s.List(ctx, "")
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, it := range items {
		if it.NeedsReorder() {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	var items []Item
	if err := s.store.Load(ctx, Collection, &items); err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.ID == id && !it.Deleted {
			return &it, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateInput carries a partial item update.
type UpdateInput struct {
	Name         *string          `json:"name"`
	Category     *string          `json:"category"`
	Quantity     *int             `json:"quantity"`
	Unit         *string          `json:"unit"`
	CostPerUnit  *decimal.Decimal `json:"costPerUnit"`
	ReorderLevel *int             `json:"reorderLevel"`
	Supplier     *string          `json:"supplier"`
	ExpiryDate   *string          `json:"expiryDate"`
	Notes        *string          `json:"notes"`
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Item, error) {
	if in.Quantity != nil && *in.Quantity < 0 {
		return nil, ErrBadQuantity
	}
	var updated Item
	err := s.store.Update(ctx, func(ctx context.Context) error {
		var items []Item
		if err := s.store.Load(ctx, Collection, &items); err != nil {
			return err
		}
		for i := range items {
			if items[i].ID != id || items[i].Deleted {
				continue
			}
			applyItemUpdates(&items[i], in)
			items[i].Recalc()
			items[i].UpdatedAt = time.Now().UTC()
			updated = items[i]
			return s.store.Save(ctx, Collection, items)
		}
		return ErrNotFound
	}, Collection)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func applyItemUpdates(it *Item, in UpdateInput) {
	if in.Name != nil {
		it.Name = *in.Name
	}
	if in.Category != nil {
		it.Category = *in.Category
	}
	if in.Quantity != nil {
		it.Quantity = *in.Quantity
	}
	if in.Unit != nil {
		it.Unit = *in.Unit
	}
	if in.CostPerUnit != nil {
		it.CostPerUnit = *in.CostPerUnit
	}
	if in.ReorderLevel != nil {
		it.ReorderLevel = *in.ReorderLevel
	}
	if in.Supplier != nil {
		it.Supplier = *in.Supplier
	}
	if in.ExpiryDate != nil {
		it.ExpiryDate = *in.ExpiryDate
	}
	if in.Notes != nil {
		it.Notes = *in.Notes
	}
}

// AdjustQuantity applies a signed stock delta, clamping at zero.
func (s *Service) AdjustQuantity(ctx context.Context, id string, delta int) (*Item, error) {
	var updated Item
	err := s.store.Update(ctx, func(ctx context.Context) error {
		var items []Item
		if err := s.store.Load(ctx, Collection, &items); err != nil {
			return err
		}
		for i := range items {
			if items[i].ID != id || items[i].Deleted {
				continue
			}
			items[i].Quantity += delta
			if items[i].Quantity < 0 {
				items[i].Quantity = 0
			}
			items[i].Recalc()
			items[i].UpdatedAt = time.Now().UTC()
			updated = items[i]
			if updated.NeedsReorder() {
				s.logger.Warn("inventory item at reorder level", "id", updated.ID, "name", updated.Name, "quantity", updated.Quantity)
			}
			return s.store.Save(ctx, Collection, items)
		}
		return ErrNotFound
	}, Collection)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(ctx context.Context) error {
		var items []Item
		if err := s.store.Load(ctx, Collection, &items); err != nil {
			return err
		}
		for i := range items {
			if items[i].ID != id || items[i].Deleted {
				continue
			}
			now := time.Now().UTC()
			items[i].Deleted = true
			items[i].DeletedAt = &now
			items[i].UpdatedAt = now
			return s.store.Save(ctx, Collection, items)
		}
		return ErrNotFound
	}, Collection)
}
