package finance

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

// ErrNotFound is returned for an unknown finance record id.
var ErrNotFound = errors.New("finance: record not found")

// ErrInvalidRecord is returned when required fields are missing or the
// type is not income/expense.
var ErrInvalidRecord = errors.New("finance: invalid record")

// Service manages the income/expense journal.
type Service struct {
	store  storage.Store
	logger *logging.Logger
}

// NewService constructs a finance service.
func NewService(store storage.Store, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger}
}

// CreateInput carries the fields of a manual journal entry.
type CreateInput struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
}

// Create adds a manual income or expense entry.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Record, error) {
	if in.Type != TypeIncome && in.Type != TypeExpense {
		return nil, ErrInvalidRecord
	}
	if in.Amount.IsZero() || in.Description == "" || in.Date == "" {
		return nil, ErrInvalidRecord
	}

	now := time.Now().UTC()
	rec := Record{
		ID:          "finance_" + uuid.NewString(),
		Type:        in.Type,
		Amount:      in.Amount,
		Description: in.Description,
		Category:    in.Category,
		Date:        in.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.Update(ctx, func(ctx context.Context) error {
		var records []Record
		if err := s.store.Load(ctx, Collection, &records); err != nil {
			return err
		}
		records = append(records, rec)
		return s.store.Save(ctx, Collection, records)
	}, Collection)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListFilter narrows the journal listing. Page is 1-based; a zero Limit
// returns everything.
type ListFilter struct {
	Type      string
	Category  string
	StartDate string
	EndDate   string
	Page      int
	Limit     int
}

// ListResult is one page of journal entries with totals over the whole
// filtered set, not just the page.
type ListResult struct {
	Records      []Record
	Total        int
	Page         int
	Limit        int
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
}

// List returns non-deleted journal entries, newest date first.
func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	var records []Record
	if err := s.store.Load(ctx, Collection, &records); err != nil {
		return nil, err
	}

	matched := make([]Record, 0, len(records))
	income, expense := decimal.Zero, decimal.Zero
	for _, rec := range records {
		if rec.Deleted {
			continue
		}
		if filter.Type != "" && rec.Type != filter.Type {
			continue
		}
		if filter.Category != "" && rec.Category != filter.Category {
			continue
		}
		if filter.StartDate != "" && rec.Date < filter.StartDate {
			continue
		}
		if filter.EndDate != "" && rec.Date > filter.EndDate {
			continue
		}
		matched = append(matched, rec)
		// Ledger-emitted payment rows count toward income.
		if rec.Type == TypeExpense {
			expense = expense.Add(rec.Amount)
		} else {
			income = income.Add(rec.Amount)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Date != matched[j].Date {
			return matched[i].Date > matched[j].Date
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	result := &ListResult{
		Records:      matched,
		Total:        len(matched),
		Page:         filter.Page,
		Limit:        filter.Limit,
		TotalIncome:  income,
		TotalExpense: expense,
	}
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.Limit
		if start >= len(matched) {
			result.Records = []Record{}
		} else {
			end := start + filter.Limit
			if end > len(matched) {
				end = len(matched)
			}
			result.Records = matched[start:end]
		}
		result.Page = page
	}
	return result, nil
}

// Get returns a journal entry by id.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	var records []Record
	if err := s.store.Load(ctx, Collection, &records); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.ID == id && !rec.Deleted {
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateInput carries a partial journal entry update.
type UpdateInput struct {
	Type        *string          `json:"type"`
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Date        *string          `json:"date"`
}

// Update edits a manual journal entry.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Record, error) {
	if in.Type != nil && *in.Type != TypeIncome && *in.Type != TypeExpense {
		return nil, ErrInvalidRecord
	}
	var updated Record
	err := s.store.Update(ctx, func(ctx context.Context) error {
		var records []Record
		if err := s.store.Load(ctx, Collection, &records); err != nil {
			return err
		}
		for i := range records {
			if records[i].ID != id || records[i].Deleted {
				continue
			}
			if in.Type != nil {
				records[i].Type = *in.Type
			}
			if in.Amount != nil {
				records[i].Amount = *in.Amount
			}
			if in.Description != nil {
				records[i].Description = *in.Description
			}
			if in.Category != nil {
				records[i].Category = *in.Category
			}
			if in.Date != nil {
				records[i].Date = *in.Date
			}
			records[i].UpdatedAt = time.Now().UTC()
			updated = records[i]
			return s.store.Save(ctx, Collection, records)
		}
		return ErrNotFound
	}, Collection)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete soft-deletes a journal entry.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(ctx context.Context) error {
		var records []Record
		if err := s.store.Load(ctx, Collection, &records); err != nil {
			return err
		}
		for i := range records {
			if records[i].ID != id || records[i].Deleted {
				continue
			}
			now := time.Now().UTC()
			records[i].Deleted = true
			records[i].DeletedAt = &now
			records[i].UpdatedAt = now
			return s.store.Save(ctx, Collection, records)
		}
		return ErrNotFound
	}, Collection)
}
