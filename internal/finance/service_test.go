package finance

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villahermosa/clinic-platform/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(storage.NewMemStore(), nil)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Type: "donation", Amount: decimal.NewFromInt(100), Description: "x", Date: "2026-01-01"})
	assert.ErrorIs(t, err, ErrInvalidRecord, "type must be income or expense")

	_, err = svc.Create(ctx, CreateInput{Type: TypeIncome, Description: "x", Date: "2026-01-01"})
	assert.ErrorIs(t, err, ErrInvalidRecord, "amount required")

	rec, err := svc.Create(ctx, CreateInput{
		Type: TypeExpense, Amount: decimal.NewFromInt(2500),
		Description: "Dental supplies", Category: "supplies", Date: "2026-01-15",
	})
	require.NoError(t, err)
	assert.Equal(t, TypeExpense, rec.Type)
	assert.Empty(t, rec.PaymentID, "manual entries carry no payment link")
}

func TestListTotalsAndPagination(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i, in := range []CreateInput{
		{Type: TypeIncome, Amount: decimal.NewFromInt(1500), Description: "a", Date: "2026-01-01"},
		{Type: TypeIncome, Amount: decimal.NewFromInt(500), Description: "b", Date: "2026-01-02"},
		{Type: TypeExpense, Amount: decimal.NewFromInt(300), Description: "c", Date: "2026-01-03"},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err, "record %d", i)
	}

	result, err := svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.True(t, result.TotalIncome.Equal(decimal.NewFromInt(2000)))
	assert.True(t, result.TotalExpense.Equal(decimal.NewFromInt(300)))
	require.Len(t, result.Records, 3)
	assert.Equal(t, "2026-01-03", result.Records[0].Date, "newest first")

	page, err := svc.List(ctx, ListFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total, "totals cover the whole filtered set")
	require.Len(t, page.Records, 1)

	empty, err := svc.List(ctx, ListFilter{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, empty.Records)

	byType, err := svc.List(ctx, ListFilter{Type: TypeExpense})
	require.NoError(t, err)
	assert.Equal(t, 1, byType.Total)

	byRange, err := svc.List(ctx, ListFilter{StartDate: "2026-01-02", EndDate: "2026-01-02"})
	require.NoError(t, err)
	assert.Equal(t, 1, byRange.Total)
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, CreateInput{
		Type: TypeIncome, Amount: decimal.NewFromInt(1000), Description: "cleaning", Date: "2026-01-01",
	})
	require.NoError(t, err)

	amount := decimal.NewFromInt(1200)
	updated, err := svc.Update(ctx, rec.ID, UpdateInput{Amount: &amount})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(amount))

	bad := "donation"
	_, err = svc.Update(ctx, rec.ID, UpdateInput{Type: &bad})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	require.NoError(t, svc.Delete(ctx, rec.ID))
	_, err = svc.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, rec.ID), ErrNotFound)
}
