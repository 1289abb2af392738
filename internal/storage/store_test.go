package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

type testRecord struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
}

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), logging.Default(), nil)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return store
}

func TestFileStore_LoadMissingCollection(t *testing.T) {
	store := newTestFileStore(t)

	var records []testRecord
	if err := store.Load(context.Background(), "appointments", &records); err != nil {
		t.Fatalf("load missing collection: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("expected empty slice, got %v", records)
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	in := []testRecord{
		{ID: "a", Amount: decimal.NewFromInt(1500)},
		{ID: "b", Amount: decimal.RequireFromString("749.50")},
	}
	if err := store.Save(ctx, "payments", in); err != nil {
		t.Fatalf("save: %v", err)
	}

	var out []testRecord
	if err := store.Load(ctx, "payments", &out); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if !out[0].Amount.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("amount mismatch: %s", out[0].Amount)
	}
	if !out[1].Amount.Equal(decimal.RequireFromString("749.50")) {
		t.Errorf("amount mismatch: %s", out[1].Amount)
	}
}

func TestFileStore_AmountsMarshalAsNumbers(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, logging.Default(), nil)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	in := []testRecord{{ID: "a", Amount: decimal.NewFromInt(500)}}
	if err := store.Save(context.Background(), "finance_records", in); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "finance_records.json"))
	if err != nil {
		t.Fatalf("read raw file: %v", err)
	}
	if strings.Contains(string(raw), `"amount": "`) {
		t.Errorf("amount serialized as string, want bare number: %s", raw)
	}
	if !strings.Contains(string(raw), `"amount": 500`) {
		t.Errorf("expected bare numeric amount in output: %s", raw)
	}
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "staff", []testRecord{{ID: "a"}, {ID: "b"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, "staff", []testRecord{{ID: "c"}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	var out []testRecord
	if err := store.Load(ctx, "staff", &out); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 1 || out[0].ID != "c" {
		t.Errorf("expected full overwrite, got %v", out)
	}
}

func TestUpdate_SerializesReadModifyWrite(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	if err := store.Save(ctx, "counters", []testRecord{{ID: "n", Amount: decimal.Zero}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Update(ctx, func(ctx context.Context) error {
				var records []testRecord
				if err := store.Load(ctx, "counters", &records); err != nil {
					return err
				}
				records[0].Amount = records[0].Amount.Add(decimal.NewFromInt(1))
				return store.Save(ctx, "counters", records)
			}, "counters")
			if err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	var out []testRecord
	if err := store.Load(ctx, "counters", &out); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !out[0].Amount.Equal(decimal.NewFromInt(workers)) {
		t.Errorf("lost update: expected %d, got %s", workers, out[0].Amount)
	}
}

func TestUpdate_OverlappingCollectionSets(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	// Two updates locking the same collections in different declared order
	// must not deadlock; locks are acquired in canonical order.
	done := make(chan struct{}, 2)
	go func() {
		store.Update(ctx, func(ctx context.Context) error { return nil }, "payments", "appointments")
		done <- struct{}{}
	}()
	go func() {
		store.Update(ctx, func(ctx context.Context) error { return nil }, "appointments", "payments")
		done <- struct{}{}
	}()
	<-done
	<-done
}

func TestMemStore_Isolation(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	in := []testRecord{{ID: "a", Amount: decimal.NewFromInt(10)}}
	if err := store.Save(ctx, "inventory", in); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the slice we saved must not affect the stored copy.
	in[0].ID = "mutated"

	var out []testRecord
	if err := store.Load(ctx, "inventory", &out); err != nil {
		t.Fatalf("load: %v", err)
	}
	if out[0].ID != "a" {
		t.Errorf("stored record aliased caller memory: %v", out)
	}
}
