package storage

import (
	"context"

	"github.com/shopspring/decimal"
)

func init() {
	// Monetary fields marshal as JSON numbers to match the legacy data files.
	decimal.MarshalJSONWithoutQuotes = true
}

// Store is the document store contract the domain packages consume.
// Each collection is an ordered JSON array persisted as a whole; there are
// no partial writes and no indexes.
type Store interface {
	// Load decodes the named collection into dest, which must be a pointer
	// to a slice. An absent collection decodes as an empty slice.
	Load(ctx context.Context, collection string, dest any) error

	// Save overwrites the named collection with records.
	Save(ctx context.Context, collection string, records any) error

	// Update serializes a read-modify-write cycle over the named
	// collections. Locks are acquired in a canonical order so two updates
	// touching overlapping collection sets cannot deadlock or interleave.
	Update(ctx context.Context, fn func(ctx context.Context) error, collections ...string) error
}
