package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/villahermosa/clinic-platform/internal/observability/metrics"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

// FileStore persists each collection as <dir>/<collection>.json.
type FileStore struct {
	dir     string
	logger  *logging.Logger
	metrics *metrics.StoreMetrics

	mu sync.Mutex // guards the lock maps
	// ioMu protects the file of a single collection during Load/Save.
	ioMu map[string]*sync.Mutex
	// updateMu serializes whole read-modify-write cycles per collection.
	updateMu map[string]*sync.Mutex
}

// NewFileStore creates the data directory if needed and returns a store.
func NewFileStore(dir string, logger *logging.Logger, m *metrics.StoreMetrics) (*FileStore, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}
	logger.Info("document store ready", "dir", dir)
	return &FileStore{
		dir:      dir,
		logger:   logger,
		metrics:  m,
		ioMu:     make(map[string]*sync.Mutex),
		updateMu: make(map[string]*sync.Mutex),
	}, nil
}

func (s *FileStore) lockFor(table map[string]*sync.Mutex, collection string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := table[collection]
	if !ok {
		mu = &sync.Mutex{}
		table[collection] = mu
	}
	return mu
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// Load decodes the collection file into dest. A missing file yields an
// empty slice rather than an error, matching load-all semantics.
func (s *FileStore) Load(ctx context.Context, collection string, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mu := s.lockFor(s.ioMu, collection)
	mu.Lock()
	defer mu.Unlock()

	data, err := os.ReadFile(s.path(collection))
	if err != nil {
		if os.IsNotExist(err) {
			resetSlice(dest)
			return nil
		}
		return fmt.Errorf("storage: read %s: %w", collection, err)
	}
	if len(data) == 0 {
		resetSlice(dest)
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("storage: decode %s: %w", collection, err)
	}
	return nil
}

// Save overwrites the collection file. The write goes through a temp file
// and rename so a crash mid-write cannot leave a torn collection behind.
func (s *FileStore) Save(ctx context.Context, collection string, records any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mu := s.lockFor(s.ioMu, collection)
	mu.Lock()
	defer mu.Unlock()

	start := time.Now()
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", collection, err)
	}

	tmp, err := os.CreateTemp(s.dir, collection+".*.tmp")
	if err != nil {
		return fmt.Errorf("storage: temp file for %s: %w", collection, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storage: write %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: close %s: %w", collection, err)
	}
	if err := os.Rename(tmpName, s.path(collection)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: replace %s: %w", collection, err)
	}

	s.metrics.ObserveWrite(collection, time.Since(start).Seconds())
	return nil
}

// Update acquires the update lock of every named collection in sorted
// order, runs fn, then releases in reverse. Load/Save inside fn use the
// separate io locks, so the callback is free to read and write the
// collections it declared.
func (s *FileStore) Update(ctx context.Context, fn func(ctx context.Context) error, collections ...string) error {
	names := append([]string(nil), collections...)
	sort.Strings(names)
	names = dedupe(names)

	locks := make([]*sync.Mutex, 0, len(names))
	for _, name := range names {
		mu := s.lockFor(s.updateMu, name)
		mu.Lock()
		locks = append(locks, mu)
	}
	defer func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}()

	return fn(ctx)
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, name := range sorted {
		if i == 0 || name != sorted[i-1] {
			out = append(out, name)
		}
	}
	return out
}

// resetSlice sets *dest to an empty slice of its element type.
func resetSlice(dest any) {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Slice {
		return
	}
	v.Elem().Set(reflect.MakeSlice(v.Elem().Type(), 0, 0))
}
