package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	memstore "github.com/soochol/hydrahunt/internal/repository/memory"
	"github.com/soochol/hydrahunt/internal/resume"
)

// MemoryImportRepository is a thread-safe in-memory import store.
type MemoryImportRepository struct {
	store *memstore.Store[*resume.ImportRecord]
}

func NewMemoryImportRepository() *MemoryImportRepository {
	return NewImportCache(0)
}

// NewImportCache returns a repository keeping at most capacity records,
// dropping the oldest. It fronts PersistentImportRepository.
func NewImportCache(capacity int) *MemoryImportRepository {
	return &MemoryImportRepository{
		store: memstore.NewBounded(func(r *resume.ImportRecord) string { return r.ID }, capacity),
	}
}

func (r *MemoryImportRepository) Create(ctx context.Context, rec *resume.ImportRecord) error {
	if err := r.store.Insert(ctx, rec); err != nil {
		return fmt.Errorf("import %q: %w", rec.ID, err)
	}
	return nil
}

// put caches rec, replacing any existing entry.
func (r *MemoryImportRepository) put(ctx context.Context, rec *resume.ImportRecord) {
	r.store.Set(ctx, rec)
}

func (r *MemoryImportRepository) Get(ctx context.Context, id string) (*resume.ImportRecord, error) {
	rec, err := r.store.Get(ctx, id)
	if errors.Is(err, memstore.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return rec, err
}

func (r *MemoryImportRepository) List(ctx context.Context) ([]*resume.ImportRecord, error) {
	all := r.store.All(ctx)
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, nil
}

func (r *MemoryImportRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, id); errors.Is(err, memstore.ErrNotFound) {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *MemoryImportRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return r.store.DeleteFunc(ctx, func(rec *resume.ImportRecord) bool {
		return rec.CreatedAt.Before(cutoff)
	}), nil
}
