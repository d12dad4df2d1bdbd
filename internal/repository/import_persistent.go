package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/soochol/hydrahunt/internal/db"
	"github.com/soochol/hydrahunt/internal/resume"
)

// PersistentImportRepository wraps MemoryImportRepository with a database.
// Writes go to both stores (DB failure is logged but non-fatal).
// Reads try memory first, falling back to the database.
type PersistentImportRepository struct {
	mem *MemoryImportRepository
	db  *db.DB
}

func NewPersistentImportRepository(mem *MemoryImportRepository, database *db.DB) *PersistentImportRepository {
	return &PersistentImportRepository{mem: mem, db: database}
}

func (r *PersistentImportRepository) Create(ctx context.Context, rec *resume.ImportRecord) error {
	if err := r.mem.Create(ctx, rec); err != nil {
		return err
	}
	if err := r.db.CreateImport(ctx, rec); err != nil {
		slog.Warn("db create import failed, in-memory only", "id", rec.ID, "err", err)
	}
	return nil
}

func (r *PersistentImportRepository) Get(ctx context.Context, id string) (*resume.ImportRecord, error) {
	if rec, err := r.mem.Get(ctx, id); err == nil {
		return rec, nil
	}
	rec, err := r.db.GetImport(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	r.mem.put(ctx, rec)
	return rec, nil
}

func (r *PersistentImportRepository) List(ctx context.Context) ([]*resume.ImportRecord, error) {
	recs, err := r.db.ListImports(ctx)
	if err == nil {
		return recs, nil
	}
	slog.Warn("db list imports failed, falling back to in-memory", "err", err)
	return r.mem.List(ctx)
}

func (r *PersistentImportRepository) Delete(ctx context.Context, id string) error {
	memErr := r.mem.Delete(ctx, id)
	dbErr := r.db.DeleteImport(ctx, id)
	switch {
	case dbErr == nil:
		return nil
	case errors.Is(dbErr, db.ErrNotFound):
		return memErr
	}
	slog.Warn("db delete import failed", "id", id, "err", dbErr)
	return memErr
}

func (r *PersistentImportRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	memN, _ := r.mem.DeleteOlderThan(ctx, cutoff)
	n, err := r.db.DeleteImportsBefore(ctx, cutoff)
	if err != nil {
		slog.Warn("db purge imports failed, in-memory only", "err", err)
		return memN, nil
	}
	return int(n), nil
}
