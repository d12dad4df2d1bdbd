package repository

import (
	"context"
	"errors"
	"time"

	"github.com/soochol/hydrahunt/internal/resume"
)

// ErrNotFound is returned when an import does not exist.
var ErrNotFound = errors.New("import not found")

// ImportRepository stores and retrieves import records.
type ImportRepository interface {
	Create(ctx context.Context, rec *resume.ImportRecord) error
	Get(ctx context.Context, id string) (*resume.ImportRecord, error)
	// List returns records newest first.
	List(ctx context.Context) ([]*resume.ImportRecord, error)
	Delete(ctx context.Context, id string) error
	// DeleteOlderThan removes records created before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
