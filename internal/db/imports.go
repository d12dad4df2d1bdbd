package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/soochol/hydrahunt/internal/resume"
)

// ErrNotFound is returned when no import has the requested ID.
var ErrNotFound = errors.New("import not found")

const importColumns = `id, filename, content_type, size, file_id, format, text_preview, parse_source, attempts, resume, created_at`

func (d *DB) CreateImport(ctx context.Context, rec *resume.ImportRecord) error {
	resumeJSON, err := json.Marshal(rec.Resume)
	if err != nil {
		return fmt.Errorf("encode resume: %w", err)
	}
	_, err = d.Pool.ExecContext(ctx, d.rebind(
		`INSERT INTO imports (`+importColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.ID, rec.Filename, rec.ContentType, rec.Size, rec.FileID, rec.Format,
		rec.TextPreview, string(rec.ParseSource), rec.Attempts, string(resumeJSON), rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert import: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanImport(s scanner) (*resume.ImportRecord, error) {
	rec := &resume.ImportRecord{}
	var source, resumeJSON string
	if err := s.Scan(&rec.ID, &rec.Filename, &rec.ContentType, &rec.Size, &rec.FileID, &rec.Format,
		&rec.TextPreview, &source, &rec.Attempts, &resumeJSON, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.ParseSource = resume.Source(source)
	if err := json.Unmarshal([]byte(resumeJSON), &rec.Resume); err != nil {
		return nil, fmt.Errorf("decode resume of %s: %w", rec.ID, err)
	}
	rec.Resume.Normalize()
	return rec, nil
}

func (d *DB) GetImport(ctx context.Context, id string) (*resume.ImportRecord, error) {
	row := d.Pool.QueryRowContext(ctx, d.rebind(`SELECT `+importColumns+` FROM imports WHERE id = ?`), id)
	rec, err := scanImport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get import: %w", err)
	}
	return rec, nil
}

// ListImports returns imports newest first.
func (d *DB) ListImports(ctx context.Context) ([]*resume.ImportRecord, error) {
	rows, err := d.Pool.QueryContext(ctx, `SELECT `+importColumns+` FROM imports ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var result []*resume.ImportRecord
	for rows.Next() {
		rec, err := scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return result, nil
}

func (d *DB) DeleteImport(ctx context.Context, id string) error {
	res, err := d.Pool.ExecContext(ctx, d.rebind(`DELETE FROM imports WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete import: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteImportsBefore removes imports created before cutoff.
func (d *DB) DeleteImportsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := d.Pool.ExecContext(ctx, d.rebind(`DELETE FROM imports WHERE created_at < ?`), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge imports: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge imports: %w", err)
	}
	return n, nil
}
