package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soochol/hydrahunt/internal/extract"
	"github.com/soochol/hydrahunt/internal/parse"
	"github.com/soochol/hydrahunt/internal/repository"
	"github.com/soochol/hydrahunt/internal/resume"
	"github.com/soochol/hydrahunt/internal/storage"
)

// ErrUnreadable is the single user-facing failure of an import. The
// underlying *extract.Error stays in the chain for logging and status mapping.
var ErrUnreadable = errors.New("file empty or unreadable, try again")

// ImportService turns uploaded documents into stored import records.
type ImportService struct {
	extractor *extract.Extractor
	parser    *parse.Parser
	files     storage.Storage
	repo      repository.ImportRepository
	limiter   *ParseLimiter
}

// NewImportService creates an ImportService. A nil limiter allows four
// concurrent parses.
func NewImportService(extractor *extract.Extractor, parser *parse.Parser, files storage.Storage, repo repository.ImportRepository, limiter *ParseLimiter) *ImportService {
	if limiter == nil {
		limiter = NewParseLimiter(0)
	}
	return &ImportService{
		extractor: extractor,
		parser:    parser,
		files:     files,
		repo:      repo,
		limiter:   limiter,
	}
}

// Preview extracts the text of a document without storing or parsing it.
func (s *ImportService) Preview(ctx context.Context, filename, mediaType string, data []byte) (extract.Result, error) {
	res, err := s.extractor.Extract(ctx, extract.Source{Filename: filename, MediaType: mediaType, Data: data})
	if err != nil {
		return extract.Result{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return res, nil
}

// Import extracts, stores and parses a document and records the outcome.
// Extraction failures return ErrUnreadable and store nothing.
func (s *ImportService) Import(ctx context.Context, filename, mediaType string, data []byte) (*resume.ImportRecord, error) {
	res, err := s.Preview(ctx, filename, mediaType, data)
	if err != nil {
		return nil, err
	}

	info, err := s.files.Save(ctx, filename, mediaType, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	parsed, err := s.parse(ctx, res.Text)
	if err != nil {
		s.discard(info.ID)
		return nil, err
	}

	rec := &resume.ImportRecord{
		ID:          uuid.NewString(),
		Filename:    info.Filename,
		ContentType: mediaType,
		Size:        int64(len(data)),
		FileID:      info.ID,
		Format:      string(res.Format),
		TextPreview: truncateRunes(res.Text, resume.PreviewLength),
		ParseSource: parsed.Source,
		Attempts:    parsed.Attempts,
		Resume:      parsed.Resume,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		s.discard(info.ID)
		return nil, fmt.Errorf("save import: %w", err)
	}

	slog.Info("import: stored",
		"id", rec.ID, "format", rec.Format, "parse_source", string(rec.ParseSource),
		"attempts", rec.Attempts, "chars", len([]rune(res.Text)))
	return rec, nil
}

// parse runs the parser inside a limiter slot. The slot is released even if
// the completer panics.
func (s *ImportService) parse(ctx context.Context, text string) (resume.ParseResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return resume.ParseResult{}, fmt.Errorf("wait for parser: %w", err)
	}
	defer s.limiter.Release()
	return s.parser.Parse(ctx, text), nil
}

func (s *ImportService) discard(fileID string) {
	if err := s.files.Delete(context.Background(), fileID); err != nil {
		slog.Warn("import: failed to discard upload", "file_id", fileID, "err", err)
	}
}

func (s *ImportService) Get(ctx context.Context, id string) (*resume.ImportRecord, error) {
	return s.repo.Get(ctx, id)
}

func (s *ImportService) List(ctx context.Context) ([]*resume.ImportRecord, error) {
	return s.repo.List(ctx)
}

// Delete removes an import record and its stored upload.
func (s *ImportService) Delete(ctx context.Context, id string) error {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if rec.FileID != "" {
		if err := s.files.Delete(ctx, rec.FileID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("import: failed to delete upload", "id", id, "file_id", rec.FileID, "err", err)
		}
	}
	return nil
}

// PurgeStats counts what a purge removed.
type PurgeStats struct {
	Imports int
	Files   int
}

// Purge removes import records and uploads created before cutoff.
func (s *ImportService) Purge(ctx context.Context, cutoff time.Time) (PurgeStats, error) {
	var stats PurgeStats
	var errs []error

	n, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		errs = append(errs, fmt.Errorf("purge imports: %w", err))
	}
	stats.Imports = n

	n, err = s.files.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		errs = append(errs, fmt.Errorf("purge uploads: %w", err))
	}
	stats.Files = n

	return stats, errors.Join(errs...)
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
