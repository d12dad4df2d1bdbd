package api

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/soochol/hydrahunt/internal/extract"
	"github.com/soochol/hydrahunt/internal/services"
)

// extractText returns the normalized text of the uploaded "file" without
// storing or parsing it.
func (s *Server) extractText(w http.ResponseWriter, r *http.Request) {
	files, ok := s.readUploads(w, r, "file")
	if !ok {
		return
	}
	data, mediaType, err := readPart(files[0])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "read file"})
		return
	}
	res, err := s.imports.Preview(r.Context(), files[0].Filename, mediaType, data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type batchItem struct {
	Filename string         `json:"filename"`
	Text     string         `json:"text,omitempty"`
	Format   extract.Format `json:"format,omitempty"`
	Pages    int            `json:"pages,omitempty"`
	Error    string         `json:"error,omitempty"`
	Kind     string         `json:"kind,omitempty"`
}

// extractBatch extracts every part of the "files" field concurrently.
// Results keep the order of the parts; a failed part does not fail the batch.
func (s *Server) extractBatch(w http.ResponseWriter, r *http.Request) {
	files, ok := s.readUploads(w, r, "files")
	if !ok {
		return
	}
	if len(files) > maxBatchFiles {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "too many files"})
		return
	}

	results := make([]batchItem, len(files))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.batchWorkers)
	for i, fh := range files {
		g.Go(func() error {
			item := batchItem{Filename: fh.Filename}
			data, mediaType, err := readPart(fh)
			if err != nil {
				item.Error = "read file"
				results[i] = item
				return nil
			}
			res, err := s.imports.Preview(ctx, fh.Filename, mediaType, data)
			if err != nil {
				item.Error = services.ErrUnreadable.Error()
				item.Kind = extract.KindOf(err).String()
			} else {
				item.Text, item.Format, item.Pages = res.Text, res.Format, res.Pages
			}
			results[i] = item
			return nil
		})
	}
	g.Wait()
	writeJSON(w, http.StatusOK, results)
}
