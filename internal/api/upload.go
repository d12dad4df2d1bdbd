package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// readUploads parses a multipart body bounded by the server's upload limit
// and returns the parts sent under field.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request, field string) ([]*multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: fmt.Sprintf("file too large (max %dMB)", s.maxUploadSize>>20)})
		} else {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		}
		return nil, false
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("missing %s field", field)})
		return nil, false
	}
	return files, true
}

// readPart buffers one uploaded part and returns its bytes and media type.
func readPart(fh *multipart.FileHeader) ([]byte, string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, fh.Header.Get("Content-Type"), nil
}

// uploadResume imports one resume sent as the multipart field "file".
func (s *Server) uploadResume(w http.ResponseWriter, r *http.Request) {
	files, ok := s.readUploads(w, r, "file")
	if !ok {
		return
	}
	data, mediaType, err := readPart(files[0])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "read file"})
		return
	}

	rec, err := s.imports.Import(r.Context(), files[0].Filename, mediaType, data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.storage.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, rc, err := s.storage.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	// Uploads are untrusted: never let a browser render them on this origin.
	w.Header().Set("Content-Type", contentType)
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": info.Filename})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("serveFile: copy interrupted", "id", id, "err", err)
	}
}
