package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listImports(w http.ResponseWriter, r *http.Request) {
	recs, err := s.imports.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if recs == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) getImport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.imports.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteImport(w http.ResponseWriter, r *http.Request) {
	if err := s.imports.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
