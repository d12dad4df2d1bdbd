package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/soochol/hydrahunt/internal/extract"
	"github.com/soochol/hydrahunt/internal/repository"
	"github.com/soochol/hydrahunt/internal/services"
	"github.com/soochol/hydrahunt/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// statusForKind maps extraction failures to HTTP status codes.
func statusForKind(k extract.Kind) int {
	switch k {
	case extract.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case extract.KindCapabilityLoadFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

// writeServiceError renders err from the import service. Unreadable
// documents get the single user-facing message plus the failure kind.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrUnreadable):
		kind := extract.KindOf(err)
		writeJSON(w, statusForKind(kind), errorResponse{Error: services.ErrUnreadable.Error(), Kind: kind.String()})
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case r.Context().Err() != nil:
		slog.Info("request cancelled", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request cancelled"})
	default:
		slog.Error("request failed", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
