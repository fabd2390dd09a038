package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// errorResponse is the token endpoint's error body.
type errorResponse struct {
	Details string `json:"details,omitempty"`
	Error   string `json:"error"`
}

// statusResponse is the body of the list and sync endpoints on failure.
type statusResponse struct {
	Message string `json:"message"`
	OK      bool   `json:"ok"`
}

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write JSON response",
			"error", err,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()))
	}
}

// writeStatus writes an {ok:false, message} body.
func writeStatus(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, message string) {
	writeJSON(w, r, logger, status, statusResponse{Message: message})
}
