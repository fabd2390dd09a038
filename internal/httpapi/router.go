package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	// PathListMembers lists the contacts on the configured list.
	PathListMembers = "/api/constant-contact/list-members"

	// PathSyncMembers reconciles posted members with the configured list.
	PathSyncMembers = "/api/constant-contact/sync-members"

	// PathToken exchanges a refresh token for an access token.
	PathToken = "/api/constant-contact-token"
)

// NewRouter constructs the API HTTP router.
// Routes accept every method so the handlers can answer 405 with a JSON body.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.HandleFunc(PathToken, s.handleToken)
	r.HandleFunc(PathListMembers, s.handleListMembers)
	r.HandleFunc(PathSyncMembers, s.handleSyncMembers)

	return r
}
