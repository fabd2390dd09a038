package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/peteski22/clubsync/internal/constantcontact"
	"github.com/peteski22/clubsync/internal/members"
)

const (
	// maxBodyBytes bounds request bodies; a full member export fits comfortably.
	maxBodyBytes = 10 << 20

	msgInvalidMembers   = "Missing or invalid members array"
	msgMethodNotAllowed = "Method not allowed"
)

// listMembersResponse is the list-members success body.
type listMembersResponse struct {
	Members []constantcontact.Contact `json:"members"`
	OK      bool                      `json:"ok"`
}

// syncMembersRequest keeps members raw so a non-array can be told apart from a bad record.
type syncMembersRequest struct {
	Members json.RawMessage `json:"members"`
}

// syncMembersResponse is the sync-members success body.
type syncMembersResponse struct {
	Added   int      `json:"added"`
	Errors  []string `json:"errors"`
	OK      bool     `json:"ok"`
	Updated int      `json:"updated"`
}

// tokenRequest is the token endpoint request body.
type tokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, r, s.logger, http.StatusMethodNotAllowed, errorResponse{Error: msgMethodNotAllowed})
		return
	}

	var req tokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.RefreshToken == "" {
		writeJSON(w, r, s.logger, http.StatusBadRequest, errorResponse{Error: "Missing refreshToken"})
		return
	}

	if s.exchanger == nil {
		s.logger.Error("token exchange requested without API key configured")
		writeJSON(w, r, s.logger, http.StatusInternalServerError, errorResponse{
			Details: "API_KEY is not set",
			Error:   "Server configuration error",
		})
		return
	}

	token, err := s.exchanger.Exchange(r.Context(), req.RefreshToken)
	if err != nil {
		status, details := tokenErrorStatus(err)
		s.logger.Error("token exchange failed",
			"error", err,
			"status", status,
			"request_id", middleware.GetReqID(r.Context()))
		writeJSON(w, r, s.logger, status, errorResponse{Details: details, Error: "Token refresh failed"})
		return
	}

	writeJSON(w, r, s.logger, http.StatusOK, token)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeStatus(w, r, s.logger, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	if s.configErr != nil {
		writeStatus(w, r, s.logger, http.StatusBadRequest, s.configErr.Error())
		return
	}

	contacts, err := s.lister.ListMembers(r.Context())
	if err != nil {
		s.logger.Error("failed to list members",
			"error", err,
			"request_id", middleware.GetReqID(r.Context()))
		writeStatus(w, r, s.logger, http.StatusInternalServerError, err.Error())
		return
	}
	if contacts == nil {
		contacts = []constantcontact.Contact{}
	}

	writeJSON(w, r, s.logger, http.StatusOK, listMembersResponse{Members: contacts, OK: true})
}

func (s *Server) handleSyncMembers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeStatus(w, r, s.logger, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	records, ok := decodeMembers(w, r)
	if !ok {
		writeStatus(w, r, s.logger, http.StatusBadRequest, msgInvalidMembers)
		return
	}

	if s.configErr != nil {
		writeStatus(w, r, s.logger, http.StatusBadRequest, s.configErr.Error())
		return
	}

	result, err := s.syncer.Run(r.Context(), records)
	if err != nil {
		s.logger.Error("member sync aborted",
			"error", err,
			"request_id", middleware.GetReqID(r.Context()))
		writeStatus(w, r, s.logger, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, r, s.logger, http.StatusOK, syncMembersResponse{
		Added:   result.Added,
		Errors:  result.Errors,
		OK:      true,
		Updated: result.Updated,
	})
}

// decodeMembers reads the members array. It reports false when the body is not
// JSON, has no members key, or members is not an array of member objects.
func decodeMembers(w http.ResponseWriter, r *http.Request) ([]members.Record, bool) {
	var req syncMembersRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return nil, false
	}

	raw := bytes.TrimSpace(req.Members)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}

	var records []members.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false
	}
	return records, true
}

// tokenErrorStatus maps an exchange failure to the status and details returned
// to the caller. Upstream rejections keep their status.
func tokenErrorStatus(err error) (int, string) {
	var refreshErr *constantcontact.TokenRefreshError
	if !errors.As(err, &refreshErr) {
		return http.StatusInternalServerError, err.Error()
	}
	if refreshErr.StatusCode == 0 {
		return http.StatusInternalServerError, refreshErr.Error()
	}
	return refreshErr.StatusCode, refreshErr.Body
}
