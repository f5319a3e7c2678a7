package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// maxQueryBytes bounds a POST /v1/resolve body.
const maxQueryBytes = 8 << 10

// ResolveRequest is the POST /v1/resolve body.
type ResolveRequest struct {
	Query string `json:"query"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

var errMissingQuery = errors.New("missing query: pass ?q= or a JSON body with \"query\"")

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	text, err := queryText(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	res := s.resolver.ResolveDetailed(r.Context(), text)
	writeJSON(w, http.StatusOK, res)
}

func queryText(w http.ResponseWriter, r *http.Request) (string, error) {
	if r.Method == http.MethodGet {
		text := r.URL.Query().Get("q")
		if strings.TrimSpace(text) == "" {
			return "", errMissingQuery
		}
		return text, nil
	}

	var req ResolveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return "", errMissingQuery
		}
		return "", err
	}
	if strings.TrimSpace(req.Query) == "" {
		return "", errMissingQuery
	}
	return req.Query, nil
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, status, ErrorResponse{
		Error:     err.Error(),
		RequestID: RequestIDFrom(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
