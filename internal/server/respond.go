package server

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/voyagen/mythvault/internal/store"
)

// APIError is the standard error envelope for all error responses.
type APIError struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("writeJSON")
	}
}

func (s *Server) writeErr(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.log.Error().Err(err).Int("status", status).Msg("request failed")
	}
	s.writeJSON(w, status, APIError{
		Status: status,
		Error:  http.StatusText(status),
		Detail: err.Error(),
	})
}

// writeStoreErr maps a store failure to 503 when the database is
// unreachable and 500 otherwise.
func (s *Server) writeStoreErr(w http.ResponseWriter, err error) {
	if store.IsConnectionError(err) {
		s.writeErr(w, http.StatusServiceUnavailable, err)
		return
	}
	s.writeErr(w, http.StatusInternalServerError, err)
}

// writeList writes items as a JSON array, never null.
func writeList[T any](s *Server, w http.ResponseWriter, items []T, err error) {
	if err != nil {
		s.writeStoreErr(w, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	s.writeJSON(w, http.StatusOK, items)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNoMasterBackend)
}
