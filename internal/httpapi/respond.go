package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/memento/internal/engine"
)

// maxBodyBytes bounds request bodies. It leaves room for a maximal UI log
// message.
const maxBodyBytes = 8 << 20

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// StatusFor maps an engine outcome to an HTTP status.
func StatusFor(kind engine.Kind) int {
	switch kind {
	case engine.KindBlocked:
		return http.StatusForbidden
	case engine.KindUnauthenticated:
		return http.StatusUnauthorized
	case engine.KindOutOfVideos, engine.KindInvalidResults:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError answers with the business outcome carried by err, or logs err
// and answers an opaque 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var be *engine.Error
	if errors.As(err, &be) {
		s.logger(r).Debug("request refused", "kind", be.Kind, "message", be.Message)
		writeJSON(w, StatusFor(be.Kind), errorBody{Error: be.Message, Kind: string(be.Kind)})
		return
	}

	s.logger(r).Error("internal error", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

// decode reads a JSON body into v, answering 400 on failure. A non-empty
// kind is reported in the error body.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any, kind engine.Kind) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		s.logger(r).Debug("undecodable body", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body", Kind: string(kind)})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
