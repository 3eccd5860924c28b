package relay

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/monzo/terrors"

	"github.com/angeloszaimis/invoice-relay/internal/upstream"
)

// statusByCode maps the first segment of a terrors code to the status the
// caller sees. Anything unlisted is a 500.
var statusByCode = map[string]int{
	terrors.ErrBadRequest:          http.StatusBadRequest,          // 400
	upstream.ErrServiceUnavailable: http.StatusServiceUnavailable,  // 503
	terrors.ErrInternalService:     http.StatusInternalServerError, // 500
}

type errorResponse struct {
	Error string `json:"error"`
}

// StatusCode returns the HTTP status for err.
func StatusCode(err error) int {
	var terr *terrors.Error
	if !errors.As(err, &terr) {
		return http.StatusInternalServerError
	}

	if c, ok := statusByCode[strings.SplitN(terr.Code, ".", 2)[0]]; ok {
		return c
	}
	return http.StatusInternalServerError
}

// Message returns the message shown to the caller for err. Errors that are
// not terrors are reported as server errors with their text.
func Message(err error) string {
	var terr *terrors.Error
	if errors.As(err, &terr) && terr.Message != "" {
		return terr.Message
	}
	return "Server error: " + err.Error()
}

func writeError(w http.ResponseWriter, err error) int {
	status := StatusCode(err)
	WriteJSONError(w, status, Message(err))
	return status
}

// WriteJSONError writes {"error": message} with the given status.
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Del("Content-Length")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}
