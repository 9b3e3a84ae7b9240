package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical detail and request ID, then
// mapped through core.MapError so the client gets a coded message with an
// action instead of an internal error string.

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/mcasconvert/internal/core"
	"github.com/JonMunkholm/mcasconvert/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errBadRequest marks request-shape problems such as a missing upload.
var errBadRequest = errors.New("bad request")

// respondError logs err and writes the mapped user message as JSON.
// A zero status is derived from the error code.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	userMsg := core.MapError(err)
	if status == 0 {
		status = statusFor(userMsg.Code)
		if errors.Is(err, errBadRequest) {
			status = http.StatusBadRequest
		}
	}

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	// Request-shape errors carry their own explanation.
	if errors.Is(err, errBadRequest) {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps an error code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case "FILE001":
		return http.StatusRequestEntityTooLarge
	case "SUBJ001", "COL002":
		return http.StatusBadRequest
	case "COL001", "PERF001", "FILE002", "FILE003", "FILE004":
		return http.StatusUnprocessableEntity
	case "CTX001", "CTX002":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
