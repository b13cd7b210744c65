package server

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dayview/pkg/errors"
)

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeBytes(w http.ResponseWriter, status int, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError responds with the status mapped from err's code. Errors without
// a code are reported as internal and their detail is only logged.
func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	status := errors.HTTPStatus(err)
	resp := errorResponse{Code: errors.GetCode(err), Message: errors.UserMessage(err)}
	if resp.Code == "" {
		resp.Code = errors.ErrCodeInternal
		resp.Message = "internal error"
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, resp)
}

func notFoundError(path string) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s", path)
}
