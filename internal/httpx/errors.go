package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/acme/order-saga/internal/apperr"
)

type ErrorResponse struct {
	Timestamp        time.Time         `json:"timestamp"`
	Status           int               `json:"status"`
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	Path             string            `json:"path"`
	TraceID          string            `json:"trace_id,omitempty"`
	ValidationErrors map[string]string `json:"validation_errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the apperr taxonomy onto HTTP status codes and the
// structured error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var code int
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, apperr.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, apperr.ErrInsufficientStock), errors.Is(err, apperr.ErrConflict):
		code = http.StatusConflict
	default:
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    code,
		Error:     http.StatusText(code),
		Message:   err.Error(),
		Path:      r.URL.Path,
		TraceID:   middleware.GetReqID(r.Context()),
	})
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    http.StatusBadRequest,
		Error:     http.StatusText(http.StatusBadRequest),
		Message:   msg,
		Path:      r.URL.Path,
		TraceID:   middleware.GetReqID(r.Context()),
	})
}
