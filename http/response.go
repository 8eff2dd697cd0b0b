package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/sagarc03/fragments"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// ErrorBody is the error member of an error response.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the error envelope:
// {"status":"error","error":{"code":404,"message":"..."}}.
type ErrorResponse struct {
	Status string    `json:"status"`
	Error  ErrorBody `json:"error"`
}

// OKResponse is the success envelope without a payload.
type OKResponse struct {
	Status string `json:"status"`
}

// FragmentResponse carries one fragment's metadata.
type FragmentResponse struct {
	Status   string           `json:"status"`
	Fragment fragments.Record `json:"fragment"`
}

// ListResponse carries an owner's fragment listing.
type ListResponse struct {
	Status    string            `json:"status"`
	Fragments fragments.Listing `json:"fragments"`
}

// HealthResponse is returned by the unauthenticated health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	render.Status(r, code)
	render.JSON(w, r, v)
}

// WriteError writes a JSON error envelope.
func WriteError(w http.ResponseWriter, r *http.Request, code int, message string) {
	WriteJSON(w, r, code, ErrorResponse{
		Status: statusError,
		Error:  ErrorBody{Code: code, Message: message},
	})
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusCode(err)
	if code >= http.StatusInternalServerError {
		slog.Error("request error", "method", r.Method, "path", r.URL.Path, "err", err)
		WriteError(w, r, code, "internal server error")
		return
	}

	slog.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", code, "err", err)
	WriteError(w, r, code, err.Error())
}

// StatusCode maps service errors to HTTP status codes.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, fragments.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fragments.ErrUnsupportedConversion), errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, fragments.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, fragments.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
