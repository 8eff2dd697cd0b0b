package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sagarc03/fragments/keybackend"
)

// UserVerifier checks Basic auth credentials.
type UserVerifier interface {
	Verify(username, password string) error
}

type ownerKey struct{}

// WithOwner returns a new context carrying the authenticated owner id.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFromContext returns the owner id set by AuthMiddleware.
func OwnerFromContext(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(ownerKey{}).(string)
	return ownerID, ok && ownerID != ""
}

// AuthMiddleware enforces HTTP Basic authentication and stores the caller's
// owner id, the hex SHA-256 of the username, in the request context.
// A nil verifier rejects every request.
func AuthMiddleware(users UserVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok || users == nil {
				unauthorized(w, r)
				return
			}

			if err := users.Verify(username, password); err != nil {
				slog.Debug("authentication failed", "err", err)
				unauthorized(w, r)
				return
			}

			ctx := WithOwner(r.Context(), keybackend.OwnerID(username))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="fragments", charset="UTF-8"`)
	WriteError(w, r, http.StatusUnauthorized, "unauthorized")
}

// RequestLogger logs one line per request at info level.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
