package http_test

import (
	"net/http"
	"testing"

	fragmentshttp "github.com/sagarc03/fragments/http"
	"github.com/sagarc03/fragments/keybackend"
	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware_SetsOwner(t *testing.T) {
	var gotOwner string
	var gotOK bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOwner, gotOK = fragmentshttp.OwnerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	wrapped := fragmentshttp.AuthMiddleware(testUsers())(handler)

	req := newRequest(http.MethodGet, "/v1/fragments")
	req.SetBasicAuth(user1, pass1)
	rec := serve(wrapped, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotOK)
	assert.Equal(t, keybackend.OwnerID(user1), gotOwner)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	wrapped := fragmentshttp.AuthMiddleware(testUsers())(handler)

	req := newRequest(http.MethodGet, "/v1/fragments")
	req.SetBasicAuth(user1, "wrong")
	rec := serve(wrapped, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestOwnerFromContext_Missing(t *testing.T) {
	_, ok := fragmentshttp.OwnerFromContext(newRequest(http.MethodGet, "/").Context())
	assert.False(t, ok)
}
