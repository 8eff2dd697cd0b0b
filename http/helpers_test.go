package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sagarc03/fragments"
	fragmentshttp "github.com/sagarc03/fragments/http"
	"github.com/sagarc03/fragments/imaging"
	"github.com/sagarc03/fragments/keybackend"
	"github.com/sagarc03/fragments/markdown"
	"github.com/sagarc03/fragments/memory"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	user1 = "user1@email.com"
	pass1 = "password1"
	user2 = "user2@email.com"
	pass2 = "password2"
)

// MockService is a mock implementation of http.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, ownerID, contentType string, data []byte) (*fragments.Fragment, error) {
	args := m.Called(ctx, ownerID, contentType, data)
	f, _ := args.Get(0).(*fragments.Fragment)
	return f, args.Error(1)
}

func (m *MockService) Replace(ctx context.Context, ownerID, id, contentType string, data []byte) (*fragments.Fragment, error) {
	args := m.Called(ctx, ownerID, id, contentType, data)
	f, _ := args.Get(0).(*fragments.Fragment)
	return f, args.Error(1)
}

func (m *MockService) ByUser(ctx context.Context, ownerID string, expand bool) (fragments.Listing, error) {
	args := m.Called(ctx, ownerID, expand)
	return args.Get(0).(fragments.Listing), args.Error(1)
}

func (m *MockService) ByID(ctx context.Context, ownerID, id string) (*fragments.Fragment, error) {
	args := m.Called(ctx, ownerID, id)
	f, _ := args.Get(0).(*fragments.Fragment)
	return f, args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func testUsers() *keybackend.MapUserStore {
	return keybackend.NewMapUserStore(map[string]string{
		user1: pass1,
		user2: pass2,
	})
}

// newTestRouter returns a router over a fresh in-memory service.
func newTestRouter(t *testing.T, cfg fragmentshttp.HandlerConfig) http.Handler {
	t.Helper()

	transcoder, err := imaging.New(imaging.Options{})
	require.NoError(t, err)
	conv, err := fragments.NewConverter(markdown.New(markdown.Options{}), transcoder)
	require.NoError(t, err)

	store := memory.New()
	service, err := fragments.NewService(store, store.Blobs(), conv, fragments.ServiceConfig{})
	require.NoError(t, err)

	if cfg.Users == nil {
		cfg.Users = testUsers()
	}

	return fragmentshttp.NewHandler(&cfg, service).Router()
}

func newMockRouter(service fragmentshttp.Service) http.Handler {
	cfg := fragmentshttp.HandlerConfig{Users: testUsers()}
	return fragmentshttp.NewHandler(&cfg, service).Router()
}

func do(t *testing.T, router http.Handler, method, target, contentType string, body []byte, user, pass string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req := httptest.NewRequest(method, target, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if user != "" {
		req.SetBasicAuth(user, pass)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type fragmentEnvelope struct {
	Status   string           `json:"status"`
	Fragment fragments.Record `json:"fragment"`
}

type errorEnvelope struct {
	Status string `json:"status"`
	Error  struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

// create posts data as user1 and returns the new record.
func create(t *testing.T, router http.Handler, contentType string, data []byte) fragments.Record {
	t.Helper()

	rec := do(t, router, http.MethodPost, "/v1/fragments", contentType, data, user1, pass1)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[fragmentEnvelope](t, rec).Fragment
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 20), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
