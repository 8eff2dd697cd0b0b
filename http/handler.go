package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sagarc03/fragments"
)

type Service interface {
	Create(ctx context.Context, ownerID, contentType string, data []byte) (*fragments.Fragment, error)
	Replace(ctx context.Context, ownerID, id, contentType string, data []byte) (*fragments.Fragment, error)
	ByUser(ctx context.Context, ownerID string, expand bool) (fragments.Listing, error)
	ByID(ctx context.Context, ownerID, id string) (*fragments.Fragment, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// APIURL prefixes Location headers. When empty the request's scheme and
	// host are used.
	APIURL string
	// MaxUploadSize limits request bodies in bytes; 0 means no limit.
	MaxUploadSize int64
	Version       string
	Users         UserVerifier
	CORS          CORSConfig
}

// Handler provides HTTP handlers for fragment operations.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler serving the health check at / and the
// authenticated fragments API under /v1.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	r.Get("/", h.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(h.config.Users))

		r.Get("/fragments", h.handleList)
		r.Post("/fragments", h.handleCreate)
		r.Get("/fragments/{id}", h.handleGet)
		r.Get("/fragments/{id}/info", h.handleInfo)
		r.Put("/fragments/{id}", h.handleReplace)
		r.Delete("/fragments/{id}", h.handleDelete)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	WriteJSON(w, r, http.StatusOK, HealthResponse{Status: statusOK, Version: h.config.Version})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())
	expand, _ := strconv.ParseBool(r.URL.Query().Get("expand"))

	listing, err := h.service.ByUser(r.Context(), owner, expand)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	WriteJSON(w, r, http.StatusOK, ListResponse{Status: statusOK, Fragments: listing})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	contentType := r.Header.Get("Content-Type")
	if !fragments.IsSupportedType(contentType) {
		HandleError(w, r, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, contentType))
		return
	}

	data, ok := h.readBody(w, r)
	if !ok {
		return
	}

	f, err := h.service.Create(r.Context(), owner, contentType, data)
	if err != nil {
		if errors.Is(err, fragments.ErrInvalidInput) {
			err = fmt.Errorf("%w: %w", ErrUnsupportedMediaType, err)
		}
		HandleError(w, r, err)
		return
	}

	w.Header().Set("Location", h.location(r, f.ID))
	WriteJSON(w, r, http.StatusCreated, FragmentResponse{Status: statusOK, Fragment: f.Record})
}

// handleGet returns the raw data for {id}, or the data converted to the type
// of the extension for {id}.{ext}.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())
	id, ext, convert := strings.Cut(chi.URLParam(r, "id"), ".")

	f, err := h.service.ByID(r.Context(), owner, id)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	targetType := f.Type
	if convert {
		var known bool
		targetType, known = fragments.TypeForExtension(ext)
		if !known {
			HandleError(w, r, fmt.Errorf("fragment cannot be returned as a %s: %w", ext, ErrUnsupportedMediaType))
			return
		}
		if !slices.Contains(f.Formats(), targetType) {
			HandleError(w, r, fmt.Errorf("fragment cannot be returned as a %s: %w", ext, fragments.ErrUnsupportedConversion))
			return
		}
	}

	data, err := f.Data(r.Context())
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if convert {
		data, err = f.ConvertType(data, targetType)
		if err != nil {
			HandleError(w, r, err)
			return
		}
	}

	writeData(w, targetType, data)
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	f, err := h.service.ByID(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	WriteJSON(w, r, http.StatusOK, FragmentResponse{Status: statusOK, Fragment: f.Record})
}

func (h *Handler) handleReplace(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())
	id := chi.URLParam(r, "id")

	data, ok := h.readBody(w, r)
	if !ok {
		return
	}

	f, err := h.service.Replace(r.Context(), owner, id, r.Header.Get("Content-Type"), data)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	w.Header().Set("Location", h.location(r, f.ID))
	WriteJSON(w, r, http.StatusOK, FragmentResponse{Status: statusOK, Fragment: f.Record})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	if err := h.service.Delete(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		HandleError(w, r, err)
		return
	}

	WriteJSON(w, r, http.StatusOK, OKResponse{Status: statusOK})
}

// readBody reads the request body, enforcing MaxUploadSize. It writes the
// error response itself and reports false on failure.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body := io.Reader(r.Body)
	if h.config.MaxUploadSize > 0 {
		body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		WriteError(w, r, http.StatusBadRequest, "unable to read request body")
		return nil, false
	}

	return data, true
}

func (h *Handler) location(r *http.Request, id string) string {
	base := strings.TrimSuffix(h.config.APIURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/v1/fragments/" + id
}

func writeData(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
