package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/sagarc03/lfsgate"
	"github.com/sagarc03/lfsgate/metrics"
)

type Service interface {
	ProcessBatch(ctx context.Context, req lfsgate.BatchRequest) ([]lfsgate.Representation, error)
	Upload(ctx context.Context, repo, oid string, content io.Reader) (lfsgate.ObjectMetadata, error)
	Download(ctx context.Context, repo, oid string) (lfsgate.ObjectMetadata, io.ReadCloser, error)
	Verify(ctx context.Context, repo, oid string, size int64) error
	DeleteObject(ctx context.Context, repo, oid string) error
	CreateLock(ctx context.Context, repo, path, session string) (lfsgate.Lock, error)
	ListLocks(ctx context.Context, q lfsgate.LockListQuery) (lfsgate.LockList, error)
	VerifyLocks(ctx context.Context, q lfsgate.VerifyQuery) (lfsgate.VerifyResult, error)
	DeleteLock(ctx context.Context, repo, id, session string, force bool) (lfsgate.Lock, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled" yaml:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers" yaml:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

type HandlerConfig struct {
	ReadAuth  AuthConfig
	WriteAuth AuthConfig
	// Signer verifies signed transfer links. Nil accepts basic auth only.
	Signer *lfsgate.LinkSigner
	CORS   CORSConfig
	// Metrics is optional; nil disables /metrics and request metrics.
	Metrics     *metrics.Metrics
	MetricsPath string
	// MaxUploadSize caps object uploads in bytes; 0 means unlimited.
	MaxUploadSize int64
	// Ping backs /healthz; nil always reports healthy.
	Ping func(ctx context.Context) error
}

// Handler provides HTTP handlers for the Git LFS API.
type Handler struct {
	config   HandlerConfig
	service  Service
	validate *validator.Validate
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:   *config,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Router returns an http.Handler with the LFS routes mounted under
// /{repo}/info/lfs.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.config.Metrics.Middleware)

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

	r.Get("/healthz", h.handleHealth)
	if h.config.Metrics != nil {
		path := h.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, h.config.Metrics.Handler())
	}

	readAuth := AuthMiddleware(h.config.ReadAuth)
	writeAuth := AuthMiddleware(h.config.WriteAuth)

	r.Route("/{repo}/info/lfs", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(readAuth)
			r.Get("/locks", h.handleListLocks)
			r.Post("/objects/batch", h.handleBatch)
		})

		r.Group(func(r chi.Router) {
			r.Use(writeAuth)
			r.Post("/locks", h.handleCreateLock)
			r.Post("/locks/verify", h.handleVerifyLocks)
			r.Post("/locks/{id}/unlock", h.handleUnlock)
			r.Delete("/objects/{oid}", h.handleDeleteObject)
		})

		r.With(LinkAuthMiddleware(h.config.Signer, readAuth)).Get("/objects/{oid}", h.handleDownload)
		r.With(LinkAuthMiddleware(h.config.Signer, writeAuth)).Put("/objects/{oid}", h.handleUpload)
		r.With(LinkAuthMiddleware(h.config.Signer, writeAuth)).Post("/objects/{oid}/verify", h.handleVerifyObject)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.config.Ping != nil {
		if err := h.config.Ping(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			WriteError(w, http.StatusServiceUnavailable, "Metadata store unavailable")
			return
		}
	}
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body into v and validates it. An empty body leaves
// v at its zero value when allowEmpty is set.
func (h *Handler) decode(r *http.Request, v any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !(allowEmpty && errors.Is(err, io.EOF)) {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := h.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", lfsgate.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	repo := chi.URLParam(r, "repo")

	var req batchRequest
	if err := h.decode(r, &req, false); err != nil {
		if errors.Is(err, lfsgate.ErrInvalidInput) {
			HandleError(w, err)
		} else {
			WriteError(w, http.StatusBadRequest, "Malformed batch request")
		}
		return
	}

	op, err := lfsgate.ParseOperation(req.Operation)
	if err != nil {
		HandleError(w, err)
		return
	}

	// The route is guarded by read auth; uploads need write access.
	session := Identity(r.Context())
	if op == lfsgate.OperationUpload {
		session, err = authenticate(r, h.config.WriteAuth)
		if err != nil {
			HandleError(w, err)
			return
		}
	}

	reps, err := h.service.ProcessBatch(r.Context(), lfsgate.BatchRequest{
		Repo:      repo,
		Operation: op,
		Objects:   req.Objects,
		Session:   session,
	})
	if err != nil {
		HandleError(w, err)
		return
	}

	for _, rep := range reps {
		result := "ok"
		if rep.Error != nil {
			result = "error"
		}
		h.config.Metrics.ObserveBatchObject(string(op), result)
	}

	resp := batchResponse{Transfer: TransferBasic, Objects: reps}
	if req.HashAlgo != "" {
		resp.HashAlgo = req.HashAlgo
	}
	if resp.Objects == nil {
		resp.Objects = []lfsgate.Representation{}
	}

	_ = WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	repo := chi.URLParam(r, "repo")
	oid := chi.URLParam(r, "oid")

	body := io.Reader(r.Body)
	if h.config.MaxUploadSize > 0 {
		body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}
	counted := &countingReader{r: body}

	if _, err := h.service.Upload(r.Context(), repo, oid, counted); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Object exceeds %d bytes", maxErr.Limit))
			return
		}
		HandleError(w, err)
		return
	}

	h.config.Metrics.ObserveBytes("upload", counted.n)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	repo := chi.URLParam(r, "repo")
	oid := chi.URLParam(r, "oid")

	_, content, err := h.service.Download(r.Context(), repo, oid)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, content)
	if err != nil {
		slog.Warn("download interrupted", "repo", repo, "oid", oid, "written", n, "error", err)
	}
	h.config.Metrics.ObserveBytes("download", n)
}

func (h *Handler) handleVerifyObject(w http.ResponseWriter, r *http.Request) {
	repo := chi.URLParam(r, "repo")
	oid := chi.URLParam(r, "oid")

	var req verifyObjectRequest
	if err := h.decode(r, &req, false); err != nil {
		if errors.Is(err, lfsgate.ErrInvalidInput) {
			HandleError(w, err)
		} else {
			WriteError(w, http.StatusBadRequest, "Malformed verify request")
		}
		return
	}

	if req.OID != oid {
		WriteError(w, http.StatusUnprocessableEntity, "Object id does not match the url")
		return
	}

	if err := h.service.Verify(r.Context(), repo, oid, req.Size); err != nil {
		HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleDeleteObject(w http.ResponseWriter, r *http.Request) {
	repo := chi.URLParam(r, "repo")
	oid := chi.URLParam(r, "oid")

	if err := h.service.DeleteObject(r.Context(), repo, oid); err != nil {
		HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreateLock(w http.ResponseWriter, r *http.Request) {
	repo := chi.URLParam(r, "repo")

	var req createLockRequest
	if err := h.decode(r, &req, false); err != nil {
		if errors.Is(err, lfsgate.ErrInvalidInput) {
			HandleError(w, err)
		} else {
			WriteError(w, http.StatusBadRequest, "Malformed lock request")
		}
		return
	}

	lock, err := h.service.CreateLock(r.Context(), repo, req.Path, Identity(r.Context()))
	h.config.Metrics.ObserveLock("create", err)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, lockResponse{Lock: lock})
}

func (h *Handler) handleListLocks(w http.ResponseWriter, r *http.Request) {
	repo := chi.URLParam(r, "repo")
	q := r.URL.Query()

	limit := 0
	if limitStr := q.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	list, err := h.service.ListLocks(r.Context(), lfsgate.LockListQuery{
		Repo:    repo,
		Path:    q.Get("path"),
		ID:      q.Get("id"),
		Cursor:  q.Get("cursor"),
		Limit:   limit,
		Session: Identity(r.Context()),
	})
	h.config.Metrics.ObserveLock("list", err)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleVerifyLocks(w http.ResponseWriter, r *http.Request) {
	repo := chi.URLParam(r, "repo")

	var req verifyLocksRequest
	if err := h.decode(r, &req, true); err != nil {
		if errors.Is(err, lfsgate.ErrInvalidInput) {
			HandleError(w, err)
		} else {
			WriteError(w, http.StatusBadRequest, "Malformed verify request")
		}
		return
	}

	result, err := h.service.VerifyLocks(r.Context(), lfsgate.VerifyQuery{
		Repo:    repo,
		Cursor:  req.Cursor,
		Limit:   req.Limit,
		Session: Identity(r.Context()),
	})
	h.config.Metrics.ObserveLock("verify", err)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleUnlock(w http.ResponseWriter, r *http.Request) {
	repo := chi.URLParam(r, "repo")
	id := chi.URLParam(r, "id")

	var req unlockRequest
	if err := h.decode(r, &req, true); err != nil {
		WriteError(w, http.StatusBadRequest, "Malformed unlock request")
		return
	}

	lock, err := h.service.DeleteLock(r.Context(), repo, id, Identity(r.Context()), req.Force)
	h.config.Metrics.ObserveLock("unlock", err)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, lockResponse{Lock: lock})
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
