// Package api exposes the tracker over a small JSON HTTP API built on chi and huma.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/tracker"
	"github.com/julianstephens/tally/internal/utils"
	"github.com/julianstephens/tally/internal/validation"
)

const DefaultBasePath = "/v1"

// Config for the HTTP API handler.
type Config struct {
	Tracker  *tracker.Service
	BasePath string
	// JWTSecret enables HS256 bearer auth on every route except health when set.
	JWTSecret string
	Logger    *log.Logger
}

type apiErrorBody struct {
	Code    string `json:"code" example:"not_found"`
	Message string `json:"message" example:"habit not found"`
}

// apiError is the {"error": {"code", "message"}} envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

func newAPIError(status int, code, message string) *apiError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{status: status, Body: apiErrorBody{Code: code, Message: message}}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// handleError maps domain errors onto the envelope.
func handleError(log *log.Logger, err error) huma.StatusError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, validation.ErrInvalid), errors.Is(err, utils.ErrInvalidDate):
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, context.Canceled):
		return newAPIError(http.StatusServiceUnavailable, "canceled", "request canceled")
	default:
		log.Error("Request failed", "err", err)
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error")
	}
}

var humaDefaults sync.Once

// configureHuma sets huma's package-level hooks: empty arrays encode as [] and every
// error, including request validation, uses the tally envelope with 400 for bad input.
func configureHuma() {
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}
		if len(errs) > 0 {
			details := make([]string, 0, len(errs))
			for _, e := range errs {
				details = append(details, e.Error())
			}
			msg = msg + ": " + strings.Join(details, "; ")
		}
		return newAPIError(status, "", msg)
	}
}

// New returns an HTTP handler exposing the tally API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Tracker == nil {
		return nil, errors.New("api: tracker is required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = DefaultBasePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	lg := cfg.Logger
	if lg == nil {
		lg = logger.Component("api")
	}

	humaDefaults.Do(configureHuma)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(lg))
	if cfg.JWTSecret != "" {
		router.Use(newAuthMiddleware(basePath, cfg.JWTSecret))
	}

	hcfg := huma.DefaultConfig(constants.AppName+" API", constants.Version)
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	h := &handlers{tracker: cfg.Tracker, log: lg}
	registerHealth(group)
	h.registerStats(group)
	h.registerHeatmap(group)
	h.registerAnalytics(group)
	h.registerHabits(group)

	return router, nil
}

// requestLogger logs method, path, status and duration of every request.
func requestLogger(lg *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			lg.Info("Request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start))
		})
	}
}

// Serve runs handler on addr until ctx is canceled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("API shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
