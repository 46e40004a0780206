// Package server exposes the ACS client over a small read-only HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/acs-cli/internal/render"
	"github.com/sells-group/acs-cli/pkg/acs"
)

// Fetcher is the subset of *acs.Client the server calls.
type Fetcher interface {
	GetData(ctx context.Context, q acs.Query) (*acs.Result, error)
	GetCensusTracts(ctx context.Context, state, tract string) (*acs.Result, error)
	GetCountySubdivisions(ctx context.Context, state, sub string) (*acs.Result, error)
	Year() string
	Dataset() string
}

// Config holds server settings.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// Server serves ACS lookups over HTTP.
type Server struct {
	client Fetcher
	cfg    Config
}

// New creates a Server backed by client.
func New(client Fetcher, cfg Config) *Server {
	return &Server{client: client, cfg: cfg}
}

// Handler returns the router with middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}),
	)

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/variables", s.handleVariables)
		r.Get("/{state}/{geography}", s.handleGeography)
	})
	return r
}

// Serve listens on the configured port until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		zap.L().Info("starting server", zap.Int("port", s.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server: listen")
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		zap.L().Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"year":    s.client.Year(),
		"dataset": s.client.Dataset(),
	})
}

func (s *Server) handleVariables(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, acs.Catalog())
}

// handleGeography answers GET /v1/{state}/{geography}?geo=a,b&in=key:value.
// Tract and county subdivision lookups with a single geo id use the
// filtered fetch so full GEOIDs are accepted.
func (s *Server) handleGeography(w http.ResponseWriter, r *http.Request) {
	state := acs.NormalizeStateFIPS(chi.URLParam(r, "state"))
	if !acs.ValidStateFIPS(state) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid state FIPS code %q", chi.URLParam(r, "state")))
		return
	}
	geoType := acs.ResolveGeography(chi.URLParam(r, "geography"))

	format := render.FormatJSON
	if name := r.URL.Query().Get("format"); name != "" {
		f, err := render.ParseFormat(name)
		if err != nil || f == render.FormatTable || f.Binary() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", name))
			return
		}
		format = f
	}

	var ids []string
	if geo := r.URL.Query().Get("geo"); geo != "" {
		ids = strings.Split(geo, ",")
	}

	var containments []acs.Containment
	for _, raw := range r.URL.Query()["in"] {
		c, ok := acs.ParseContainment(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid containment %q, want key:value", raw))
			return
		}
		containments = append(containments, c)
	}

	var (
		res *acs.Result
		err error
	)
	switch {
	case geoType == "tract" && len(ids) == 1 && len(containments) == 0:
		res, err = s.client.GetCensusTracts(r.Context(), state, ids[0])
	case geoType == "county+subdivision" && len(ids) == 1 && len(containments) == 0:
		res, err = s.client.GetCountySubdivisions(r.Context(), state, ids[0])
	default:
		res, err = s.client.GetData(r.Context(), acs.Query{
			State:         state,
			GeographyType: geoType,
			Geography:     ids,
			Containments:  containments,
		})
	}
	if err != nil {
		writeFetchError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	if err := render.Write(w, format, res); err != nil {
		zap.L().Warn("server: write response", zap.Error(err))
	}
}

func contentType(f render.Format) string {
	switch f {
	case render.FormatCSV:
		return "text/csv"
	case render.FormatYAML:
		return "application/yaml"
	default:
		return "application/json"
	}
}

// writeFetchError maps client failures onto HTTP status codes. Upstream and
// data shape failures are the upstream's fault and become 502.
func writeFetchError(w http.ResponseWriter, err error) {
	var upstream *acs.UpstreamError
	var shape *acs.DataShapeError
	switch {
	case errors.As(err, &upstream):
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":           upstream.Error(),
			"upstream_status": upstream.StatusCode,
		})
	case errors.As(err, &shape):
		writeError(w, http.StatusBadGateway, shape.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "upstream request timed out")
	default:
		zap.L().Error("server: fetch failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream request failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
