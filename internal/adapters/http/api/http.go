// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	service "github.com/okian/tourboard/internal/app"
	"github.com/okian/tourboard/internal/domain/model"
	"github.com/okian/tourboard/internal/domain/types"
	"github.com/okian/tourboard/internal/timeutil"
)

const defaultMaxLimit = 500

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StandingsDependencies
	SnapshotDependencies
	StatsProvider

	// Scopes lists the named scope catalog.
	Scopes() []types.ScopeSummary
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	standingsHandler *StandingsHandler
	snapshotsHandler *SnapshotsHandler
	deps             Dependencies
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxLimit int
	now      func() time.Time
}

// WithMaxLimit caps the page size of standings responses.
func WithMaxLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithClock sets the time source used to resolve relative as_of values.
func WithClock(now func() time.Time) Option {
	return func(c *serverConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{maxLimit: defaultMaxLimit, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	dates := &dateResolver{parser: timeutil.NewParser(), now: cfg.now}

	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		standingsHandler: NewStandingsHandler(deps, dates, cfg.maxLimit),
		snapshotsHandler: NewSnapshotsHandler(deps, dates),
		deps:             deps,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /scopes", MetricsMiddleware(s.handleScopes, "scopes"))
	mux.HandleFunc("GET /standings/{scope}", MetricsMiddleware(s.standingsHandler.HandleGetStandings, "standings"))
	mux.HandleFunc("GET /standings/{scope}/players/{player_id}",
		MetricsMiddleware(s.standingsHandler.HandleGetPlayer, "player_standing"))
	mux.HandleFunc("POST /snapshots", MetricsMiddleware(s.snapshotsHandler.HandlePostSnapshot, "snapshots"))
}

// handleScopes handles GET /scopes requests.
func (s *Server) handleScopes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Scopes())
}

type dateResolver struct {
	parser *timeutil.Parser
	now    func() time.Time
}

// resolve turns an as_of parameter into a calendar day. Empty means today.
func (d *dateResolver) resolve(s string) (time.Time, error) {
	return d.parser.ParseDay(s, d.now())
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service errors into HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, model.ErrUnknownScope):
		writeError(w, http.StatusNotFound, "unknown_scope", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrNotRanked):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, model.ErrInvalidScope):
		writeError(w, http.StatusBadRequest, "invalid_scope", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
