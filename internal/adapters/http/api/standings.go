package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/tourboard/internal/domain/model"
	"github.com/okian/tourboard/internal/domain/types"
)

// StandingsDependencies defines the read operations behind /standings.
type StandingsDependencies interface {
	Standings(ctx context.Context, scopeKey string, asOf time.Time, withMovement bool) ([]model.RankedRow, error)
	PlayerStanding(ctx context.Context, scopeKey, playerID string, asOf time.Time, withMovement bool) (model.RankedRow, error)
}

// StandingsHandler handles standings requests.
type StandingsHandler struct {
	deps     StandingsDependencies
	dates    *dateResolver
	maxLimit int
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps StandingsDependencies, dates *dateResolver, maxLimit int) *StandingsHandler {
	return &StandingsHandler{deps: deps, dates: dates, maxLimit: maxLimit}
}

type standingsQuery struct {
	asOf     time.Time
	movement bool
	limit    int
	offset   int
}

func (h *StandingsHandler) parseQuery(r *http.Request) (standingsQuery, error) {
	q := r.URL.Query()
	out := standingsQuery{limit: h.maxLimit}

	asOf, err := h.dates.resolve(q.Get("as_of"))
	if err != nil {
		return out, err
	}
	out.asOf = asOf

	if v := q.Get("movement"); v != "" {
		if out.movement, err = strconv.ParseBool(v); err != nil {
			return out, err
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > h.maxLimit {
			return out, ErrBadRequest
		}
		out.limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return out, ErrBadRequest
		}
		out.offset = n
	}
	return out, nil
}

// HandleGetStandings handles GET /standings/{scope} requests.
func (h *StandingsHandler) HandleGetStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_standings"
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rows, err := h.deps.Standings(r.Context(), r.PathValue("scope"), q.asOf, q.movement)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(len(rows)))
	w.Header().Set("X-As-Of", model.FormatDay(q.asOf))
	writeJSON(w, http.StatusOK, types.FromRankedRows(page(rows, q.offset, q.limit)))
}

// HandleGetPlayer handles GET /standings/{scope}/players/{player_id} requests.
func (h *StandingsHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player_standing"
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	row, err := h.deps.PlayerStanding(r.Context(), r.PathValue("scope"), r.PathValue("player_id"), q.asOf, q.movement)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromRankedRow(row))
}

func page(rows []model.RankedRow, offset, limit int) []model.RankedRow {
	if offset >= len(rows) {
		return []model.RankedRow{}
	}
	end := min(offset+limit, len(rows))
	return rows[offset:end]
}
