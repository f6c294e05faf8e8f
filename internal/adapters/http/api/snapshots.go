package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/tourboard/internal/domain/model"
)

// SnapshotDependencies defines the snapshot trigger.
type SnapshotDependencies interface {
	// EnqueueSnapshot schedules a snapshot and reports whether an
	// identical job was already in flight.
	EnqueueSnapshot(ctx context.Context, scopeKey string, asOf time.Time) (bool, error)
}

// SnapshotsHandler handles snapshot requests.
type SnapshotsHandler struct {
	deps  SnapshotDependencies
	dates *dateResolver
}

// NewSnapshotsHandler creates a new snapshots handler.
func NewSnapshotsHandler(deps SnapshotDependencies, dates *dateResolver) *SnapshotsHandler {
	return &SnapshotsHandler{deps: deps, dates: dates}
}

// snapshotRequest is the body of POST /snapshots.
type snapshotRequest struct {
	ScopeKey string `json:"scope_key"`
	AsOf     string `json:"as_of"`
}

func (s snapshotRequest) validate() error {
	if strings.TrimSpace(s.ScopeKey) == "" {
		return errors.New("missing scope_key")
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	ScopeKey  string `json:"scope_key"`
	AsOf      string `json:"as_of"`
}

// HandlePostSnapshot handles POST /snapshots requests.
func (h *SnapshotsHandler) HandlePostSnapshot(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_snapshot"
	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	asOf, err := h.dates.resolve(req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	duplicate, err := h.deps.EnqueueSnapshot(r.Context(), req.ScopeKey, asOf)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}

	ack := ackResponse{Status: "accepted", ScopeKey: req.ScopeKey, AsOf: model.FormatDay(asOf)}
	if duplicate {
		ack.Status, ack.Duplicate = "duplicate", true
		writeJSON(w, http.StatusOK, ack)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}
