package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/tourboard/internal/domain/model"
	"github.com/okian/tourboard/pkg/metrics"
)

type resultKey struct {
	playerID string
	eventID  string
}

type snapshotKey struct {
	scopeKey string
	day      time.Time
}

// MemoryStore implements FactStore, FactWriter and SnapshotStore in memory.
// Reads return copies; a snapshot swap happens under a single lock so a
// reader never observes a half-replaced snapshot.
type MemoryStore struct {
	mu        sync.RWMutex
	players   map[string]Player
	events    map[string]Event
	results   map[resultKey]Result
	snapshots map[snapshotKey][]model.SnapshotEntry
}

var (
	_ FactStore     = (*MemoryStore)(nil)
	_ FactWriter    = (*MemoryStore)(nil)
	_ SnapshotStore = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		players:   make(map[string]Player),
		events:    make(map[string]Event),
		results:   make(map[resultKey]Result),
		snapshots: make(map[snapshotKey][]model.SnapshotEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchResultFacts implements FactStore.
func (s *MemoryStore) FetchResultFacts(ctx context.Context, q FactQuery) ([]model.ResultFact, error) {
	start := time.Now()
	defer observe("fetch_result_facts", start)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	from, to := model.Day(q.DateFrom), model.Day(q.DateTo)

	s.mu.RLock()
	defer s.mu.RUnlock()

	facts := make([]model.ResultFact, 0, len(s.results))
	for _, r := range s.results {
		ev, ok := s.events[r.EventID]
		if !ok {
			continue
		}
		day := model.Day(ev.Date)
		if !from.IsZero() && day.Before(from) {
			continue
		}
		if !to.IsZero() && day.After(to) {
			continue
		}
		if q.HighRollerOnly && !ev.IsHighRoller {
			continue
		}
		facts = append(facts, joinFact(r, ev))
	}

	slices.SortFunc(facts, func(a, b model.ResultFact) int {
		if c := a.EventDate.Compare(b.EventDate); c != 0 {
			return c
		}
		if c := cmp.Compare(a.EventSequence, b.EventSequence); c != 0 {
			return c
		}
		if c := cmp.Compare(a.EventID, b.EventID); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerID, b.PlayerID)
	})
	return facts, nil
}

// FetchPlayerIdentity implements FactStore.
func (s *MemoryStore) FetchPlayerIdentity(ctx context.Context, playerIDs []string) (map[string]model.PlayerIdentity, error) {
	start := time.Now()
	defer observe("fetch_player_identity", start)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(playerIDs))
	out := make(map[string]model.PlayerIdentity, len(playerIDs))
	for _, id := range playerIDs {
		p, ok := s.players[id]
		if !ok {
			continue
		}
		wanted[id] = struct{}{}
		out[id] = model.PlayerIdentity{
			PlayerID:    p.ID,
			Forename:    p.Forename,
			Surname:     p.Surname,
			DisplayName: p.DisplayName,
		}
	}

	// EverConsented spans every stored result, not only the queried window.
	for k, r := range s.results {
		if !r.Consent {
			continue
		}
		if _, ok := wanted[k.playerID]; !ok {
			continue
		}
		id := out[k.playerID]
		id.EverConsented = true
		out[k.playerID] = id
	}
	return out, nil
}

// SavePlayers implements FactWriter.
func (s *MemoryStore) SavePlayers(ctx context.Context, players []Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, p := range players {
		if p.ID == "" {
			return fmt.Errorf("save players: empty player id: %w", ErrInvalidInput)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range players {
		s.players[p.ID] = p
	}
	metrics.UpdateRepositoryRecords("players", len(s.players))
	return nil
}

// SaveEvents implements FactWriter.
func (s *MemoryStore) SaveEvents(ctx context.Context, events []Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, e := range events {
		if e.ID == "" || e.Date.IsZero() {
			return fmt.Errorf("save events: event %q needs an id and a date: %w", e.ID, ErrInvalidInput)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		e.Date = model.Day(e.Date)
		s.events[e.ID] = e
	}
	metrics.UpdateRepositoryRecords("events", len(s.events))
	return nil
}

// SaveResults implements FactWriter. Every result must reference a known
// player and event.
func (s *MemoryStore) SaveResults(ctx context.Context, results []Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range results {
		if _, ok := s.players[r.PlayerID]; !ok {
			return fmt.Errorf("save results: player %q: %w", r.PlayerID, ErrNotFound)
		}
		if _, ok := s.events[r.EventID]; !ok {
			return fmt.Errorf("save results: event %q: %w", r.EventID, ErrNotFound)
		}
	}
	for _, r := range results {
		s.results[resultKey{playerID: r.PlayerID, eventID: r.EventID}] = r
	}
	metrics.UpdateRepositoryRecords("results", len(s.results))
	return nil
}

// FetchLatestSnapshot implements SnapshotStore.
func (s *MemoryStore) FetchLatestSnapshot(ctx context.Context, scopeKey string, beforeDate time.Time) ([]model.SnapshotEntry, error) {
	start := time.Now()
	defer observe("fetch_latest_snapshot", start)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	before := model.Day(beforeDate)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest time.Time
	for k := range s.snapshots {
		if k.scopeKey != scopeKey || !k.day.Before(before) {
			continue
		}
		if k.day.After(latest) {
			latest = k.day
		}
	}
	if latest.IsZero() {
		return []model.SnapshotEntry{}, nil
	}
	return slices.Clone(s.snapshots[snapshotKey{scopeKey: scopeKey, day: latest}]), nil
}

// UpsertSnapshot implements SnapshotStore.
func (s *MemoryStore) UpsertSnapshot(ctx context.Context, scopeKey string, date time.Time, entries []model.SnapshotEntry) error {
	start := time.Now()
	defer observe("upsert_snapshot", start)

	if err := ctx.Err(); err != nil {
		return err
	}
	rows, err := NormalizeEntries(scopeKey, date, entries)
	if err != nil {
		return err
	}

	key := snapshotKey{scopeKey: scopeKey, day: model.Day(date)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(rows) == 0 {
		delete(s.snapshots, key)
	} else {
		s.snapshots[key] = rows
	}
	metrics.UpdateRepositoryRecords("snapshots", len(s.snapshots))
	return nil
}

// SnapshotDates lists the dates holding a snapshot for scopeKey, oldest first.
func (s *MemoryStore) SnapshotDates(scopeKey string) []time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []time.Time
	for k := range s.snapshots {
		if k.scopeKey == scopeKey {
			out = append(out, k.day)
		}
	}
	slices.SortFunc(out, time.Time.Compare)
	return out
}

// NormalizeEntries stamps entries with the target key and day and rejects
// duplicate or anonymous players.
func NormalizeEntries(scopeKey string, date time.Time, entries []model.SnapshotEntry) ([]model.SnapshotEntry, error) {
	if scopeKey == "" || date.IsZero() {
		return nil, fmt.Errorf("upsert snapshot: scope key and date are required: %w", ErrInvalidInput)
	}
	day := model.Day(date)
	seen := make(map[string]struct{}, len(entries))
	out := make([]model.SnapshotEntry, 0, len(entries))
	for _, e := range entries {
		if e.PlayerID == "" {
			return nil, fmt.Errorf("upsert snapshot: entry without player id: %w", ErrInvalidInput)
		}
		if _, dup := seen[e.PlayerID]; dup {
			return nil, fmt.Errorf("upsert snapshot: duplicate player %q: %w", e.PlayerID, ErrInvalidInput)
		}
		seen[e.PlayerID] = struct{}{}
		e.ScopeKey = scopeKey
		e.SnapshotDate = day
		out = append(out, e)
	}
	return out, nil
}

func joinFact(r Result, ev Event) model.ResultFact {
	return model.ResultFact{
		PlayerID:        r.PlayerID,
		EventID:         r.EventID,
		Points:          r.Points,
		PositionOfPrize: r.PositionOfPrize,
		PrizeAmount:     r.PrizeAmount,
		Consent:         r.Consent,
		EventDate:       model.Day(ev.Date),
		EventSequence:   ev.Sequence,
		IsHighRoller:    ev.IsHighRoller,
		BuyIn:           ev.BuyIn,
		SeriesID:        ev.SeriesID,
		FestivalID:      ev.FestivalID,
	}
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
}
