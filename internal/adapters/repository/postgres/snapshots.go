package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/okian/tourboard/internal/adapters/repository"
	"github.com/okian/tourboard/internal/domain/model"
	"github.com/okian/tourboard/pkg/logger"
)

// FetchLatestSnapshot implements repository.SnapshotStore.
func (s *Store) FetchLatestSnapshot(ctx context.Context, scopeKey string, beforeDate time.Time) ([]model.SnapshotEntry, error) {
	start := time.Now()
	defer observe("fetch_latest_snapshot", start)

	latest := s.db.NewSelect().
		Model((*snapshotRow)(nil)).
		ColumnExpr("MAX(s.snapshot_date)").
		Where("s.scope_key = ?", scopeKey).
		Where("s.snapshot_date < ?::date", model.FormatDay(beforeDate))

	var rows []snapshotRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("s.scope_key = ?", scopeKey).
		Where("s.snapshot_date = (?)", latest).
		OrderExpr("s.position ASC, s.player_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError("fetch latest snapshot", err)
	}

	out := make([]model.SnapshotEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.SnapshotEntry{
			SnapshotDate: model.Day(r.SnapshotDate),
			ScopeKey:     r.ScopeKey,
			PlayerID:     r.PlayerID,
			Position:     r.Position,
			Points:       r.Points,
		})
	}
	return out, nil
}

// UpsertSnapshot implements repository.SnapshotStore. The delete and the
// insert share one transaction so readers never see a partial snapshot.
func (s *Store) UpsertSnapshot(ctx context.Context, scopeKey string, date time.Time, entries []model.SnapshotEntry) error {
	start := time.Now()
	defer observe("upsert_snapshot", start)

	normalized, err := repository.NormalizeEntries(scopeKey, date, entries)
	if err != nil {
		return err
	}

	runID := uuid.New()
	createdAt := s.now().UTC()
	rows := make([]snapshotRow, 0, len(normalized))
	for _, e := range normalized {
		rows = append(rows, snapshotRow{
			ScopeKey:     e.ScopeKey,
			SnapshotDate: e.SnapshotDate,
			PlayerID:     e.PlayerID,
			Position:     e.Position,
			Points:       e.Points,
			RunID:        runID,
			CreatedAt:    createdAt,
		})
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*snapshotRow)(nil)).
			Where("scope_key = ?", scopeKey).
			Where("snapshot_date = ?::date", model.FormatDay(date)).
			Exec(ctx); err != nil {
			return mapError("delete snapshot", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return mapError("insert snapshot", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug(ctx, "snapshot written",
		logger.String("scope_key", scopeKey),
		logger.String("snapshot_date", model.FormatDay(date)),
		logger.Int("rows", len(rows)),
		logger.String("run_id", runID.String()),
	)
	return nil
}
