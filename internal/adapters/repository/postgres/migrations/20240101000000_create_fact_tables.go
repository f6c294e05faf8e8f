package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS players (
					id           TEXT PRIMARY KEY,
					forename     TEXT NOT NULL DEFAULT '',
					surname      TEXT NOT NULL DEFAULT '',
					display_name TEXT NOT NULL DEFAULT ''
				);

				CREATE TABLE IF NOT EXISTS events (
					id             TEXT PRIMARY KEY,
					name           TEXT NOT NULL DEFAULT '',
					event_date     DATE NOT NULL,
					sequence       INTEGER NOT NULL DEFAULT 0,
					is_high_roller BOOLEAN NOT NULL DEFAULT false,
					buy_in         NUMERIC,
					series_id      TEXT NOT NULL DEFAULT '',
					festival_id    TEXT NOT NULL DEFAULT ''
				);
				CREATE INDEX IF NOT EXISTS idx_events_event_date ON events(event_date);

				CREATE TABLE IF NOT EXISTS results (
					player_id         TEXT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
					event_id          TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
					points            DOUBLE PRECISION,
					position_of_prize INTEGER,
					prize_amount      NUMERIC,
					consent           BOOLEAN NOT NULL DEFAULT false,
					PRIMARY KEY (player_id, event_id)
				);
				CREATE INDEX IF NOT EXISTS idx_results_event_id ON results(event_id);
			`); err != nil {
				return fmt.Errorf("create fact tables: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP TABLE IF EXISTS results;
				DROP TABLE IF EXISTS events;
				DROP TABLE IF EXISTS players;
			`); err != nil {
				return fmt.Errorf("drop fact tables: %w", err)
			}
			return nil
		})
	})
}
