package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if _, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS leaderboard_snapshots (
				scope_key     TEXT NOT NULL,
				snapshot_date DATE NOT NULL,
				player_id     TEXT NOT NULL,
				position      INTEGER NOT NULL,
				points        DOUBLE PRECISION NOT NULL,
				run_id        UUID NOT NULL,
				created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (scope_key, snapshot_date, player_id)
			);
		`); err != nil {
			return fmt.Errorf("create leaderboard_snapshots: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS leaderboard_snapshots;`); err != nil {
			return fmt.Errorf("drop leaderboard_snapshots: %w", err)
		}
		return nil
	})
}
