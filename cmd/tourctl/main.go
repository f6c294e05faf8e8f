// Command tourctl is the operator CLI: schema migrations, demo data and
// one-off standings or snapshot runs.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"

	"github.com/okian/tourboard/internal/adapters/repository/postgres"
	app "github.com/okian/tourboard/internal/app"
	"github.com/okian/tourboard/internal/config"
	"github.com/okian/tourboard/internal/domain/model"
	"github.com/okian/tourboard/internal/seed"
	"github.com/okian/tourboard/internal/timeutil"
	"github.com/okian/tourboard/pkg/logger"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "tourctl:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "tourctl",
		Usage:  "operate the tour leaderboard",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML config file", EnvVars: []string{config.EnvConfigFile}},
			&cli.StringFlag{Name: "driver", Usage: "store driver override (memory|postgres)"},
			&cli.StringFlag{Name: "dsn", Usage: "postgres DSN override"},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug|info|warn|error"},
		},
		Before: func(c *cli.Context) error {
			if err := logger.InitFormat(os.Stderr, logger.FormatText); err != nil {
				return err
			}
			return logger.SetLevelString(c.String("log-level"))
		},
		Commands: []*cli.Command{
			migrateCommand(),
			seedCommand(),
			standingsCommand(),
			snapshotCommand(),
		},
	}
}

// loadConfig applies the global flag overrides on top of config.Load.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		if err := os.Setenv(config.EnvConfigFile, path); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if d := c.String("driver"); d != "" {
		cfg.StoreDriver = d
	}
	if dsn := c.String("dsn"); dsn != "" {
		cfg.DatabaseDSN = dsn
	}
	return cfg, cfg.Validate()
}

func openStores(c *cli.Context) (*config.Config, *app.Stores, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	stores, err := app.OpenStores(c.Context, cfg, logger.Get())
	if err != nil {
		return nil, nil, err
	}
	return cfg, stores, nil
}

func asOfFlag() cli.Flag {
	return &cli.StringFlag{Name: "as-of", Usage: `ISO date or phrase such as "last sunday"; default today`}
}

func parseAsOf(c *cli.Context) (time.Time, error) {
	return timeutil.NewParser().ParseDay(c.String("as-of"), time.Now())
}

func migrateCommand() *cli.Command {
	withMigrator := func(fn func(c *cli.Context, m *migrate.Migrator) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			db, err := postgres.Open(c.Context, cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			defer db.Close()
			return fn(c, postgres.NewMigrator(db))
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					return m.Init(c.Context)
				}),
			},
			{
				Name:  "up",
				Usage: "apply pending migrations",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					if err := m.Init(c.Context); err != nil {
						return err
					}
					group, err := m.Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Fprintln(c.App.Writer, "no new migrations to run")
						return nil
					}
					fmt.Fprintf(c.App.Writer, "migrated to %s\n", group)
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "roll back the last migration group",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					group, err := m.Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Fprintln(c.App.Writer, "no groups to roll back")
						return nil
					}
					fmt.Fprintf(c.App.Writer, "rolled back %s\n", group)
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "print migration status",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					ms, err := m.MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "migrations: %s\n", ms)
					fmt.Fprintf(c.App.Writer, "unapplied migrations: %s\n", ms.Unapplied())
					fmt.Fprintf(c.App.Writer, "last migration group: %s\n", ms.LastGroup())
					return nil
				}),
			},
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "write deterministic fake tour data",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "players", Value: 200},
			&cli.IntFlag{Name: "events", Value: 60},
			&cli.Int64Flag{Name: "seed", Value: 42},
			&cli.IntFlag{Name: "days", Value: 365, Usage: "spread events over this many days up to today"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			// The demo data is written explicitly below.
			cfg.SeedPlayers, cfg.SeedEvents = 0, 0
			stores, err := app.OpenStores(c.Context, cfg, logger.Get())
			if err != nil {
				return err
			}
			defer stores.Close()

			to := time.Now().UTC()
			from := to.AddDate(0, 0, -c.Int("days"))
			ds, err := seed.New(c.Int64("seed")).Generate(c.Int("players"), c.Int("events"), from, to)
			if err != nil {
				return err
			}
			if err := seed.Load(c.Context, stores.Writer, ds); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "seeded %d players, %d events, %d results\n",
				len(ds.Players), len(ds.Events), len(ds.Results))
			return nil
		},
	}
}

func standingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "standings",
		Usage: "print the standings of a named scope",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "scope", Required: true},
			asOfFlag(),
			&cli.BoolFlag{Name: "movement"},
			&cli.IntFlag{Name: "limit", Value: 25, Usage: "0 prints every row"},
		},
		Action: func(c *cli.Context) error {
			asOf, err := parseAsOf(c)
			if err != nil {
				return err
			}
			cfg, stores, err := openStores(c)
			if err != nil {
				return err
			}
			defer stores.Close()
			svc, err := app.NewFromConfig(cfg, stores, logger.Get())
			if err != nil {
				return err
			}

			rows, err := svc.Standings(c.Context, c.String("scope"), asOf, c.Bool("movement"))
			if err != nil {
				return err
			}
			if n := c.Int("limit"); n > 0 && n < len(rows) {
				rows = rows[:n]
			}
			fmt.Fprintf(c.App.Writer, "%s as of %s\n", c.String("scope"), model.FormatDay(asOf))
			return printRows(c.App.Writer, rows)
		},
	}
}

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "compute and persist a snapshot of a named scope",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "scope", Required: true},
			asOfFlag(),
		},
		Action: func(c *cli.Context) error {
			asOf, err := parseAsOf(c)
			if err != nil {
				return err
			}
			cfg, stores, err := openStores(c)
			if err != nil {
				return err
			}
			defer stores.Close()
			svc, err := app.NewFromConfig(cfg, stores, logger.Get())
			if err != nil {
				return err
			}

			n, err := svc.SnapshotScope(c.Context, c.String("scope"), asOf)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "snapshot %s as of %s: %d rows\n", c.String("scope"), model.FormatDay(asOf), n)
			return nil
		},
	}
}

func printRows(w io.Writer, rows []model.RankedRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "POS\tPLAYER\tPOINTS\tUSED\tEVENTS\tWINS\tWINNINGS\tMOVE\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%d/%d\t%d\t%d\t%s\t%s\t\n",
			r.Position, r.DisplayName, r.DisplayPoints(), r.UsedCount, r.TotalCount,
			r.EventsPlayed, r.Wins, r.Winnings.StringFixed(2), movementArrow(r.Movement))
	}
	return tw.Flush()
}

func movementArrow(m int) string {
	switch {
	case m > 0:
		return "+" + strconv.Itoa(m)
	case m < 0:
		return strconv.Itoa(m)
	default:
		return "="
	}
}
