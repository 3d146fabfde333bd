package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/facegate/internal/store/pg"
	migrations "github.com/dropDatabas3/facegate/migrations/postgres"
)

func newMigrateCmd(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones Postgres embebidas",
	}

	run := func(cmd *cobra.Command, down bool, steps int) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		if cfg.Storage.Driver != "postgres" {
			return fmt.Errorf("migrate requires storage.driver=postgres (got %q)", cfg.Storage.Driver)
		}
		if cfg.Storage.DSN == "" {
			return errors.New("storage.dsn is required")
		}
		ctx := cmd.Context()
		pool, err := pg.NewPool(ctx, cfg.Storage.DSN, 2, 0)
		if err != nil {
			return err
		}
		defer pool.Close()

		m := pg.NewMigrator(migrations.FS, migrations.Dir)
		res, err := func() (*pg.MigrationResult, error) {
			if down {
				return m.Down(ctx, pool, steps)
			}
			return m.Up(ctx, pool)
		}()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "applied %s migration(s) %v, skipped %s, in %s\n",
			humanize.Comma(int64(len(res.Applied))), res.Applied,
			humanize.Comma(int64(len(res.Skipped))), res.Duration.Round(time.Millisecond))
		return nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Aplica las migraciones pendientes",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, false, 0)
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Revierte las últimas migraciones (default 1)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return fmt.Errorf("invalid steps %q", args[0])
					}
					steps = n
				}
				return run(cmd, true, steps)
			},
		},
	)
	return cmd
}
