// Package main is the schema migration tool.
//
// Usage:
//
//	migrate up
//	migrate down
//	migrate steps -- -1
//	migrate force 3
//	migrate version
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"medstore/internal/infrastructure/config"
	"medstore/internal/infrastructure/migration"
	"medstore/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "migrate",
		Usage: "apply medstore schema migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dsn",
				Usage:   "database DSN, overrides MEDSTORE_DATABASE_DSN",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "optional .env file to load first",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: run(func(ctx context.Context, m *migration.Migrator, _ *cli.Context) error {
					return m.Up(ctx)
				}),
			},
			{
				Name:  "down",
				Usage: "roll back every migration",
				Action: run(func(ctx context.Context, m *migration.Migrator, _ *cli.Context) error {
					return m.Down(ctx)
				}),
			},
			{
				Name:      "steps",
				Usage:     "apply N migrations, negative N rolls back",
				ArgsUsage: "N",
				Action: run(func(ctx context.Context, m *migration.Migrator, c *cli.Context) error {
					n, err := intArg(c)
					if err != nil {
						return err
					}
					return m.Steps(ctx, n)
				}),
			},
			{
				Name:      "force",
				Usage:     "set the version without running migrations",
				ArgsUsage: "VERSION",
				Action: run(func(ctx context.Context, m *migration.Migrator, c *cli.Context) error {
					v, err := intArg(c)
					if err != nil {
						return err
					}
					return m.Force(ctx, v)
				}),
			},
			{
				Name:  "version",
				Usage: "print the current version",
				Action: run(func(_ context.Context, m *migration.Migrator, _ *cli.Context) error {
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					fmt.Printf("version=%d dirty=%t\n", version, dirty)
					return nil
				}),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

type action func(ctx context.Context, m *migration.Migrator, c *cli.Context) error

// run resolves config and the logger, opens a migrator and hands it to fn.
func run(fn action) cli.ActionFunc {
	return func(c *cli.Context) error {
		if err := config.LoadDotEnv(c.String("env-file")); err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		log, err := logger.New(logger.Config{
			Level:       cfg.Log.Level,
			Development: cfg.Log.Development,
			OutputPaths: cfg.Log.OutputPaths,
		})
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		ctx := logger.WithLogger(c.Context, log)

		dsn := cfg.Database.DSN
		if v := c.String("dsn"); v != "" {
			dsn = v
		}
		if dsn == "" {
			return cli.Exit("database DSN is not configured", 2)
		}

		m, err := migration.New(dsn)
		if err != nil {
			return err
		}
		defer func() {
			if err := m.Close(); err != nil {
				log.Warnw("failed to close migrator", "error", err)
			}
		}()

		return fn(ctx, m, c)
	}
}

func intArg(c *cli.Context) (int, error) {
	if c.NArg() != 1 {
		return 0, cli.Exit(fmt.Sprintf("%s expects exactly one argument", c.Command.Name), 2)
	}
	n, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return 0, cli.Exit(fmt.Sprintf("invalid number %q", c.Args().First()), 2)
	}
	return n, nil
}
