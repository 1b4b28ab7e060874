package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/mitchell28/masterleague/internal/app"
	"github.com/mitchell28/masterleague/internal/config"
	"github.com/mitchell28/masterleague/internal/platform/logging"
	"github.com/urfave/cli/v2"
)

var migrationDirCandidates = []string{"./db/migrations", "/app/db/migrations"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSONTo(os.Stderr, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	if err := newCLI(cfg, logger).Run(os.Args); err != nil {
		logger.Error("migration failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func newCLI(cfg config.Config, logger *logging.Logger) *cli.App {
	withMigrator := func(fn func(*migrate.Migrate, *cli.Context) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			m, source, err := openMigrator(cfg)
			if err != nil {
				return err
			}
			defer closeMigrator(m, logger)
			logger.Info("migration source resolved", "source", source)
			return fn(m, c)
		}
	}

	return &cli.App{
		Name:  "migration",
		Usage: "apply leaderboard schema migrations",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: withMigrator(func(m *migrate.Migrate, _ *cli.Context) error {
					if err := ignoreNoChange(m.Up(), logger); err != nil {
						return fmt.Errorf("migrate up: %w", err)
					}
					logger.Info("migrations applied")
					return nil
				}),
			},
			{
				Name:      "down",
				Usage:     "roll back migrations",
				ArgsUsage: "[steps]",
				Action: withMigrator(func(m *migrate.Migrate, c *cli.Context) error {
					steps, err := parseSteps(c.Args().First())
					if err != nil {
						return err
					}
					if err := ignoreNoChange(m.Steps(-steps), logger); err != nil {
						return fmt.Errorf("migrate down %d: %w", steps, err)
					}
					logger.Info("migrations rolled back", "steps", steps)
					return nil
				}),
			},
			{
				Name:  "version",
				Usage: "print the current schema version",
				Action: withMigrator(func(m *migrate.Migrate, c *cli.Context) error {
					version, dirty, err := m.Version()
					if errors.Is(err, migrate.ErrNilVersion) {
						fmt.Fprintln(c.App.Writer, "version: none")
						fmt.Fprintln(c.App.Writer, "dirty: false")
						return nil
					}
					if err != nil {
						return fmt.Errorf("read version: %w", err)
					}
					fmt.Fprintf(c.App.Writer, "version: %d\ndirty: %t\n", version, dirty)
					return nil
				}),
			},
			{
				Name:      "force",
				Usage:     "set the schema version without running migrations",
				ArgsUsage: "<version>",
				Action: withMigrator(func(m *migrate.Migrate, c *cli.Context) error {
					version, err := parseVersion(c.Args().First())
					if err != nil {
						return err
					}
					if err := m.Force(version); err != nil {
						return fmt.Errorf("force version %d: %w", version, err)
					}
					logger.Info("schema version forced", "version", version)
					return nil
				}),
			},
			{
				Name:      "goto",
				Aliases:   []string{"migrate"},
				Usage:     "migrate up or down to a version",
				ArgsUsage: "<version>",
				Action: withMigrator(func(m *migrate.Migrate, c *cli.Context) error {
					target, err := parseTarget(c.Args().First())
					if err != nil {
						return err
					}
					if err := ignoreNoChange(m.Migrate(target), logger); err != nil {
						return fmt.Errorf("migrate to %d: %w", target, err)
					}
					logger.Info("migrated", "version", target)
					return nil
				}),
			},
		},
	}
}

func openMigrator(cfg config.Config) (*migrate.Migrate, string, error) {
	dir, err := resolveMigrationsDir(os.Getenv("MIGRATIONS_DIR"), os.Getenv("MIGRATIONS_PATH"))
	if err != nil {
		return nil, "", err
	}
	source := "file://" + filepath.ToSlash(dir)

	m, err := migrate.New(source, app.MigrationDSN(cfg))
	if err != nil {
		return nil, "", fmt.Errorf("create migrator: %w", err)
	}
	return m, source, nil
}

func ignoreNoChange(err error, logger *logging.Logger) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return nil
	}
	return err
}

func closeMigrator(m *migrate.Migrate, logger *logging.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("close migration source", "error", srcErr)
	}
	if dbErr != nil {
		logger.Warn("close migration database", "error", dbErr)
	}
}

func parseSteps(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}

	steps, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", raw, err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}
	return steps, nil
}

func parseVersion(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("version argument is required")
	}
	value, err := strconv.ParseInt(raw, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("version must be >= 0")
	}
	return int(value), nil
}

func parseTarget(raw string) (uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("target version argument is required")
	}
	value, err := strconv.ParseUint(raw, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}

func resolveMigrationsDir(overrides ...string) (string, error) {
	candidates := append(append([]string{}, overrides...), migrationDirCandidates...)
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, MIGRATIONS_PATH, %s)", strings.Join(migrationDirCandidates, ", "))
}
