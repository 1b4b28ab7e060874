package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/mitchell28/masterleague/internal/app"
	"github.com/mitchell28/masterleague/internal/config"
	"github.com/mitchell28/masterleague/internal/platform/logging"
	"github.com/mitchell28/masterleague/internal/usecase"
	"github.com/urfave/cli/v2"
)

var (
	errMissingArgument = errors.New("missing argument")
	// errRecalculationBusy means another process holds the lock; retrying later is safe.
	errRecalculationBusy = errors.New("recalculation already running")
)

type worker struct {
	cfg    config.Config
	app    *app.App
	logger *logging.Logger
	out    io.Writer
}

func newCLI(w *worker) *cli.App {
	return &cli.App{
		Name:      "worker",
		Usage:     "leaderboard scoring and maintenance jobs",
		Writer:    w.out,
		ErrWriter: io.Discard,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "season",
				Usage: "season the job operates on",
				Value: w.cfg.DefaultSeason,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "score-fixture",
				Usage:     "award points for every prediction on a finished fixture",
				ArgsUsage: "<fixture-id>",
				Action: func(c *cli.Context) error {
					fixtureID, err := requireArg(c, "fixture-id")
					if err != nil {
						return err
					}
					result, err := w.app.Ledger.ScoreFixture(c.Context, fixtureID)
					if err != nil {
						return fmt.Errorf("score fixture %s: %w", fixtureID, err)
					}
					return w.print(result)
				},
			},
			{
				Name:      "recalculate",
				Usage:     "rebuild one organization's leaderboard from predictions",
				ArgsUsage: "<organization-id>",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "force", Usage: "ignore the staleness check"}},
				Action: func(c *cli.Context) error {
					organizationID, err := requireArg(c, "organization-id")
					if err != nil {
						return err
					}
					result := w.app.Leaderboards.Recalculate(c.Context, organizationID, c.Int("season"), c.Bool("force"))
					if err := w.print(result); err != nil {
						return err
					}
					return recalculationError(organizationID, result)
				},
			},
			{
				Name:  "recalculate-all",
				Usage: "rebuild every organization's leaderboard",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "force", Usage: "ignore the staleness check"}},
				Action: func(c *cli.Context) error {
					results, err := w.app.Leaderboards.RecalculateAll(c.Context, c.Int("season"), c.Bool("force"))
					if err != nil {
						return fmt.Errorf("recalculate all: %w", err)
					}
					return w.print(results)
				},
			},
			{
				Name:      "leaderboard",
				Usage:     "print the ranked leaderboard of one organization",
				ArgsUsage: "<organization-id>",
				Action: func(c *cli.Context) error {
					organizationID, err := requireArg(c, "organization-id")
					if err != nil {
						return err
					}
					entries, err := w.app.Leaderboards.GetLeaderboard(c.Context, organizationID, c.Int("season"))
					if err != nil {
						return fmt.Errorf("get leaderboard %s: %w", organizationID, err)
					}
					return w.print(entries)
				},
			},
			{
				Name:      "invalidate",
				Usage:     "drop cached leaderboard reads of one organization",
				ArgsUsage: "<organization-id>",
				Action: func(c *cli.Context) error {
					organizationID, err := requireArg(c, "organization-id")
					if err != nil {
						return err
					}
					season := c.Int("season")
					if err := w.app.Leaderboards.InvalidateLeaderboard(c.Context, organizationID, season); err != nil {
						return fmt.Errorf("invalidate leaderboard %s: %w", organizationID, err)
					}
					return w.print(map[string]any{"organization_id": organizationID, "season": season, "invalidated": true})
				},
			},
			{
				Name:  "integrity",
				Usage: "compare leaderboard totals with the prediction ledger",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "fix", Usage: "recalculate organizations with mismatches"},
					&cli.IntFlag{Name: "threshold", Usage: "ignore differences up to this many points", Value: w.cfg.IntegrityThreshold},
				},
				Action: func(c *cli.Context) error {
					report, err := w.app.Integrity.CheckIntegrity(c.Context, usecase.IntegrityInput{
						Season:    c.Int("season"),
						AutoFix:   c.Bool("fix"),
						Threshold: c.Int("threshold"),
					})
					if err != nil {
						return fmt.Errorf("check integrity: %w", err)
					}
					return w.print(report)
				},
			},
			{
				Name:  "repair",
				Usage: "score predictions left unprocessed on recently finished fixtures",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "days", Usage: "lookback window in days", Value: w.cfg.RepairLookbackDays},
				},
				Action: func(c *cli.Context) error {
					report, err := w.app.Ledger.RepairUnprocessed(c.Context, usecase.RepairInput{LookbackDays: c.Int("days")})
					if err != nil {
						return fmt.Errorf("repair unprocessed: %w", err)
					}
					return w.print(report)
				},
			},
			{
				Name:      "apply-result",
				Usage:     "store a fixture result, then score and recalculate",
				ArgsUsage: "<fixture-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "fixture status", Value: "FINISHED"},
					&cli.IntFlag{Name: "home", Usage: "home score"},
					&cli.IntFlag{Name: "away", Usage: "away score"},
				},
				Action: func(c *cli.Context) error {
					fixtureID, err := requireArg(c, "fixture-id")
					if err != nil {
						return err
					}
					input := usecase.FixtureResultInput{
						FixtureID: fixtureID,
						Status:    strings.TrimSpace(c.String("status")),
						HomeScore: optionalInt(c, "home"),
						AwayScore: optionalInt(c, "away"),
					}
					result, err := w.app.Ingestion.ApplyFixtureResult(c.Context, input)
					if err != nil {
						return fmt.Errorf("apply result %s: %w", fixtureID, err)
					}
					return w.print(result)
				},
			},
			{
				Name:  "purge-cache",
				Usage: "delete expired shared cache rows",
				Action: func(c *cli.Context) error {
					purged, err := w.app.PurgeExpiredCache(c.Context)
					if err != nil {
						return err
					}
					return w.print(map[string]any{"purged": purged})
				},
			},
		},
		Before: func(c *cli.Context) error {
			w.logger.InfoContext(contextOrBackground(c.Context), "worker starting",
				"args", c.Args().Slice(),
				"season", c.Int("season"),
			)
			return nil
		},
	}
}

func (w *worker) print(value any) error {
	if err := sonic.ConfigDefault.NewEncoder(w.out).Encode(value); err != nil {
		return fmt.Errorf("encode job output: %w", err)
	}
	return nil
}

func requireArg(c *cli.Context, name string) (string, error) {
	value := strings.TrimSpace(c.Args().First())
	if value == "" {
		return "", fmt.Errorf("%s: %w", name, errMissingArgument)
	}
	return value, nil
}

func optionalInt(c *cli.Context, name string) *int {
	if !c.IsSet(name) {
		return nil
	}
	value := c.Int(name)
	return &value
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func recalculationError(organizationID string, result usecase.RecalculationResult) error {
	switch {
	case result.Success:
		return nil
	case result.InProgress:
		return fmt.Errorf("recalculate %s: %w", organizationID, errRecalculationBusy)
	default:
		return fmt.Errorf("recalculate %s: %s", organizationID, result.Message)
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errMissingArgument), errors.Is(err, usecase.ErrInvalidInput):
		return 2
	case errors.Is(err, usecase.ErrNotFound):
		return 3
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return 4
	case errors.Is(err, errRecalculationBusy):
		return 5
	default:
		return 1
	}
}
